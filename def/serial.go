package def

import (
	"fmt"

	"github.com/polydawn/refmt/obj/atlas"
)

// wireValue is the intermediate, plain-data shape a Value transforms
// through on its way to and from any refmt-driven encoding (CBOR for
// the worker-farm boundary, the columnar notebook backend's typed
// datasets). Only the fields matching Kind are populated.
type wireValue struct {
	Kind string

	Int   int64
	Float float64
	Real  float64
	Imag  float64
	Bool  bool
	Text  string

	Ints   []int64
	Floats []float64
	Reals  []float64
	Imags  []float64
	Bools  []bool
	Texts  []string
}

func marshalValue(v Value) (wireValue, error) {
	w := wireValue{Kind: v.kind.String()}
	switch v.kind {
	case Int:
		w.Int, _ = v.Int()
	case Float:
		w.Float, _ = v.Float()
	case Complex:
		c, _ := v.Complex()
		w.Real, w.Imag = real(c), imag(c)
	case Bool:
		w.Bool, _ = v.Bool()
	case Text:
		w.Text, _ = v.Text()
	case ArrayInt:
		w.Ints, _ = v.IntArray()
	case ArrayFloat:
		w.Floats, _ = v.FloatArray()
	case ArrayComplex:
		a, _ := v.ComplexArray()
		w.Reals = make([]float64, len(a))
		w.Imags = make([]float64, len(a))
		for i, c := range a {
			w.Reals[i], w.Imags[i] = real(c), imag(c)
		}
	case ArrayBool:
		w.Bools, _ = v.BoolArray()
	case ArrayText:
		w.Texts, _ = v.TextArray()
	default:
		return wireValue{}, fmt.Errorf("def: cannot serialize value of kind %s", v.kind)
	}
	return w, nil
}

func unmarshalValue(w wireValue) (Value, error) {
	switch w.Kind {
	case "int":
		return NewInt(w.Int), nil
	case "float":
		return NewFloat(w.Float), nil
	case "complex":
		return NewComplex(complex(w.Real, w.Imag)), nil
	case "bool":
		return NewBool(w.Bool), nil
	case "text":
		return NewText(w.Text), nil
	case "array-of-int":
		return NewIntArray(w.Ints), nil
	case "array-of-float":
		return NewFloatArray(w.Floats), nil
	case "array-of-complex":
		out := make([]complex128, len(w.Reals))
		for i := range w.Reals {
			out[i] = complex(w.Reals[i], w.Imags[i])
		}
		return NewComplexArray(out), nil
	case "array-of-bool":
		return NewBoolArray(w.Bools), nil
	case "array-of-text":
		return NewTextArray(w.Texts), nil
	default:
		return Value{}, fmt.Errorf("def: unrecognized wire kind %q", w.Kind)
	}
}

// Value_AtlasEntry teaches refmt how to marshal/unmarshal a Value by
// transforming it through wireValue, a plain struct refmt's reflective
// walker can handle unaided.
var Value_AtlasEntry = atlas.BuildEntry(Value{}).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(marshalValue)).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(unmarshalValue)).
	Complete()

// Record_AtlasEntry and PendingRecord_AtlasEntry are plain struct-maps:
// their P/R/M fields are map[string]Value, which refmt walks natively
// once Value itself is registered.
var Record_AtlasEntry = atlas.BuildEntry(Record{}).StructMap().Autogenerate().Complete()
var PendingRecord_AtlasEntry = atlas.BuildEntry(PendingRecord{}).StructMap().Autogenerate().Complete()

// Atlas is the refmt atlas covering every def type that crosses a
// serialization boundary: the worker-farm submission/result wire format
// and the columnar notebook backend's typed encoding.
var Atlas = atlas.MustBuild(
	Value_AtlasEntry,
	Record_AtlasEntry,
	PendingRecord_AtlasEntry,
)
