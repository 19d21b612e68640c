package def

import (
	"fmt"
	"reflect"
)

// ToJSON renders v as a value encoding/json can marshal directly:
// int64/float64/bool/string, a {"re":...,"im":...} object for Complex,
// or a slice of one of those for an array kind. The JSON notebook
// format pairs this with a persisted schema so Kind can be recovered
// exactly on read, since JSON numbers alone don't distinguish Int from
// Float.
func ToJSON(v Value) interface{} {
	switch v.kind {
	case Int:
		i, _ := v.Int()
		return i
	case Float:
		f, _ := v.Float()
		return f
	case Complex:
		c, _ := v.Complex()
		return complexToJSON(c)
	case Bool:
		b, _ := v.Bool()
		return b
	case Text:
		s, _ := v.Text()
		return s
	case ArrayInt:
		a, _ := v.IntArray()
		return a
	case ArrayFloat:
		a, _ := v.FloatArray()
		return a
	case ArrayComplex:
		a, _ := v.ComplexArray()
		out := make([]interface{}, len(a))
		for i, c := range a {
			out[i] = complexToJSON(c)
		}
		return out
	case ArrayBool:
		a, _ := v.BoolArray()
		return a
	case ArrayText:
		a, _ := v.TextArray()
		return a
	default:
		return nil
	}
}

func complexToJSON(c complex128) map[string]interface{} {
	return map[string]interface{}{"re": real(c), "im": imag(c)}
}

// FromJSON reconstructs a Value of the given kind from its
// encoding/json-decoded (interface{}-typed) representation, or from
// ToJSON's own output (whose arrays are typed slices).
func FromJSON(raw interface{}, kind Kind) (Value, error) {
	switch kind {
	case Int:
		f, ok := asFloat(raw)
		if !ok {
			return Value{}, fmt.Errorf("def: expected number for int field, got %T", raw)
		}
		return NewInt(int64(f)), nil
	case Float:
		f, ok := asFloat(raw)
		if !ok {
			return Value{}, fmt.Errorf("def: expected number for float field, got %T", raw)
		}
		return NewFloat(f), nil
	case Complex:
		c, err := complexFromJSON(raw)
		if err != nil {
			return Value{}, err
		}
		return NewComplex(c), nil
	case Bool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("def: expected bool, got %T", raw)
		}
		return NewBool(b), nil
	case Text:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("def: expected string, got %T", raw)
		}
		return NewText(s), nil
	case ArrayInt, ArrayFloat, ArrayComplex, ArrayBool, ArrayText:
		return arrayFromJSON(raw, kind)
	default:
		return Value{}, fmt.Errorf("def: unhandled kind %s", kind)
	}
}

func asFloat(raw interface{}) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func complexFromJSON(raw interface{}) (complex128, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("def: expected {re,im} object for complex field, got %T", raw)
	}
	re, ok1 := asFloat(m["re"])
	im, ok2 := asFloat(m["im"])
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("def: malformed complex object %v", m)
	}
	return complex(re, im), nil
}

func arrayFromJSON(raw interface{}, kind Kind) (Value, error) {
	items, ok := raw.([]interface{})
	if !ok {
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice {
			return Value{}, fmt.Errorf("def: expected array for %s field, got %T", kind, raw)
		}
		items = make([]interface{}, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	el := kind.ElementKind()
	switch kind {
	case ArrayInt:
		out := make([]int64, len(items))
		for i, it := range items {
			v, err := FromJSON(it, el)
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Int()
		}
		return NewIntArray(out), nil
	case ArrayFloat:
		out := make([]float64, len(items))
		for i, it := range items {
			v, err := FromJSON(it, el)
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Float()
		}
		return NewFloatArray(out), nil
	case ArrayComplex:
		out := make([]complex128, len(items))
		for i, it := range items {
			v, err := FromJSON(it, el)
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Complex()
		}
		return NewComplexArray(out), nil
	case ArrayBool:
		out := make([]bool, len(items))
		for i, it := range items {
			v, err := FromJSON(it, el)
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Bool()
		}
		return NewBoolArray(out), nil
	case ArrayText:
		out := make([]string, len(items))
		for i, it := range items {
			v, err := FromJSON(it, el)
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Text()
		}
		return NewTextArray(out), nil
	}
	return Value{}, fmt.Errorf("def: unhandled array kind %s", kind)
}
