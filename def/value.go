/*
Package def holds the data model shared by every other epyc package: the
tagged scalar/array Value variant that stands in for the source system's
dynamically-typed parameter and result dictionaries, the fixed-shape
Metadata keys, and the Record and PendingRecord triples that flow between
experiments, result sets and notebooks.

Values are immutable once constructed; every method that would "change"
a Value returns a new one.
*/
package def

import (
	"fmt"
	"math"
)

// Kind is one of the small closed set of scalar or one-dimensional-array
// kinds a Parameter, Result or Metadata field may hold. Kinds form a
// promotion lattice: Int < Float < Complex, with Bool and Text disjoint
// from everything including each other, and one Array-of-K kind per
// scalar K, itself following the same numeric sub-lattice.
type Kind int

const (
	Int Kind = iota
	Float
	Complex
	Bool
	Text
	ArrayInt
	ArrayFloat
	ArrayComplex
	ArrayBool
	ArrayText
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Complex:
		return "complex"
	case Bool:
		return "bool"
	case Text:
		return "text"
	case ArrayInt:
		return "array-of-int"
	case ArrayFloat:
		return "array-of-float"
	case ArrayComplex:
		return "array-of-complex"
	case ArrayBool:
		return "array-of-bool"
	case ArrayText:
		return "array-of-text"
	default:
		return "unknown"
	}
}

// IsArray reports whether k is one of the ArrayXxx kinds.
func (k Kind) IsArray() bool {
	return k >= ArrayInt && k <= ArrayText
}

// ElementKind returns the scalar kind an array kind is built from. It
// panics if k is not an array kind.
func (k Kind) ElementKind() Kind {
	switch k {
	case ArrayInt:
		return Int
	case ArrayFloat:
		return Float
	case ArrayComplex:
		return Complex
	case ArrayBool:
		return Bool
	case ArrayText:
		return Text
	default:
		panic(fmt.Sprintf("def: %s is not an array kind", k))
	}
}

// arrayKindOf returns the array kind built from scalar kind k.
func arrayKindOf(k Kind) Kind {
	switch k {
	case Int:
		return ArrayInt
	case Float:
		return ArrayFloat
	case Complex:
		return ArrayComplex
	case Bool:
		return ArrayBool
	case Text:
		return ArrayText
	default:
		panic(fmt.Sprintf("def: %s is not a scalar kind", k))
	}
}

// numericRank places the numeric scalar kinds on their sub-lattice;
// non-numeric kinds return -1.
func numericRank(k Kind) int {
	switch k {
	case Int:
		return 0
	case Float:
		return 1
	case Complex:
		return 2
	default:
		return -1
	}
}

// Value is a tagged scalar or one-dimensional array value: one of
// int64, float64, complex128, bool, string, or a slice of one of those.
type Value struct {
	kind   Kind
	scalar interface{}
	array  interface{}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the zero Value (no kind set).
func (v Value) IsZero() bool { return v.kind == Int && v.scalar == nil && v.array == nil }

func NewInt(i int64) Value         { return Value{kind: Int, scalar: i} }
func NewFloat(f float64) Value     { return Value{kind: Float, scalar: f} }
func NewComplex(c complex128) Value { return Value{kind: Complex, scalar: c} }
func NewBool(b bool) Value         { return Value{kind: Bool, scalar: b} }
func NewText(s string) Value       { return Value{kind: Text, scalar: s} }

func NewIntArray(a []int64) Value         { return Value{kind: ArrayInt, array: append([]int64(nil), a...)} }
func NewFloatArray(a []float64) Value     { return Value{kind: ArrayFloat, array: append([]float64(nil), a...)} }
func NewComplexArray(a []complex128) Value { return Value{kind: ArrayComplex, array: append([]complex128(nil), a...)} }
func NewBoolArray(a []bool) Value         { return Value{kind: ArrayBool, array: append([]bool(nil), a...)} }
func NewTextArray(a []string) Value       { return Value{kind: ArrayText, array: append([]string(nil), a...)} }

// Int returns v's payload as an int64, and whether v actually holds one.
func (v Value) Int() (int64, bool) { i, ok := v.scalar.(int64); return i, ok && v.kind == Int }

func (v Value) Float() (float64, bool) { f, ok := v.scalar.(float64); return f, ok && v.kind == Float }

func (v Value) Complex() (complex128, bool) {
	c, ok := v.scalar.(complex128)
	return c, ok && v.kind == Complex
}

func (v Value) Bool() (bool, bool) { b, ok := v.scalar.(bool); return b, ok && v.kind == Bool }

func (v Value) Text() (string, bool) { s, ok := v.scalar.(string); return s, ok && v.kind == Text }

func (v Value) IntArray() ([]int64, bool)         { a, ok := v.array.([]int64); return a, ok }
func (v Value) FloatArray() ([]float64, bool)     { a, ok := v.array.([]float64); return a, ok }
func (v Value) ComplexArray() ([]complex128, bool) { a, ok := v.array.([]complex128); return a, ok }
func (v Value) BoolArray() ([]bool, bool)         { a, ok := v.array.([]bool); return a, ok }
func (v Value) TextArray() ([]string, bool)       { a, ok := v.array.([]string); return a, ok }

// Len returns the length of an array-kinded Value, or -1 for a scalar.
func (v Value) Len() int {
	switch v.kind {
	case ArrayInt:
		a, _ := v.IntArray()
		return len(a)
	case ArrayFloat:
		a, _ := v.FloatArray()
		return len(a)
	case ArrayComplex:
		a, _ := v.ComplexArray()
		return len(a)
	case ArrayBool:
		a, _ := v.BoolArray()
		return len(a)
	case ArrayText:
		a, _ := v.TextArray()
		return len(a)
	default:
		return -1
	}
}

// Zero returns the schema zero value for kind k: 0, 0.0, 0+0i, false,
// "", or an empty array of the matching element kind.
func Zero(k Kind) Value {
	switch k {
	case Int:
		return NewInt(0)
	case Float:
		return NewFloat(0)
	case Complex:
		return NewComplex(0)
	case Bool:
		return NewBool(false)
	case Text:
		return NewText("")
	case ArrayInt:
		return NewIntArray(nil)
	case ArrayFloat:
		return NewFloatArray(nil)
	case ArrayComplex:
		return NewComplexArray(nil)
	case ArrayBool:
		return NewBoolArray(nil)
	case ArrayText:
		return NewTextArray(nil)
	default:
		panic(fmt.Sprintf("def: no zero value for kind %s", k))
	}
}

// Widen returns the kind that results from a schema already inferring a
// and a fresh observation of kind b: numeric kinds widen within the
// int<float<complex lattice, array-of-numeric kinds widen the same way
// element-wise, and any other mismatch coerces to Text, the weakest
// kind that accepts both.
func Widen(a, b Kind) Kind {
	if a == b {
		return a
	}
	if ra, rb := numericRank(a), numericRank(b); ra >= 0 && rb >= 0 {
		if ra > rb {
			return a
		}
		return b
	}
	if a.IsArray() && b.IsArray() {
		ea, eb := a.ElementKind(), b.ElementKind()
		if ra, rb := numericRank(ea), numericRank(eb); ra >= 0 && rb >= 0 {
			if ra > rb {
				return a
			}
			return b
		}
	}
	return Text
}

// CoerceToText renders v as its Text-kinded equivalent, used when a
// field's schema kind has widened to Text because of a mismatched
// observation.
func CoerceToText(v Value) Value {
	if v.kind == Text {
		return v
	}
	switch v.kind {
	case Int:
		i, _ := v.Int()
		return NewText(fmt.Sprintf("%d", i))
	case Float:
		f, _ := v.Float()
		return NewText(formatFloat(f))
	case Complex:
		c, _ := v.Complex()
		return NewText(fmt.Sprintf("%v", c))
	case Bool:
		b, _ := v.Bool()
		return NewText(fmt.Sprintf("%t", b))
	default:
		return NewText(fmt.Sprintf("%v", v.array))
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "+Inf"
	}
	if math.IsInf(f, -1) {
		return "-Inf"
	}
	return fmt.Sprintf("%g", f)
}

// Coerce converts v to the given kind following the same promotion rule
// Widen uses: numeric widening within scalars or arrays, or rendering
// to text for anything else. It panics if the conversion is not one
// Widen would ever produce (a programmer error, not a data error).
func Coerce(v Value, to Kind) Value {
	if v.kind == to {
		return v
	}
	if to == Text {
		return CoerceToText(v)
	}
	if numericRank(v.kind) >= 0 && numericRank(to) >= 0 {
		return coerceNumeric(v, to)
	}
	if v.kind.IsArray() && to.IsArray() {
		return coerceNumericArray(v, to)
	}
	panic(fmt.Sprintf("def: cannot coerce %s to %s", v.kind, to))
}

func coerceNumeric(v Value, to Kind) Value {
	switch to {
	case Int:
		if i, ok := v.Int(); ok {
			return NewInt(i)
		}
	case Float:
		switch v.kind {
		case Int:
			i, _ := v.Int()
			return NewFloat(float64(i))
		case Float:
			f, _ := v.Float()
			return NewFloat(f)
		}
	case Complex:
		switch v.kind {
		case Int:
			i, _ := v.Int()
			return NewComplex(complex(float64(i), 0))
		case Float:
			f, _ := v.Float()
			return NewComplex(complex(f, 0))
		case Complex:
			c, _ := v.Complex()
			return NewComplex(c)
		}
	}
	panic(fmt.Sprintf("def: cannot coerce %s to %s", v.kind, to))
}

func coerceNumericArray(v Value, to Kind) Value {
	et := to.ElementKind()
	switch v.kind {
	case ArrayInt:
		a, _ := v.IntArray()
		return coerceIntArrayTo(a, et)
	case ArrayFloat:
		a, _ := v.FloatArray()
		return coerceFloatArrayTo(a, et)
	case ArrayComplex:
		a, _ := v.ComplexArray()
		if et != Complex {
			panic("def: cannot narrow array-of-complex")
		}
		return NewComplexArray(a)
	}
	panic(fmt.Sprintf("def: cannot coerce %s to %s", v.kind, to))
}

func coerceIntArrayTo(a []int64, et Kind) Value {
	switch et {
	case Int:
		return NewIntArray(a)
	case Float:
		out := make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
		return NewFloatArray(out)
	case Complex:
		out := make([]complex128, len(a))
		for i, x := range a {
			out[i] = complex(float64(x), 0)
		}
		return NewComplexArray(out)
	}
	panic("def: unreachable")
}

func coerceFloatArrayTo(a []float64, et Kind) Value {
	switch et {
	case Float:
		return NewFloatArray(a)
	case Complex:
		out := make([]complex128, len(a))
		for i, x := range a {
			out[i] = complex(x, 0)
		}
		return NewComplexArray(out)
	}
	panic("def: cannot narrow array-of-float")
}

// InferKind returns the Kind that best fits a freshly-observed Go value,
// used when building a Value out of arbitrary experiment payload data.
func InferKind(x interface{}) (Kind, bool) {
	switch x.(type) {
	case int, int64:
		return Int, true
	case float32, float64:
		return Float, true
	case complex64, complex128:
		return Complex, true
	case bool:
		return Bool, true
	case string:
		return Text, true
	case []int64:
		return ArrayInt, true
	case []float64:
		return ArrayFloat, true
	case []complex128:
		return ArrayComplex, true
	case []bool:
		return ArrayBool, true
	case []string:
		return ArrayText, true
	default:
		return Int, false
	}
}

// FromInterface wraps an arbitrary Go value of one of the safe scalar or
// array types in a Value, widening int/float32/complex64 to their
// 64-bit forms. It panics for anything outside the safe set: experiment
// authors are expected to only ever produce Parameters/Results built
// from the safe set, so a violation here is a programmer error, not a
// runtime data error to recover from.
func FromInterface(x interface{}) Value {
	switch t := x.(type) {
	case int:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case float32:
		return NewFloat(float64(t))
	case float64:
		return NewFloat(t)
	case complex64:
		return NewComplex(complex128(t))
	case complex128:
		return NewComplex(t)
	case bool:
		return NewBool(t)
	case string:
		return NewText(t)
	case []int64:
		return NewIntArray(t)
	case []float64:
		return NewFloatArray(t)
	case []complex128:
		return NewComplexArray(t)
	case []bool:
		return NewBoolArray(t)
	case []string:
		return NewTextArray(t)
	default:
		panic(fmt.Sprintf("def: %T is not one of the safe scalar/array kinds", x))
	}
}
