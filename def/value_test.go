package def

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValueConstruction(t *testing.T) {
	Convey("Scalar and array Values should round-trip through their accessors", t, func(c C) {
		Convey("An int Value reports its payload and kind", func() {
			v := NewInt(42)
			i, ok := v.Int()
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 42)
			So(v.Kind(), ShouldEqual, Int)
		})

		Convey("A float array Value is cloned on construction", func() {
			src := []float64{1, 2, 3}
			v := NewFloatArray(src)
			src[0] = 999
			a, ok := v.FloatArray()
			So(ok, ShouldBeTrue)
			So(a, ShouldResemble, []float64{1, 2, 3})
			So(v.Len(), ShouldEqual, 3)
		})

		Convey("A scalar Value reports Len -1", func() {
			v := NewText("hello")
			So(v.Len(), ShouldEqual, -1)
		})

		Convey("Accessing the wrong accessor fails cleanly", func() {
			v := NewInt(1)
			_, ok := v.Float()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestKindWidening(t *testing.T) {
	Convey("Widen should follow the int < float < complex lattice", t, func(c C) {
		Convey("Widening a kind with itself is a no-op", func() {
			So(Widen(Int, Int), ShouldEqual, Int)
		})

		Convey("Int widens up to Float", func() {
			So(Widen(Int, Float), ShouldEqual, Float)
			So(Widen(Float, Int), ShouldEqual, Float)
		})

		Convey("Float widens up to Complex", func() {
			So(Widen(Float, Complex), ShouldEqual, Complex)
		})

		Convey("Int widens directly to Complex", func() {
			So(Widen(Int, Complex), ShouldEqual, Complex)
		})

		Convey("Array kinds widen element-wise", func() {
			So(Widen(ArrayInt, ArrayFloat), ShouldEqual, ArrayFloat)
		})

		Convey("Bool and Text are disjoint from everything, including each other", func() {
			So(Widen(Bool, Text), ShouldEqual, Text)
			So(Widen(Bool, Int), ShouldEqual, Text)
			So(Widen(Text, Float), ShouldEqual, Text)
		})

		Convey("A scalar and an array kind never coexist without widening to Text", func() {
			So(Widen(Int, ArrayInt), ShouldEqual, Text)
		})
	})
}

func TestCoerce(t *testing.T) {
	Convey("Coerce should apply the same promotion rule Widen uses", t, func(c C) {
		Convey("Coercing Int up to Float preserves the numeric value", func() {
			v := Coerce(NewInt(3), Float)
			f, ok := v.Float()
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, 3.0)
		})

		Convey("Coercing anything to Text renders it", func() {
			v := Coerce(NewInt(3), Text)
			s, ok := v.Text()
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, "3")
		})

		Convey("Coercing an int array up to a float array widens every element", func() {
			v := Coerce(NewIntArray([]int64{1, 2}), ArrayFloat)
			a, ok := v.FloatArray()
			So(ok, ShouldBeTrue)
			So(a, ShouldResemble, []float64{1, 2})
		})

		Convey("Coercing to a narrower kind than Widen would ever produce panics", func() {
			So(func() { Coerce(NewComplex(1), Int) }, ShouldPanic)
		})
	})
}

func TestZero(t *testing.T) {
	Convey("Zero should return the schema zero value for every kind", t, func(c C) {
		Convey("Numeric and text scalars zero to their natural default", func() {
			i, _ := Zero(Int).Int()
			So(i, ShouldEqual, 0)
			s, _ := Zero(Text).Text()
			So(s, ShouldEqual, "")
		})

		Convey("Array kinds zero to an empty array of the same element kind", func() {
			So(Zero(ArrayBool).Len(), ShouldEqual, 0)
		})
	})
}

func TestInferAndFromInterface(t *testing.T) {
	Convey("InferKind and FromInterface should agree on the safe scalar/array set", t, func(c C) {
		Convey("A plain Go int infers and converts to Int", func() {
			k, ok := InferKind(7)
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, Int)
			v := FromInterface(7)
			i, _ := v.Int()
			So(i, ShouldEqual, 7)
		})

		Convey("An unsupported type is reported by InferKind and panics in FromInterface", func() {
			_, ok := InferKind(struct{}{})
			So(ok, ShouldBeFalse)
			So(func() { FromInterface(struct{}{}) }, ShouldPanic)
		})
	})
}

func TestValueJSON(t *testing.T) {
	Convey("ToJSON and FromJSON should round-trip every kind", t, func(c C) {
		Convey("A complex scalar round-trips through its {re,im} object", func() {
			v := NewComplex(complex(1.5, -2.5))
			raw := ToJSON(v)
			got, err := FromJSON(raw, Complex)
			So(err, ShouldBeNil)
			c1, _ := v.Complex()
			c2, _ := got.Complex()
			So(c2, ShouldEqual, c1)
		})

		Convey("An array-of-float round-trips as a JSON array", func() {
			v := NewFloatArray([]float64{1, 2, 3})
			raw := ToJSON(v)
			got, err := FromJSON(raw, ArrayFloat)
			So(err, ShouldBeNil)
			a, _ := got.FloatArray()
			So(a, ShouldResemble, []float64{1, 2, 3})
		})

		Convey("FromJSON rejects a shape mismatch", func() {
			_, err := FromJSON("not a number", Int)
			So(err, ShouldNotBeNil)
		})
	})
}
