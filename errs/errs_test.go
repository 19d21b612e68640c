package errs

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorConstruction(t *testing.T) {
	Convey("New and Wrap should categorize errors consistently", t, func(c C) {
		Convey("New formats its message and sets the category", func() {
			err := New(Design, "bad range length %d", 3)
			So(err, ShouldHaveCategory, Design)
			So(err.Error(), ShouldEqual, "bad range length 3")
		})

		Convey("Wrap preserves the cause's message and keeps it as Details", func() {
			cause := errors.New("boom")
			err := Wrap(Dispatch, cause)
			So(err, ShouldHaveCategory, Dispatch)
			So(err.Error(), ShouldEqual, "boom")
			So(err.(*Error).Details, ShouldEqual, cause)
		})

		Convey("Wrapping a nil cause returns nil", func() {
			So(Wrap(Dispatch, nil), ShouldBeNil)
		})
	})
}

func TestRecategorize(t *testing.T) {
	Convey("Recategorize should swap only the category", t, func(c C) {
		Convey("An *Error keeps its message and details under the new category", func() {
			orig := New(PendingResult, "still pending")
			moved := Recategorize(orig, Cancelled)
			So(moved, ShouldHaveCategory, Cancelled)
			So(moved.Error(), ShouldEqual, "still pending")
		})

		Convey("A foreign error is wrapped fresh under the new category", func() {
			moved := Recategorize(errors.New("plain"), Design)
			So(moved, ShouldHaveCategory, Design)
			So(moved.Error(), ShouldEqual, "plain")
		})
	})
}

func TestCategoryAndIs(t *testing.T) {
	Convey("Category and Is should classify errors", t, func(c C) {
		Convey("A nil error has the zero category", func() {
			So(Category(nil), ShouldEqual, Kind(""))
		})

		Convey("A non-errs error reports as unknown", func() {
			So(Category(errors.New("x")), ShouldEqual, Kind("unknown"))
		})

		Convey("Is matches only the declared category", func() {
			err := New(NotebookLocked, "locked")
			So(Is(err, NotebookLocked), ShouldBeTrue)
			So(Is(err, ResultSetLocked), ShouldBeFalse)
		})
	})
}
