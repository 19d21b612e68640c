package errs

import "fmt"

// ShouldHaveCategory is a GoConvey assertion: actual should be an error
// (or nil) of the expected Kind. Returns "" on success, or a description
// of the mismatch otherwise.
func ShouldHaveCategory(actual interface{}, expectedClause ...interface{}) string {
	if len(expectedClause) != 1 {
		return "Misuse: ShouldHaveCategory needs exactly one expected Kind"
	}
	expected, ok := expectedClause[0].(Kind)
	if !ok {
		return fmt.Sprintf("Misuse: expected clause must be an errs.Kind, got %T", expectedClause[0])
	}

	if actual == nil {
		if expected == "" {
			return ""
		}
		return fmt.Sprintf("Actual: nil\nExpected category: %q", expected)
	}

	err, ok := actual.(error)
	if !ok {
		return fmt.Sprintf("Actual: %v\nShould have error interface type", actual)
	}
	if got := Category(err); got != expected {
		return fmt.Sprintf("Actual category: %q\nExpected category: %q\n(Full error: %v)", got, expected, err)
	}
	return ""
}
