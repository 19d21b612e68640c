/*
Package design turns parameter ranges into the ordered list of parameter
points a Lab runs an experiment at. Designs are pure functions of the
range mapping; they never observe execution state.

Grounded on the source `epyc.Design`/`epyc.StandardDesigns` (Factorial
cross-product and pointwise zip), restated with an explicit interface
and an error kind for malformed designs instead of a raised exception.
*/
package design

import (
	"sort"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
)

// Range is one parameter's range: either a singleton value (len 1) or
// an ordered finite sequence of values.
type Range []def.Value

// Ranges is the collection of parameter ranges a Design enumerates,
// keyed by parameter name.
type Ranges map[string]Range

// Design maps a collection of parameter ranges to an ordered list of
// parameter points.
type Design interface {
	// Space returns the ordered list of P-mappings the design produces
	// from ranges, or an errs.Design error if the ranges cannot be
	// validly enumerated by this design.
	Space(ranges Ranges) ([]def.Parameters, error)
}

// Factorial enumerates the Cartesian product of every range; singleton
// ranges contribute a factor of size 1. Ordering is deterministic:
// lexicographic over parameter names, then index within each range.
type Factorial struct{}

func (Factorial) Space(ranges Ranges) ([]def.Parameters, error) {
	names := sortedNames(ranges)
	if len(names) == 0 {
		return nil, nil
	}

	points := []def.Parameters{{}}
	for _, name := range names {
		r := ranges[name]
		next := make([]def.Parameters, 0, len(points)*len(r))
		for _, base := range points {
			for _, v := range r {
				p := base.Clone()
				p[name] = v
				next = append(next, p)
			}
		}
		points = next
	}
	return points, nil
}

// Pointwise zips corresponding positions across all ranges: all
// non-singleton ranges must share the same length, and singletons are
// broadcast to that length. A length mismatch is an errs.Design error.
type Pointwise struct{}

func (Pointwise) Space(ranges Ranges) ([]def.Parameters, error) {
	names := sortedNames(ranges)
	if len(names) == 0 {
		return nil, nil
	}

	length := -1
	for _, name := range names {
		n := len(ranges[name])
		if n == 1 {
			continue
		}
		if length == -1 {
			length = n
		} else if length != n {
			return nil, errs.New(errs.Design,
				"pointwise design requires all non-singleton ranges to share one length: %q has %d, expected %d",
				name, n, length)
		}
	}
	if length == -1 {
		// every range was a singleton
		length = 1
	}

	points := make([]def.Parameters, length)
	for i := range points {
		points[i] = def.Parameters{}
	}
	for _, name := range names {
		r := ranges[name]
		for i := 0; i < length; i++ {
			if len(r) == 1 {
				points[i][name] = r[0]
			} else {
				points[i][name] = r[i]
			}
		}
	}
	return points, nil
}

func sortedNames(ranges Ranges) []string {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
