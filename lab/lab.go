/*
Package lab implements epyc's three dispatcher variants over a common
range/design/notebook contract: a sequential single-threaded lab, a
parallel lab running a bounded pool of goroutines in the calling
process (not separate OS processes), and an async cluster lab backed
by the abstract worker-farm in package farm.

Grounded on the source `epyc.Lab` hierarchy; restated as one shared
struct (Base) embedded by each dispatcher, sharing range/design/notebook
scaffolding across the three dispatch strategies.
*/
package lab

import (
	"github.com/inconshreveable/log15"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/design"
	"github.com/simoninireland/epyc/experiment"
	"github.com/simoninireland/epyc/notebook"
)

// Lab is the contract every dispatcher satisfies.
type Lab interface {
	Set(name string, v def.Value)
	SetRange(name string, r design.Range)
	Del(name string)
	Clear()
	Experiments() ([]def.Parameters, error)
	RunExperiment(e experiment.Experiment) error
	Notebook() *notebook.Notebook
	CreateWith(tag string, ctor func(l Lab) error, description string, lockAfter, resetBefore bool) error
}

// Base holds the range mapping, design and notebook shared by every
// dispatcher. Embed it and implement Experiments/RunExperiment on top.
type Base struct {
	Log    log15.Logger
	NB     *notebook.Notebook
	Design design.Design
	ranges design.Ranges
}

// NewBase returns a Base wired to nb, defaulting to a Factorial design.
func NewBase(nb *notebook.Notebook, log log15.Logger) Base {
	return Base{
		Log:    log,
		NB:     nb,
		Design: design.Factorial{},
		ranges: make(design.Ranges),
	}
}

func (b *Base) Notebook() *notebook.Notebook { return b.NB }

// Set fixes a singleton range for name.
func (b *Base) Set(name string, v def.Value) {
	b.ranges[name] = design.Range{v}
}

// SetRange installs an ordered finite sequence of values for name.
func (b *Base) SetRange(name string, r design.Range) {
	b.ranges[name] = r
}

// Del removes a range.
func (b *Base) Del(name string) {
	delete(b.ranges, name)
}

// Clear removes every range.
func (b *Base) Clear() {
	b.ranges = make(design.Ranges)
}

// Experiments applies the chosen design to the current ranges.
func (b *Base) Experiments() ([]def.Parameters, error) {
	return b.Design.Space(b.ranges)
}

// CreateWith is the compute-or-reuse idempotent set construction:
// select tag if it already exists; otherwise create
// it, select it, optionally clear the ranges, run ctor, and on success
// optionally lock the set. A ctor failure deletes the partially-filled
// set and propagates the error.
func CreateWith(l Lab, tag string, ctor func(l Lab) error, description string, lockAfter, resetBefore bool) error {
	nb := l.Notebook()
	existed, err := nb.Already(tag, description)
	if err != nil {
		return err
	}
	if existed {
		return nil
	}

	if resetBefore {
		l.Clear()
	}

	if err := ctor(l); err != nil {
		_ = nb.DeleteResultSet(tag)
		return err
	}

	if lockAfter {
		if rs, ok := nb.ResultSet(tag); ok {
			if ferr := rs.Finish(); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}
