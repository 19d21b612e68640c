package lab

import (
	"github.com/inconshreveable/log15"

	"github.com/simoninireland/epyc/experiment"
	"github.com/simoninireland/epyc/notebook"
)

// Sequential runs every design point on the calling goroutine, in
// design order, adding each point's record(s) to the notebook as they
// complete. No suspension, no concurrency: the straightforward
// reference dispatcher against which the parallel and cluster labs are
// checked for record-content equivalence.
type Sequential struct {
	Base
}

func NewSequential(nb *notebook.Notebook) *Sequential {
	return &Sequential{Base: NewBase(nb, log15.New("lab", "sequential"))}
}

func (l *Sequential) CreateWith(tag string, ctor func(l Lab) error, description string, lockAfter, resetBefore bool) error {
	return CreateWith(l, tag, ctor, description, lockAfter, resetBefore)
}

// RunExperiment runs e at every point of the current design, in
// design order, appending the resulting record(s) to the notebook's
// current set as each point finishes.
func (l *Sequential) RunExperiment(e experiment.Experiment) error {
	points, err := l.Experiments()
	if err != nil {
		return err
	}

	inst := experiment.NewInstance(e)
	for _, p := range points {
		if err := inst.Set(p); err != nil {
			return err
		}
		recs, err := inst.Run()
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := l.NB.AddResult(rec); err != nil {
				return err
			}
		}
	}
	return l.NB.Commit()
}
