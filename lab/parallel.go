package lab

import (
	"runtime"

	"github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/experiment"
	"github.com/simoninireland/epyc/notebook"
)

// Parallel runs a design's points across a bounded pool of K workers,
// blocking the caller until every point has completed. Workers see
// only a point's Parameters in and its Records out — never the lab's
// own state — but all of them call Run on the same Experiment value in
// one process, so state the experiment keeps in itself is shared
// between concurrent runs; see DESIGN.md for why isolation is handled
// at the data-flow level here rather than via separate OS processes.
//
// K defaults to max(1, cores-1), capped at the host's core count.
type Parallel struct {
	Base
	Workers int
}

// DefaultWorkers returns max(1, cores-1).
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 0 {
		return n
	}
	return 1
}

func NewParallel(nb *notebook.Notebook) *Parallel {
	return &Parallel{
		Base:    NewBase(nb, log15.New("lab", "parallel")),
		Workers: DefaultWorkers(),
	}
}

func (l *Parallel) CreateWith(tag string, ctor func(l Lab) error, description string, lockAfter, resetBefore bool) error {
	return CreateWith(l, tag, ctor, description, lockAfter, resetBefore)
}

// RunExperiment dispatches e across the worker pool. Individual run
// failures become failed records (via experiment.Run's own recovery)
// and never abort the pool; only a genuine infrastructure error (e.g.
// failing to append to the notebook) is returned.
func (l *Parallel) RunExperiment(e experiment.Experiment) error {
	points, err := l.Experiments()
	if err != nil {
		return err
	}

	workers := l.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if cores := runtime.NumCPU(); workers > cores {
		workers = cores
	}

	results := make(chan []def.Record, len(points))

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, p := range points {
		p := p
		g.Go(func() error {
			recs, err := experiment.Run(e, p)
			if err != nil {
				return err
			}
			results <- recs
			return nil
		})
	}

	runErr := g.Wait()
	close(results)

	// Records are drained and appended after the pool join, in
	// completion order — the notebook does not depend on P-order for
	// the parallel lab.
	for recs := range results {
		for _, rec := range recs {
			if err := l.NB.AddResult(rec); err != nil {
				return err
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	return l.NB.Commit()
}
