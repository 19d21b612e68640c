package lab

import (
	"time"

	"github.com/inconshreveable/log15"
	"go.polydawn.net/meep"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/experiment"
	"github.com/simoninireland/epyc/farm"
	"github.com/simoninireland/epyc/lib/guid"
	"github.com/simoninireland/epyc/notebook"
)

// submission records the tag a point was submitted under, so a
// completed job is always written into its submit-time result set —
// never whichever tag happens to be current when it resolves, together
// with the notebook's job id for the point's pending record.
type submission struct {
	tag     string
	p       def.Parameters
	pending guid.JobID
}

// Cluster is the async remote dispatcher: RunExperiment submits every
// point to a farm.Farm and returns immediately, leaving one pending
// record per point. Later calls to UpdateResults poll the farm and
// fold completed, failed or cancelled jobs back into their owning
// result sets.
type Cluster struct {
	Base
	Farm         farm.Farm
	Reconnect    ReconnectPolicy
	PollInterval time.Duration

	outstanding map[guid.JobID]submission // farm job id -> submit-time (tag, P, pending id)
}

func NewCluster(nb *notebook.Notebook, f farm.Farm) *Cluster {
	return &Cluster{
		Base:         NewBase(nb, log15.New("lab", "cluster")),
		Farm:         f,
		Reconnect:    DefaultReconnectPolicy(),
		PollInterval: time.Second,
		outstanding:  make(map[guid.JobID]submission),
	}
}

func (l *Cluster) CreateWith(tag string, ctor func(l Lab) error, description string, lockAfter, resetBefore bool) error {
	return CreateWith(l, tag, ctor, description, lockAfter, resetBefore)
}

// isTransient treats a Dispatch-categorised error as a candidate for
// reconnection with retry; anything else is terminal.
func isTransient(err error) bool {
	return errs.Category(err) == errs.Dispatch
}

// RunExperiment submits one task per design point and returns as soon
// as every submission is registered pending; it never waits for
// completion.
func (l *Cluster) RunExperiment(e experiment.Experiment) error {
	points, err := l.Experiments()
	if err != nil {
		return err
	}

	tag := l.NB.CurrentTag()
	for _, p := range points {
		var jobID guid.JobID
		err := l.Reconnect.retry(isTransient, func() error {
			id, err := l.Farm.Submit(e, p)
			if err == nil {
				jobID = id
			}
			return err
		})
		if err != nil {
			return err
		}

		pendingID, err := l.NB.AddPending(p)
		if err != nil {
			return err
		}
		l.outstanding[jobID] = submission{tag: tag, p: p, pending: pendingID}
	}
	return l.NB.Commit()
}

// UpdateResults polls the farm, draining every job that has reached a
// terminal state, converting each into a real record in its
// submit-time tag, and committing the notebook. A panic escaping a
// misbehaving Farm implementation is recovered and reported as a
// Dispatch error rather than crashing the lab.
func (l *Cluster) UpdateResults() error {
	var outcomes []farm.Outcome
	var pollErr error
	panicVal := meep.RecoverPanics(func() {
		pollErr = l.Reconnect.retry(isTransient, func() error {
			var e error
			outcomes, e = l.Farm.PullReady()
			return e
		})
	})
	if panicVal != nil {
		return errs.New(errs.Dispatch, "farm poll panicked: %s", panicVal)
	}
	if pollErr != nil {
		return pollErr
	}

	for _, o := range outcomes {
		sub, ok := l.outstanding[o.JobID]
		if !ok {
			continue // already resolved/cancelled from another path
		}

		recs := outcomeRecords(sub.p, o)

		curTag := l.NB.CurrentTag()
		if err := l.NB.Select(sub.tag); err != nil {
			return err
		}
		err := l.NB.ResolvePending(sub.pending, recs[0])
		for _, extra := range recs[1:] {
			if err == nil {
				err = l.NB.AddResult(extra)
			}
		}
		_ = l.NB.Select(curTag)
		if err != nil {
			return err
		}
		delete(l.outstanding, o.JobID)
	}
	return l.NB.Commit()
}

// outcomeRecords converts a terminal farm.Outcome into the record(s) it
// contributes to the notebook. Completed jobs contribute their own
// records unchanged; failed and cancelled jobs synthesize a single
// failed record carrying the farm's error as the exception text.
func outcomeRecords(p def.Parameters, o farm.Outcome) []def.Record {
	if o.Status == farm.Completed && len(o.Recs) > 0 {
		return o.Recs
	}
	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	} else if o.Status == farm.Cancelled {
		msg = string(errs.Cancelled)
	}
	return []def.Record{{
		P: p.Clone(),
		R: def.Results{},
		M: def.Metadata{
			def.MetaStatus:          def.NewBool(false),
			def.MetaException:       def.NewText(msg),
			def.MetaTraceback:       def.NewText(""),
			def.MetaStartTime:       def.NewText(""),
			def.MetaEndTime:         def.NewText(""),
			def.MetaSetupTime:       def.NewFloat(0),
			def.MetaExperimentTime:  def.NewFloat(0),
			def.MetaTeardownTime:    def.NewFloat(0),
			def.MetaExperimentClass: def.NewText(""),
		},
	}}
}

// ReadyFraction reports the fraction of points submitted under the
// currently selected tag that have resolved.
func (l *Cluster) ReadyFraction() float64 {
	rs := l.NB.Current()
	if rs == nil {
		return 1
	}
	return rs.ReadyFraction()
}

// Ready reports whether the currently selected set has no pending
// records outstanding.
func (l *Cluster) Ready() bool {
	rs := l.NB.Current()
	return rs == nil || rs.Ready()
}

// Wait polls UpdateResults with the configured interval until Ready()
// or timeout elapses, returning the last update error if any, or a
// Dispatch error on timeout.
func (l *Cluster) Wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := l.UpdateResults(); err != nil {
			return err
		}
		if l.Ready() {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.New(errs.Dispatch, "timed out after %s waiting for pending results", timeout)
		}
		time.Sleep(l.PollInterval)
	}
}

// CancelPendingResultsFor cancels every outstanding job on the current
// set matching partial, best-effort on the farm and always locally.
func (l *Cluster) CancelPendingResultsFor(partial def.Parameters) error {
	rs := l.NB.Current()
	if rs == nil {
		return nil
	}
	for _, id := range rs.PendingResultsFor(partial) {
		for farmID, sub := range l.outstanding {
			if sub.pending != id {
				continue
			}
			if _, err := l.Farm.Cancel(farmID); err != nil {
				return err
			}
			delete(l.outstanding, farmID)
		}
		if _, err := l.NB.CancelPending(id); err != nil {
			return err
		}
	}
	return nil
}

// CancelAllPendingResults cancels every outstanding job across the
// whole notebook and locks it, matching the result set's finish semantics.
func (l *Cluster) CancelAllPendingResults() error {
	for jobID := range l.outstanding {
		if _, err := l.Farm.Cancel(jobID); err != nil {
			return err
		}
	}
	l.outstanding = make(map[guid.JobID]submission)
	return l.NB.Finish()
}
