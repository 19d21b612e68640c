/*
Package experiment implements the lifecycle of a single computational
experiment: the capability interface {Configure, SetUp, Do, TearDown,
Deconfigure}, the timing/failure-wrapping driver that turns one Do call
into a result record, and the two required combinators, Repeat and
Summarise.

Grounded on the source `epyc.Experiment`'s two-bracket lifecycle
(configure/deconfigure around a parameter point, setUp/tearDown around
each run), restated as a small Go interface with a default Base rather
than a class hierarchy.
*/
package experiment

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/simoninireland/epyc/def"
)

// Experiment is the capability set a payload experiment implements.
// Do is the only operation without a useful default; embed Base to get
// no-op Configure/Deconfigure/SetUp/TearDown and a generic ClassName.
type Experiment interface {
	Configure(p def.Parameters) error
	Deconfigure() error
	SetUp(p def.Parameters) error
	Do(p def.Parameters) ([]def.Results, error)
	TearDown() error
	ClassName() string
}

// Runnable lets an Experiment (typically a combinator) take over the
// entire run, bypassing the standard setUp/do/tearDown timing wrap.
// Repeat and Summarise implement this because their "do" step already
// is a full sequence of timed, recorded sub-runs.
type Runnable interface {
	RunAt(p def.Parameters) ([]def.Record, error)
}

// Base supplies no-op defaults for every optional capability. Concrete
// experiments embed Base and implement Do (and ClassName, to identify
// themselves in metadata).
type Base struct{}

func (Base) Configure(def.Parameters) error { return nil }
func (Base) Deconfigure() error              { return nil }
func (Base) SetUp(def.Parameters) error      { return nil }
func (Base) TearDown() error                 { return nil }
func (Base) ClassName() string               { return "experiment" }

// Run executes e at parameter point p: e.RunAt(p) directly if e is
// Runnable, or the standard setUp(p); R=do(p); tearDown() sequence
// otherwise, with timing collected around each phase and any failure —
// a returned error or a panic escaping payload code — converted into a
// failed record rather than a returned error or a crashed process.
func Run(e Experiment, p def.Parameters) ([]def.Record, error) {
	if r, ok := e.(Runnable); ok {
		return r.RunAt(p)
	}
	return runStandard(e, p)
}

func runStandard(e Experiment, p def.Parameters) (recs []def.Record, runErr error) {
	working := p.Clone()

	var setupTime, doTime, teardownTime time.Duration
	start := time.Now()

	fail := func(err error) []def.Record {
		m := def.Metadata{
			def.MetaExperimentClass: def.NewText(e.ClassName()),
			def.MetaStatus:          def.NewBool(false),
			def.MetaException:       def.NewText(err.Error()),
			def.MetaTraceback:       def.NewText(string(debug.Stack())),
			def.MetaStartTime:       def.NewText(start.UTC().Format(time.RFC3339Nano)),
			def.MetaEndTime:         def.NewText(time.Now().UTC().Format(time.RFC3339Nano)),
			def.MetaSetupTime:       def.NewFloat(setupTime.Seconds()),
			def.MetaExperimentTime:  def.NewFloat(doTime.Seconds()),
			def.MetaTeardownTime:    def.NewFloat(teardownTime.Seconds()),
		}
		return []def.Record{{P: working.Clone(), R: def.Results{}, M: m}}
	}

	// A panic in any of SetUp/Do/TearDown — payload code this package
	// does not trust — is recovered here and folded into the same
	// failed-record shape a returned error produces, rather than
	// crashing the calling goroutine.
	defer func() {
		if r := recover(); r != nil {
			recs = fail(fmt.Errorf("panic: %v", r))
			runErr = nil
		}
	}()

	t0 := time.Now()
	if err := e.SetUp(working); err != nil {
		setupTime = time.Since(t0)
		return fail(err), nil
	}
	setupTime = time.Since(t0)

	t1 := time.Now()
	results, err := e.Do(working)
	doTime = time.Since(t1)
	if err != nil {
		return fail(err), nil
	}

	t2 := time.Now()
	if err := e.TearDown(); err != nil {
		teardownTime = time.Since(t2)
		return fail(err), nil
	}
	teardownTime = time.Since(t2)

	end := time.Now()
	base := def.Metadata{
		def.MetaExperimentClass: def.NewText(e.ClassName()),
		def.MetaStatus:          def.NewBool(true),
		def.MetaException:       def.NewText(""),
		def.MetaTraceback:       def.NewText(""),
		def.MetaStartTime:       def.NewText(start.UTC().Format(time.RFC3339Nano)),
		def.MetaEndTime:         def.NewText(end.UTC().Format(time.RFC3339Nano)),
		def.MetaSetupTime:       def.NewFloat(setupTime.Seconds()),
		def.MetaExperimentTime:  def.NewFloat(doTime.Seconds()),
		def.MetaTeardownTime:    def.NewFloat(teardownTime.Seconds()),
	}

	if len(results) == 0 {
		results = []def.Results{{}}
	}
	recs = make([]def.Record, len(results))
	for i, r := range results {
		recs[i] = def.Record{P: working.Clone(), R: r.Clone(), M: base.Clone()}
	}
	return recs, nil
}

// Instance is the per-parameter-point lifecycle holder a Lab uses to
// drive an Experiment: it tracks whether Configure has run for the
// current parameters (so repeated Run calls at the same P only pay for
// setUp/tearDown, never reconfigure) and the last record bundle
// produced.
type Instance struct {
	Exp        Experiment
	configured bool
	p          def.Parameters
	last       []def.Record
}

// NewInstance wraps e for lifecycle-driven execution.
func NewInstance(e Experiment) *Instance {
	return &Instance{Exp: e}
}

// Set replaces the instance's parameters. If parameters were previously
// set, Deconfigure runs first; Configure(p) then always runs.
func (in *Instance) Set(p def.Parameters) error {
	if in.configured {
		if err := in.Exp.Deconfigure(); err != nil {
			return err
		}
	}
	if err := in.Exp.Configure(p); err != nil {
		return err
	}
	in.p = p.Clone()
	in.configured = true
	return nil
}

// Run executes setUp(P); R=do(P); tearDown() (or a combinator's own
// RunAt) at the instance's current parameters, restarting from that P
// every call: a mutation Do or SetUp made to the previous run's P is
// never visible here.
func (in *Instance) Run() ([]def.Record, error) {
	recs, err := Run(in.Exp, in.p.Clone())
	if err != nil {
		return nil, err
	}
	in.last = recs
	return recs, nil
}

// Last returns the record bundle produced by the most recent Run.
func (in *Instance) Last() []def.Record { return in.last }

// LastRecord returns the first (and usually only) record of the most
// recent Run's bundle.
func (in *Instance) LastRecord() (def.Record, bool) {
	if len(in.last) == 0 {
		return def.Record{}, false
	}
	return in.last[0], true
}

// LastParameters, LastResults and LastMetadata expose the sub-dicts of
// LastRecord.
func (in *Instance) LastParameters() def.Parameters {
	rec, ok := in.LastRecord()
	if !ok {
		return nil
	}
	return rec.P
}

func (in *Instance) LastResults() def.Results {
	rec, ok := in.LastRecord()
	if !ok {
		return nil
	}
	return rec.R
}

func (in *Instance) LastMetadata() def.Metadata {
	rec, ok := in.LastRecord()
	if !ok {
		return nil
	}
	return rec.M
}
