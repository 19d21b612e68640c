package def

import (
	"reflect"

	"github.com/simoninireland/epyc/lib/guid"
)

// Parameters is a finite mapping from parameter name to a scalar or
// one-dimensional-array Value: the P of a result record.
type Parameters map[string]Value

// Clone returns a shallow copy of p (Values are immutable, so a shallow
// copy is a full copy).
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Matches reports whether p contains every key/value pair in partial:
// the predicate behind ResultSet.RecordsFor and Lab range restriction.
func (p Parameters) Matches(partial Parameters) bool {
	for k, want := range partial {
		got, ok := p[k]
		if !ok || got.kind != want.kind || !sameScalar(got, want) {
			return false
		}
	}
	return true
}

func sameScalar(a, b Value) bool {
	switch a.kind {
	case Int:
		x, _ := a.Int()
		y, _ := b.Int()
		return x == y
	case Float:
		x, _ := a.Float()
		y, _ := b.Float()
		return x == y
	case Complex:
		x, _ := a.Complex()
		y, _ := b.Complex()
		return x == y
	case Bool:
		x, _ := a.Bool()
		y, _ := b.Bool()
		return x == y
	case Text:
		x, _ := a.Text()
		y, _ := b.Text()
		return x == y
	default:
		return reflect.DeepEqual(a.array, b.array)
	}
}

// Results is the R of a result record: same shape rules as Parameters,
// but keys and kinds are not fixed a priori.
type Results map[string]Value

func (r Results) Clone() Results {
	out := make(Results, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Metadata fixed keys every record carries. Additional keys are
// permitted alongside these.
const (
	MetaStatus         = "status"
	MetaException      = "exception"
	MetaTraceback      = "traceback"
	MetaStartTime      = "start_time"
	MetaEndTime        = "end_time"
	MetaSetupTime      = "setup_time"
	MetaExperimentTime = "experiment_time"
	MetaTeardownTime   = "teardown_time"
	MetaExperimentClass = "experiment_class"
)

// Metadata is the M of a result record: a mapping guaranteed to carry
// at least the fixed keys above.
type Metadata map[string]Value

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Succeeded reports whether the metadata's status field is true.
func (m Metadata) Succeeded() bool {
	b, _ := m[MetaStatus].Bool()
	return b
}

// Record is the (P, R, M) triple produced by one experiment invocation.
type Record struct {
	P Parameters
	R Results
	M Metadata
}

// Clone returns a deep-enough copy of rec (component maps copied, Values
// shared since they're immutable).
func (rec Record) Clone() Record {
	return Record{P: rec.P.Clone(), R: rec.R.Clone(), M: rec.M.Clone()}
}

// PendingRecord is a (P, job_id) pair awaiting async resolution.
type PendingRecord struct {
	P     Parameters
	JobID guid.JobID
}
