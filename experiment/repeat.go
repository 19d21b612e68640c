package experiment

import "github.com/simoninireland/epyc/def"

// MetaRepetitions and MetaRepetitionIndex are the metadata keys Repeat
// stamps onto every record of the bundle it produces.
const (
	MetaRepetitions     = "repetitions"
	MetaRepetitionIndex = "repetition_index"
)

// Repeat is a combinator that runs an inner experiment N times at the
// same parameter point and returns the flattened, ordered bundle of
// every sub-run's records, each tagged with how many repetitions were
// requested and its position within the bundle.
//
// Repeat delegates Configure/Deconfigure to the inner experiment and
// takes over the run entirely via RunAt, since each repetition needs
// its own independent setUp/do/tearDown timing rather than one shared
// wrap.
type Repeat struct {
	Base
	Inner Experiment
	N     int
}

// NewRepeat returns a Repeat combinator running inner N times.
func NewRepeat(inner Experiment, n int) *Repeat {
	return &Repeat{Inner: inner, N: n}
}

func (r *Repeat) ClassName() string { return "Repeat(" + r.Inner.ClassName() + ")" }

func (r *Repeat) Configure(p def.Parameters) error { return r.Inner.Configure(p) }
func (r *Repeat) Deconfigure() error                { return r.Inner.Deconfigure() }

// Do is never called: RunAt takes over the whole run for this combinator.
func (r *Repeat) Do(def.Parameters) ([]def.Results, error) { return nil, nil }

func (r *Repeat) RunAt(p def.Parameters) ([]def.Record, error) {
	var all []def.Record
	for i := 0; i < r.N; i++ {
		recs, err := Run(r.Inner, p)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}

	out := make([]def.Record, len(all))
	for idx, rec := range all {
		m := rec.M.Clone()
		m[MetaRepetitions] = def.NewInt(int64(r.N))
		m[MetaRepetitionIndex] = def.NewInt(int64(idx))
		out[idx] = def.Record{P: rec.P, R: rec.R, M: m}
	}
	return out, nil
}
