package experiment

import (
	"math"
	"sort"
	"time"

	"github.com/simoninireland/epyc/def"
)

// Underlying-count field names Summarise emits alongside every summary
// statistic.
const (
	MetaUnderlyingResults           = "underlying_results"
	MetaUnderlyingSuccessfulResults = "underlying_successful_results"
)

// Summarise is a combinator that runs an inner experiment (typically a
// Repeat) once, discards failed sub-records unless KeepOnFailure is
// set, and reduces every named result field across the surviving
// sub-records to mean/median/variance/min/max, emitted with those
// stable suffixes, plus the surviving and total sub-record counts.
type Summarise struct {
	Base
	Inner         Experiment
	Fields        []string
	KeepOnFailure bool
}

// NewSummarise returns a Summarise combinator over the named result
// fields of inner's sub-records.
func NewSummarise(inner Experiment, fields []string) *Summarise {
	return &Summarise{Inner: inner, Fields: append([]string(nil), fields...)}
}

func (s *Summarise) ClassName() string { return "Summarise(" + s.Inner.ClassName() + ")" }

func (s *Summarise) Configure(p def.Parameters) error { return s.Inner.Configure(p) }
func (s *Summarise) Deconfigure() error                { return s.Inner.Deconfigure() }

// Do is never called: RunAt takes over the whole run for this combinator.
func (s *Summarise) Do(def.Parameters) ([]def.Results, error) { return nil, nil }

func (s *Summarise) RunAt(p def.Parameters) ([]def.Record, error) {
	start := time.Now()

	recs, err := Run(s.Inner, p)
	if err != nil {
		return nil, err
	}

	selected := recs
	if !s.KeepOnFailure {
		selected = successfulOnly(recs)
	}

	results := def.Results{}
	for _, field := range s.Fields {
		vals := extractFloats(selected, field)
		if len(vals) == 0 {
			continue
		}
		mean, median, variance, min, max := summaryStats(vals)
		results[field+"_mean"] = def.NewFloat(mean)
		results[field+"_median"] = def.NewFloat(median)
		results[field+"_variance"] = def.NewFloat(variance)
		results[field+"_min"] = def.NewFloat(min)
		results[field+"_max"] = def.NewFloat(max)
	}
	results[MetaUnderlyingResults] = def.NewInt(int64(len(recs)))
	results[MetaUnderlyingSuccessfulResults] = def.NewInt(int64(len(selected)))

	end := time.Now()
	status := len(selected) > 0
	m := def.Metadata{
		def.MetaExperimentClass: def.NewText(s.ClassName()),
		def.MetaStatus:          def.NewBool(status),
		def.MetaTraceback:       def.NewText(""),
		def.MetaStartTime:       def.NewText(start.UTC().Format(time.RFC3339Nano)),
		def.MetaEndTime:         def.NewText(end.UTC().Format(time.RFC3339Nano)),
		def.MetaSetupTime:       def.NewFloat(0),
		def.MetaExperimentTime:  def.NewFloat(end.Sub(start).Seconds()),
		def.MetaTeardownTime:    def.NewFloat(0),
	}
	if status {
		m[def.MetaException] = def.NewText("")
	} else {
		m[def.MetaException] = def.NewText("no successful sub-records to summarise")
	}

	return []def.Record{{P: p.Clone(), R: results, M: m}}, nil
}

func successfulOnly(recs []def.Record) []def.Record {
	out := make([]def.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.M.Succeeded() {
			out = append(out, rec)
		}
	}
	return out
}

func extractFloats(recs []def.Record, field string) []float64 {
	out := make([]float64, 0, len(recs))
	for _, rec := range recs {
		v, ok := rec.R[field]
		if !ok {
			continue
		}
		switch v.Kind() {
		case def.Float:
			f, _ := v.Float()
			out = append(out, f)
		case def.Int:
			i, _ := v.Int()
			out = append(out, float64(i))
		}
	}
	return out
}

func summaryStats(vals []float64) (mean, median, variance, min, max float64) {
	n := float64(len(vals))
	min, max = vals[0], vals[0]
	sum := 0.0
	for _, v := range vals {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean = sum / n

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	variance = sq / n
	if math.IsNaN(variance) {
		variance = 0
	}
	return
}
