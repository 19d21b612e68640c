/*
Package resultset implements epyc's typed, append-only result store: a
homogeneous collection of result records sharing a schema inferred and
promoted as records arrive, a parallel collection of pending records
awaiting async resolution, and a lock that makes both permanently
immutable.

A ResultSet does not know about notebooks or tags; it is a leaf value
type that a Notebook owns one or more of. Grounded on the append/ready/
schema-promotion machinery of the source `epyc.ResultSet`, restated as
an explicit schema rather than inferred dtypes.
*/
package resultset

import (
	"fmt"
	"sync"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/lib/guid"
)

// metaJobID is an internal metadata key stamped onto a record produced
// by resolving a pending result, so that AddRecord can find and remove
// the matching pending entry without the caller having to do it by hand.
const metaJobID = "_job_id"

// ResultSet is a typed, append-only store of result records plus a
// parallel store of pending records, for one homogeneous experiment
// family.
type ResultSet struct {
	mu sync.RWMutex

	description string
	locked      bool
	attributes  map[string]string

	records []def.Record
	pending []def.PendingRecord

	schemaReal    *def.Schema
	schemaPending *def.Schema
	paramNames    map[string]bool

	dirty       bool
	typeChanged bool
}

// New returns an empty, unlocked result set with the given description.
func New(description string) *ResultSet {
	return &ResultSet{
		description:   description,
		attributes:    make(map[string]string),
		schemaReal:    def.NewSchema(),
		schemaPending: def.NewSchema(),
		paramNames:    make(map[string]bool),
	}
}

func (rs *ResultSet) Description() string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.description
}

func (rs *ResultSet) Locked() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.locked
}

// Attribute returns a free-form attribute and whether it is set.
func (rs *ResultSet) Attribute(name string) (string, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	v, ok := rs.attributes[name]
	return v, ok
}

// SetAttribute sets a free-form name->text attribute. Refused once
// locked.
func (rs *ResultSet) SetAttribute(name, value string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.locked {
		return errs.New(errs.ResultSetLocked, "cannot set attribute %q: result set is locked", name)
	}
	rs.attributes[name] = value
	rs.dirty = true
	return nil
}

// Attributes returns a copy of all free-form attributes.
func (rs *ResultSet) Attributes() map[string]string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string]string, len(rs.attributes))
	for k, v := range rs.attributes {
		out[k] = v
	}
	return out
}

// SchemaReal returns the inferred schema of P∪R∪M.
func (rs *ResultSet) SchemaReal() *def.Schema {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.schemaReal.Clone()
}

// SchemaPending returns the inferred schema of P alone, for pending
// records.
func (rs *ResultSet) SchemaPending() *def.Schema {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.schemaPending.Clone()
}

// Dirty reports whether changes are unsaved.
func (rs *ResultSet) Dirty() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.dirty
}

// ClearDirty marks the set as saved. Persistence backends call this
// after a successful flush.
func (rs *ResultSet) ClearDirty() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.dirty = false
}

// TypeChanged reports whether the last mutation widened the real
// schema, a signal persistence backends consult to decide whether a
// columnar file's dataset needs recreating.
func (rs *ResultSet) TypeChanged() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.typeChanged
}

// ClearTypeChanged resets the type-changed flag after persistence has
// accounted for it.
func (rs *ResultSet) ClearTypeChanged() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.typeChanged = false
}

// AddRecord appends one record, inferring and promoting the schema and
// resolving any matching pending entry. Refused once locked.
func (rs *ResultSet) AddRecord(rec def.Record) error {
	return rs.AddRecords([]def.Record{rec})
}

// AddRecords appends an ordered list of records as one atomic batch
// (the shape a Repeat-style experiment returns).
func (rs *ResultSet) AddRecords(recs []def.Record) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.locked {
		return errs.New(errs.ResultSetLocked, "cannot add records: result set is locked")
	}

	for _, rec := range recs {
		rs.observeRecordLocked(rec)
		rs.records = append(rs.records, rec.Clone())
		if jobID, ok := rec.M[metaJobID]; ok {
			if text, ok := jobID.Text(); ok {
				rs.removePendingLocked(guid.JobID(text))
			}
		}
	}
	rs.dirty = true
	return nil
}

func (rs *ResultSet) observeRecordLocked(rec def.Record) {
	observe := func(m map[string]def.Value) {
		for name, v := range m {
			if name == metaJobID {
				continue
			}
			if rs.schemaReal.Observe(name, v.Kind()) {
				rs.typeChanged = true
			}
		}
	}
	for name := range rec.P {
		rs.paramNames[name] = true
	}
	observe(rec.P)
	observe(rec.R)
	observe(rec.M)
}

// AddPending registers a parameter point as dispatched-but-unresolved,
// returning a fresh job id. Refused once locked.
func (rs *ResultSet) AddPending(p def.Parameters) (guid.JobID, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.locked {
		return "", errs.New(errs.ResultSetLocked, "cannot add pending result: result set is locked")
	}

	for name, v := range p {
		rs.schemaPending.Observe(name, v.Kind())
		rs.paramNames[name] = true
	}

	id := guid.NewJobID()
	rs.pending = append(rs.pending, def.PendingRecord{P: p.Clone(), JobID: id})
	rs.dirty = true
	return id, nil
}

// ResolvePending converts a pending record into a real one, removing
// the pending entry. Returns errs.PendingResult if jobID is unknown.
func (rs *ResultSet) ResolvePending(jobID guid.JobID, rec def.Record) error {
	rs.mu.Lock()
	if rs.locked {
		rs.mu.Unlock()
		return errs.New(errs.ResultSetLocked, "cannot resolve pending result %q: result set is locked", jobID)
	}
	if !rs.hasPendingLocked(jobID) {
		rs.mu.Unlock()
		return errs.New(errs.PendingResult, "unknown job id %q", jobID)
	}
	rs.mu.Unlock()

	tagged := rec.Clone()
	if tagged.M == nil {
		tagged.M = def.Metadata{}
	}
	tagged.M[metaJobID] = def.NewText(string(jobID))
	return rs.AddRecord(tagged)
}

// CancelPending cancels a pending record, producing a synthetic failed
// result record (status=false, a cancellation exception) and removing
// the pending entry. It is idempotent: cancelling an already-resolved
// or unknown job id is a no-op returning false.
func (rs *ResultSet) CancelPending(jobID guid.JobID) (bool, error) {
	rs.mu.Lock()
	if rs.locked {
		rs.mu.Unlock()
		return false, errs.New(errs.ResultSetLocked, "cannot cancel pending result %q: result set is locked", jobID)
	}
	p, ok := rs.findPendingLocked(jobID)
	rs.mu.Unlock()
	if !ok {
		return false, nil
	}

	rec := cancelledRecord(p)
	rec.M[metaJobID] = def.NewText(string(jobID))
	if err := rs.AddRecord(rec); err != nil {
		return false, err
	}
	return true, nil
}

func cancelledRecord(p def.Parameters) def.Record {
	return def.Record{
		P: p.Clone(),
		R: def.Results{},
		M: def.Metadata{
			def.MetaStatus:          def.NewBool(false),
			def.MetaException:       def.NewText(string(errs.Cancelled)),
			def.MetaTraceback:       def.NewText(""),
			def.MetaStartTime:       def.NewText(""),
			def.MetaEndTime:         def.NewText(""),
			def.MetaSetupTime:       def.NewFloat(0),
			def.MetaExperimentTime:  def.NewFloat(0),
			def.MetaTeardownTime:    def.NewFloat(0),
			def.MetaExperimentClass: def.NewText(""),
		},
	}
}

func (rs *ResultSet) hasPendingLocked(jobID guid.JobID) bool {
	_, ok := rs.findPendingLocked(jobID)
	return ok
}

func (rs *ResultSet) findPendingLocked(jobID guid.JobID) (def.Parameters, bool) {
	for _, pr := range rs.pending {
		if pr.JobID == jobID {
			return pr.P, true
		}
	}
	return nil, false
}

// removePendingLocked deletes the pending entry for jobID, if any. The
// caller must hold rs.mu.
func (rs *ResultSet) removePendingLocked(jobID guid.JobID) {
	for i, pr := range rs.pending {
		if pr.JobID == jobID {
			rs.pending = append(rs.pending[:i], rs.pending[i+1:]...)
			return
		}
	}
}

// Records returns every real record, backfilled and promoted to the
// current schema.
func (rs *ResultSet) Records() []def.Record {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]def.Record, len(rs.records))
	for i, rec := range rs.records {
		out[i] = rs.presentLocked(rec)
	}
	return out
}

// RecordsFor returns the real records whose P is a superset of partial.
func (rs *ResultSet) RecordsFor(partial def.Parameters) []def.Record {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []def.Record
	for _, rec := range rs.records {
		if rec.P.Matches(partial) {
			out = append(out, rs.presentLocked(rec))
		}
	}
	return out
}

func (rs *ResultSet) presentLocked(rec def.Record) def.Record {
	merged := make(map[string]def.Value, len(rec.P)+len(rec.R)+len(rec.M))
	for k, v := range rec.P {
		merged[k] = v
	}
	for k, v := range rec.R {
		merged[k] = v
	}
	for k, v := range rec.M {
		if k == metaJobID {
			continue
		}
		merged[k] = v
	}
	filled := rs.schemaReal.Backfill(merged)

	out := def.Record{P: def.Parameters{}, R: def.Results{}, M: def.Metadata{}}
	for k := range rec.P {
		out.P[k] = filled[k]
	}
	for k := range rec.R {
		out.R[k] = filled[k]
	}
	for name, kind := range schemaKinds(rs.schemaReal) {
		if _, isP := rec.P[name]; isP {
			continue
		}
		if _, isR := rec.R[name]; isR {
			continue
		}
		_ = kind
		if name == metaJobID {
			continue
		}
		out.M[name] = filled[name]
	}
	return out
}

func schemaKinds(s *def.Schema) map[string]def.Kind {
	out := make(map[string]def.Kind)
	for _, f := range s.Fields() {
		out[f.Name] = f.Kind
	}
	return out
}

// ParameterRange returns the distinct observed values for a parameter
// name, in first-seen order.
func (rs *ResultSet) ParameterRange(name string) []def.Value {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []def.Value
	seen := make(map[string]bool)
	for _, rec := range rs.records {
		v, ok := rec.P[name]
		if !ok {
			continue
		}
		key := fmt.Sprintf("%v", def.CoerceToText(v))
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

// ParameterCombinations returns the distinct observed P-tuples, in
// first-seen order. The source left this unimplemented; here it is a
// straightforward distinct-by-value-tuple scan, keyed on the set of
// parameter names actually present on each record.
func (rs *ResultSet) ParameterCombinations() []def.Parameters {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []def.Parameters
	seen := make(map[string]bool)
	for _, rec := range rs.records {
		key := parameterKey(rec.P)
		if !seen[key] {
			seen[key] = true
			out = append(out, rec.P.Clone())
		}
	}
	return out
}

// ParameterSpace returns, for every parameter name ever observed (via a
// real or pending record), the distinct values it has taken — the set
// of points that could be explored, as distinct from
// ParameterCombinations' set of P-tuples actually observed together.
func (rs *ResultSet) ParameterSpace() map[string][]def.Value {
	rs.mu.RLock()
	names := make([]string, 0, len(rs.paramNames))
	for name := range rs.paramNames {
		names = append(names, name)
	}
	rs.mu.RUnlock()
	sortStrings(names)

	out := make(map[string][]def.Value, len(names))
	for _, name := range names {
		out[name] = rs.ParameterRange(name)
	}
	return out
}

func parameterKey(p def.Parameters) string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sortStrings(names)
	s := ""
	for _, n := range names {
		text, _ := def.CoerceToText(p[n]).Text()
		s += n + "=" + text + ";"
	}
	return s
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// Restore rebuilds a ResultSet from previously-persisted state, bypassing
// the lock checks and fresh-job-id issuance normal mutation goes through.
// It exists only for notebook persistence backends loading from disk;
// ordinary callers should never need it.
func Restore(description string, locked bool, attributes map[string]string, records []def.Record, pending []def.PendingRecord) *ResultSet {
	rs := New(description)
	for k, v := range attributes {
		rs.attributes[k] = v
	}
	for _, rec := range records {
		rs.observeRecordLocked(rec)
		rs.records = append(rs.records, rec.Clone())
	}
	for _, p := range pending {
		for name, v := range p.P {
			rs.schemaPending.Observe(name, v.Kind())
			rs.paramNames[name] = true
		}
		rs.pending = append(rs.pending, def.PendingRecord{P: p.P.Clone(), JobID: p.JobID})
	}
	rs.locked = locked
	rs.dirty = false
	rs.typeChanged = false
	return rs
}

// NumberOfResults returns |records|.
func (rs *ResultSet) NumberOfResults() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.records)
}

// NumberOfPendingResults returns |pending|.
func (rs *ResultSet) NumberOfPendingResults() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.pending)
}

// PendingResults returns the job ids of every outstanding pending
// record.
func (rs *ResultSet) PendingResults() []guid.JobID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]guid.JobID, len(rs.pending))
	for i, pr := range rs.pending {
		out[i] = pr.JobID
	}
	return out
}

// Pending returns every outstanding pending record, cloned. Used by
// persistence backends to serialize pending state.
func (rs *ResultSet) Pending() []def.PendingRecord {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]def.PendingRecord, len(rs.pending))
	for i, pr := range rs.pending {
		out[i] = def.PendingRecord{P: pr.P.Clone(), JobID: pr.JobID}
	}
	return out
}

// PendingResultsFor returns the job ids pending for experiments whose P
// matches the given subset.
func (rs *ResultSet) PendingResultsFor(partial def.Parameters) []guid.JobID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []guid.JobID
	for _, pr := range rs.pending {
		if pr.P.Matches(partial) {
			out = append(out, pr.JobID)
		}
	}
	return out
}

// Ready reports whether no pending records remain.
func (rs *ResultSet) Ready() bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.pending) == 0
}

// ReadyFraction reports |real| / (|real| + |pending|), defined as 1
// when both are zero.
func (rs *ResultSet) ReadyFraction() float64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	real, pend := len(rs.records), len(rs.pending)
	if real+pend == 0 {
		return 1
	}
	return float64(real) / float64(real+pend)
}

// Finish cancels every pending record and locks the set. Locking is
// monotone: once locked, stays locked, and every subsequent mutating
// call is refused with errs.ResultSetLocked.
func (rs *ResultSet) Finish() error {
	rs.mu.Lock()
	if rs.locked {
		rs.mu.Unlock()
		return nil
	}
	ids := make([]guid.JobID, len(rs.pending))
	for i, pr := range rs.pending {
		ids[i] = pr.JobID
	}
	rs.mu.Unlock()

	for _, id := range ids {
		if _, err := rs.CancelPending(id); err != nil {
			return err
		}
	}

	rs.mu.Lock()
	rs.locked = true
	rs.dirty = true
	rs.mu.Unlock()
	return nil
}
