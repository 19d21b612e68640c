/*
Package notebook implements epyc's transactional container of named
result sets: tag-addressed selection of a current set, cross-set
pending-record bookkeeping (job ids are unique notebook-wide, not just
per set), crash-safe commit to a persistence backend, and the
"compute-or-reuse" idempotent construction of sets.

Grounded on the source `epyc.LabNotebook`, restated with an explicit
Backend interface in place of the source's notebook subclass hierarchy.
*/
package notebook

import (
	"sync"

	"github.com/inconshreveable/log15"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/lib/guid"
	"github.com/simoninireland/epyc/resultset"
)

// DefaultTag names the result set every new notebook starts with.
const DefaultTag = "default"

// FormatVersion is the on-disk notebook format version this
// implementation writes. Version 1 (a flat, untagged JSON notebook) is
// still readable; it is always migrated to version 2 on load.
const FormatVersion = 2

// Backend persists a Notebook's state. Load and Save both work
// directly against a *Notebook's public surface; only notebook package
// code needs to reach into a result set's persisted internals, via
// resultset.Restore.
type Backend interface {
	Load() (*Notebook, error)
	Save(nb *Notebook) error
}

// Notebook is a named, tagged collection of result sets.
type Notebook struct {
	mu sync.RWMutex

	name        string
	description string
	attributes  map[string]string

	tags    []string
	sets    map[string]*resultset.ResultSet
	current string

	// jobTag tracks, for every outstanding pending record, which tag's
	// result set owns it: job ids are unique across the whole notebook,
	// so resolving/cancelling by job id alone must find the right set
	// without the caller naming it.
	jobTag map[guid.JobID]string

	locked  bool
	backend Backend
	log     log15.Logger
}

// New returns an empty notebook with one result set, tagged
// notebook.DefaultTag and selected as current.
func New(name, description string) *Notebook {
	nb := &Notebook{
		name:        name,
		description: description,
		attributes:  make(map[string]string),
		sets:        make(map[string]*resultset.ResultSet),
		jobTag:      make(map[guid.JobID]string),
		log:         log15.New("notebook", name),
	}
	nb.sets[DefaultTag] = resultset.New("default result set")
	nb.tags = []string{DefaultTag}
	nb.current = DefaultTag
	return nb
}

func (nb *Notebook) Name() string        { return nb.name }
func (nb *Notebook) Description() string { return nb.description }

// Tags returns every tag, in creation order.
func (nb *Notebook) Tags() []string {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	out := make([]string, len(nb.tags))
	copy(out, nb.tags)
	return out
}

// CurrentTag returns the currently-selected tag.
func (nb *Notebook) CurrentTag() string {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.current
}

// Current returns the currently-selected result set.
func (nb *Notebook) Current() *resultset.ResultSet {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.sets[nb.current]
}

// ResultSet returns the result set for tag, if any.
func (nb *Notebook) ResultSet(tag string) (*resultset.ResultSet, bool) {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	rs, ok := nb.sets[tag]
	return rs, ok
}

// Locked reports whether the notebook itself has been locked by Finish.
func (nb *Notebook) Locked() bool {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.locked
}

// Attributes returns a copy of the notebook's free-form attributes.
func (nb *Notebook) Attributes() map[string]string {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	out := make(map[string]string, len(nb.attributes))
	for k, v := range nb.attributes {
		out[k] = v
	}
	return out
}

func (nb *Notebook) SetAttribute(name, value string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.locked {
		return errs.New(errs.NotebookLocked, "cannot set attribute %q: notebook is locked", name)
	}
	nb.attributes[name] = value
	return nil
}

// AddResultSet creates and selects a new tag. Errors if tag already
// exists.
func (nb *Notebook) AddResultSet(tag, description string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.locked {
		return errs.New(errs.NotebookLocked, "cannot add result set %q: notebook is locked", tag)
	}
	if _, exists := nb.sets[tag]; exists {
		return errs.New(errs.ResultsStructure, "result set %q already exists", tag)
	}
	nb.sets[tag] = resultset.New(description)
	nb.tags = append(nb.tags, tag)
	nb.current = tag
	return nil
}

// Select changes the current tag. Errors if tag does not exist.
func (nb *Notebook) Select(tag string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if _, ok := nb.sets[tag]; !ok {
		return errs.New(errs.ResultsStructure, "no such result set %q", tag)
	}
	nb.current = tag
	return nil
}

// Already creates tag if it does not exist (selecting it either way)
// and reports whether it already existed: the compute-or-reuse
// primitive CreateWith builds on.
func (nb *Notebook) Already(tag, description string) (existed bool, err error) {
	nb.mu.Lock()
	if _, ok := nb.sets[tag]; ok {
		nb.current = tag
		nb.mu.Unlock()
		return true, nil
	}
	nb.mu.Unlock()
	if err := nb.AddResultSet(tag, description); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteResultSet removes tag. Refused if the notebook is locked; if
// tag is current, another tag (preferring the default) must become
// current first.
func (nb *Notebook) DeleteResultSet(tag string) error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.locked {
		return errs.New(errs.NotebookLocked, "cannot delete result set %q: notebook is locked", tag)
	}
	if _, ok := nb.sets[tag]; !ok {
		return errs.New(errs.ResultsStructure, "no such result set %q", tag)
	}
	delete(nb.sets, tag)
	for i, t := range nb.tags {
		if t == tag {
			nb.tags = append(nb.tags[:i], nb.tags[i+1:]...)
			break
		}
	}
	for id, owner := range nb.jobTag {
		if owner == tag {
			delete(nb.jobTag, id)
		}
	}
	if nb.current == tag {
		nb.current = nb.nextCurrentLocked()
	}
	return nil
}

func (nb *Notebook) nextCurrentLocked() string {
	for _, t := range nb.tags {
		if t == DefaultTag {
			return DefaultTag
		}
	}
	if len(nb.tags) > 0 {
		return nb.tags[0]
	}
	return ""
}

// AddResult appends rec to the current set, marking the notebook dirty.
func (nb *Notebook) AddResult(rec def.Record) error {
	nb.mu.RLock()
	rs := nb.sets[nb.current]
	nb.mu.RUnlock()
	return rs.AddRecord(rec)
}

// AddPending registers p as dispatched on the current set, returning a
// notebook-wide-unique job id.
func (nb *Notebook) AddPending(p def.Parameters) (guid.JobID, error) {
	nb.mu.Lock()
	tag := nb.current
	rs := nb.sets[tag]
	nb.mu.Unlock()

	id, err := rs.AddPending(p)
	if err != nil {
		return "", err
	}

	nb.mu.Lock()
	nb.jobTag[id] = tag
	nb.mu.Unlock()
	return id, nil
}

// ResolvePending converts a pending record anywhere in the notebook
// into a real one, in whichever tag's set it was submitted under.
func (nb *Notebook) ResolvePending(jobID guid.JobID, rec def.Record) error {
	nb.mu.RLock()
	tag, ok := nb.jobTag[jobID]
	nb.mu.RUnlock()
	if !ok {
		return errs.New(errs.PendingResult, "unknown job id %q", jobID)
	}
	rs, _ := nb.ResultSet(tag)
	if err := rs.ResolvePending(jobID, rec); err != nil {
		return err
	}
	nb.mu.Lock()
	delete(nb.jobTag, jobID)
	nb.mu.Unlock()
	return nil
}

// CancelPending cancels a pending record anywhere in the notebook.
// Idempotent: an unknown or already-resolved job id returns false.
func (nb *Notebook) CancelPending(jobID guid.JobID) (bool, error) {
	nb.mu.RLock()
	tag, ok := nb.jobTag[jobID]
	nb.mu.RUnlock()
	if !ok {
		return false, nil
	}
	rs, _ := nb.ResultSet(tag)
	cancelled, err := rs.CancelPending(jobID)
	if err != nil {
		return false, err
	}
	if cancelled {
		nb.mu.Lock()
		delete(nb.jobTag, jobID)
		nb.mu.Unlock()
	}
	return cancelled, nil
}

// NumberOfPendingResults sums pending records across every set.
func (nb *Notebook) NumberOfPendingResults() int {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	n := 0
	for _, rs := range nb.sets {
		n += rs.NumberOfPendingResults()
	}
	return n
}

// Commit flushes dirty state to the backend, if any. A no-op for a
// purely in-memory notebook.
func (nb *Notebook) Commit() error {
	nb.mu.RLock()
	backend := nb.backend
	nb.mu.RUnlock()
	if backend == nil {
		return nil
	}
	nb.log.Debug("committing notebook")
	return backend.Save(nb)
}

// Finish cancels every pending record across every set, locks every
// set, and locks the notebook itself.
func (nb *Notebook) Finish() error {
	nb.mu.RLock()
	sets := make([]*resultset.ResultSet, 0, len(nb.sets))
	for _, rs := range nb.sets {
		sets = append(sets, rs)
	}
	nb.mu.RUnlock()

	for _, rs := range sets {
		if err := rs.Finish(); err != nil {
			return err
		}
	}

	nb.mu.Lock()
	nb.locked = true
	nb.jobTag = make(map[guid.JobID]string)
	nb.mu.Unlock()
	return nil
}

// SetBackend attaches a persistence backend after construction, used
// by Open when a caller hands it a fresh in-memory notebook to start
// persisting.
func (nb *Notebook) SetBackend(b Backend) {
	nb.mu.Lock()
	nb.backend = b
	nb.mu.Unlock()
}
