// Package changes tracks the lifecycle state of auditable entities inside a
// unit of work, along with a snapshot of their original property values.
package changes

import (
	"reflect"

	"github.com/upb/library-api/models"
)

// State is the lifecycle state of a tracked entity
type State int

const (
	Unchanged State = iota
	Added
	Modified
	Deleted
)

func (s State) String() string {
	switch s {
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return "Unchanged"
	}
}

// PropertyEntry pairs the original and current value of one property
type PropertyEntry struct {
	Name       string
	PrimaryKey bool
	Redacted   bool
	Original   any
	Current    any
}

// Entry is one tracked entity
type Entry struct {
	Entity   models.Auditable
	State    State
	original map[string]any
}

// Properties returns the entity's properties with their original values from
// the last snapshot and their current values read from the entity now.
func (e *Entry) Properties() []PropertyEntry {
	current := e.Entity.Properties()
	out := make([]PropertyEntry, len(current))
	for i, p := range current {
		out[i] = PropertyEntry{
			Name:       p.Name,
			PrimaryKey: p.PrimaryKey,
			Redacted:   p.Redacted,
			Original:   e.original[p.Name],
			Current:    normalize(p.Value),
		}
	}
	return out
}

// Changed reports whether any current property differs from its original
func (e *Entry) Changed() bool {
	for _, p := range e.Properties() {
		if !reflect.DeepEqual(p.Original, p.Current) {
			return true
		}
	}
	return false
}

func (e *Entry) snapshot() {
	e.original = make(map[string]any)
	for _, p := range e.Entity.Properties() {
		e.original[p.Name] = normalize(p.Value)
	}
}

// Tracker records entity states for a single unit of work. It is not safe for
// concurrent use; each request owns its own tracker.
type Tracker struct {
	entries []*Entry
	index   map[models.Auditable]*Entry
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{index: make(map[models.Auditable]*Entry)}
}

// Add starts tracking a new entity
func (t *Tracker) Add(entity models.Auditable) *Entry {
	if e, ok := t.index[entity]; ok {
		if e.State == Deleted {
			e.State = Modified
		}
		return e
	}
	e := &Entry{Entity: entity, State: Added, original: map[string]any{}}
	t.track(e)
	return e
}

// Attach starts tracking an entity loaded from the store and snapshots its
// current values as originals.
func (t *Tracker) Attach(entity models.Auditable) *Entry {
	if e, ok := t.index[entity]; ok {
		return e
	}
	e := &Entry{Entity: entity, State: Unchanged}
	e.snapshot()
	t.track(e)
	return e
}

// Update marks an entity as modified, attaching it first when untracked.
// Added entities stay Added.
func (t *Tracker) Update(entity models.Auditable) *Entry {
	e := t.Attach(entity)
	if e.State == Unchanged {
		e.State = Modified
	}
	return e
}

// Remove marks an entity as deleted. Removing an entity that was added in the
// same unit of work simply stops tracking it.
func (t *Tracker) Remove(entity models.Auditable) {
	e := t.Attach(entity)
	if e.State == Added {
		t.detach(e)
		return
	}
	e.State = Deleted
}

// Entry returns the tracking entry for entity, if any
func (t *Tracker) Entry(entity models.Auditable) (*Entry, bool) {
	e, ok := t.index[entity]
	return e, ok
}

// DetectChanges promotes Unchanged entries whose values drifted from their
// snapshot to Modified.
func (t *Tracker) DetectChanges() {
	for _, e := range t.entries {
		if e.State == Unchanged && e.Changed() {
			e.State = Modified
		}
	}
}

// Entries returns all tracked entries in tracking order
func (t *Tracker) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Pending returns the entries that will be written on the next save
func (t *Tracker) Pending() []*Entry {
	var out []*Entry
	for _, e := range t.entries {
		if e.State != Unchanged {
			out = append(out, e)
		}
	}
	return out
}

// AcceptChanges is called after a successful commit: deleted entities are
// detached and every other entry becomes Unchanged with a fresh snapshot.
func (t *Tracker) AcceptChanges() {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.State == Deleted {
			delete(t.index, e.Entity)
			continue
		}
		e.State = Unchanged
		e.snapshot()
		kept = append(kept, e)
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = nil
	}
	t.entries = kept
}

func (t *Tracker) track(e *Entry) {
	t.entries = append(t.entries, e)
	t.index[e.Entity] = e
}

func (t *Tracker) detach(e *Entry) {
	delete(t.index, e.Entity)
	for i, x := range t.entries {
		if x == e {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// normalize dereferences pointers so snapshots do not alias entity fields.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}
