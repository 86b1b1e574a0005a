package changes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/library-api/models"
)

func propertyByName(t *testing.T, e *Entry, name string) PropertyEntry {
	t.Helper()
	for _, p := range e.Properties() {
		if p.Name == name {
			return p
		}
	}
	require.FailNowf(t, "property not found", "%s", name)
	return PropertyEntry{}
}

func TestTracker_Add(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("Ann Leckie")

	e := tr.Add(author)

	assert.Equal(t, Added, e.State)
	assert.Len(t, tr.Entries(), 1)
	assert.Nil(t, propertyByName(t, e, "name").Original)
	assert.Equal(t, "Ann Leckie", propertyByName(t, e, "name").Current)
}

func TestTracker_AddTwiceReturnsSameEntry(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("A")

	first := tr.Add(author)
	second := tr.Add(author)

	assert.Same(t, first, second)
	assert.Len(t, tr.Entries(), 1)
}

func TestTracker_AttachSnapshotsOriginals(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("Before")

	e := tr.Attach(author)
	author.Name = "After"

	name := propertyByName(t, e, "name")
	assert.Equal(t, Unchanged, e.State)
	assert.Equal(t, "Before", name.Original)
	assert.Equal(t, "After", name.Current)
}

func TestTracker_SnapshotDoesNotAliasPointers(t *testing.T) {
	tr := NewTracker()
	year := 2001
	book := models.NewBook(uuid.New(), "T", "I")
	book.PublishedYear = &year

	e := tr.Attach(book)
	year = 2002

	p := propertyByName(t, e, "published_year")
	assert.Equal(t, 2001, p.Original)
	assert.Equal(t, 2002, p.Current)
}

func TestTracker_Update(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Tracker, models.Auditable)
		want  State
	}{
		{"untracked entity becomes modified", func(*Tracker, models.Auditable) {}, Modified},
		{"attached entity becomes modified", func(tr *Tracker, a models.Auditable) { tr.Attach(a) }, Modified},
		{"added entity stays added", func(tr *Tracker, a models.Auditable) { tr.Add(a) }, Added},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			author := models.NewAuthor("X")
			tt.setup(tr, author)

			e := tr.Update(author)

			assert.Equal(t, tt.want, e.State)
		})
	}
}

func TestTracker_Remove(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("X")
	tr.Attach(author)

	tr.Remove(author)

	e, ok := tr.Entry(author)
	require.True(t, ok)
	assert.Equal(t, Deleted, e.State)
}

func TestTracker_RemoveAddedEntityDetaches(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("X")
	tr.Add(author)

	tr.Remove(author)

	_, ok := tr.Entry(author)
	assert.False(t, ok)
	assert.Empty(t, tr.Entries())
}

func TestTracker_DetectChanges(t *testing.T) {
	tr := NewTracker()
	changed := models.NewAuthor("Old")
	untouched := models.NewAuthor("Same")
	tr.Attach(changed)
	tr.Attach(untouched)

	changed.Name = "New"
	tr.DetectChanges()

	e, _ := tr.Entry(changed)
	assert.Equal(t, Modified, e.State)
	e, _ = tr.Entry(untouched)
	assert.Equal(t, Unchanged, e.State)
	assert.Len(t, tr.Pending(), 1)
}

func TestTracker_AcceptChanges(t *testing.T) {
	tr := NewTracker()
	added := models.NewAuthor("Added")
	modified := models.NewAuthor("Modified")
	deleted := models.NewAuthor("Deleted")
	tr.Add(added)
	tr.Attach(modified)
	tr.Attach(deleted)
	modified.Name = "Renamed"
	tr.Update(modified)
	tr.Remove(deleted)

	tr.AcceptChanges()

	require.Len(t, tr.Entries(), 2)
	for _, e := range tr.Entries() {
		assert.Equal(t, Unchanged, e.State)
	}
	_, ok := tr.Entry(deleted)
	assert.False(t, ok)

	e, _ := tr.Entry(modified)
	name := propertyByName(t, e, "name")
	assert.Equal(t, "Renamed", name.Original)
	assert.False(t, e.Changed())
	assert.Empty(t, tr.Pending())
}

func TestEntry_ChangedSeesStampedMetadata(t *testing.T) {
	tr := NewTracker()
	author := models.NewAuthor("X")
	e := tr.Attach(author)
	assert.False(t, e.Changed())

	author.MarkUpdated(time.Now(), "someone")

	assert.True(t, e.Changed())
	assert.Nil(t, propertyByName(t, e, "updated_by").Original)
	assert.Equal(t, "someone", propertyByName(t, e, "updated_by").Current)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Added", Added.String())
	assert.Equal(t, "Modified", Modified.String())
	assert.Equal(t, "Deleted", Deleted.String())
	assert.Equal(t, "Unchanged", Unchanged.String())
}
