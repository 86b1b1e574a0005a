package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/library-api/internal/changes"
	"github.com/upb/library-api/internal/clock"
	"github.com/upb/library-api/models"
)

type recordingSink struct {
	trails []*models.AuditTrail
	err    error
}

func (s *recordingSink) AddAuditTrails(_ context.Context, trails []*models.AuditTrail) error {
	if s.err != nil {
		return s.err
	}
	s.trails = append(s.trails, trails...)
	return nil
}

func fixedActor(id uuid.UUID) ActorResolver {
	return ActorResolverFunc(func(context.Context) (uuid.UUID, bool) { return id, true })
}

var (
	createdAt = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	updatedAt = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
)

func newTestInterceptor(actors ActorResolver, at time.Time, opts Options) *Interceptor {
	return NewInterceptor(actors, clock.Fixed(at), opts, zap.NewNop())
}

func trailsByField(trails []*models.AuditTrail) map[string]*models.AuditTrail {
	out := make(map[string]*models.AuditTrail, len(trails))
	for _, tr := range trails {
		out[tr.ChangedField] = tr
	}
	return out
}

func TestInterceptor_AddedAuthorWithoutActor(t *testing.T) {
	tracker := changes.NewTracker()
	author := models.NewAuthor("Mary Shelley")
	tracker.Add(author)
	sink := &recordingSink{}

	err := newTestInterceptor(nil, createdAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	assert.Equal(t, "system", author.CreatedBy)
	assert.Equal(t, createdAt, author.CreatedAtUTC)
	assert.Nil(t, author.UpdatedAtUTC)
	assert.Nil(t, author.UpdatedBy)

	require.Len(t, sink.trails, 6)
	for _, tr := range sink.trails {
		assert.Equal(t, models.TrailTypeCreate, tr.TrailType)
		assert.Nil(t, tr.ActorID)
		assert.Nil(t, tr.OldValue)
		assert.Equal(t, models.EntityAuthor, tr.EntityName)
		assert.Equal(t, createdAt, tr.TimestampUTC)
		require.NotNil(t, tr.PrimaryKey)
		assert.Equal(t, author.ID.String(), *tr.PrimaryKey)
	}

	byField := trailsByField(sink.trails)
	assert.Equal(t, "Mary Shelley", *byField["name"].NewValue)
	assert.Equal(t, "system", *byField["created_by"].NewValue)
	assert.Equal(t, "2024-01-01T09:00:00Z", *byField["created_at_utc"].NewValue)
	assert.Nil(t, byField["updated_at_utc"].NewValue)
	assert.Nil(t, byField["updated_by"].NewValue)
}

func TestInterceptor_ModifiedAuthorWithActor(t *testing.T) {
	actor := uuid.New()
	author := models.NewAuthor("Old Name")
	author.MarkCreated(createdAt, "system")

	tracker := changes.NewTracker()
	tracker.Attach(author)
	author.Name = "New Name"
	tracker.DetectChanges()
	sink := &recordingSink{}

	err := newTestInterceptor(fixedActor(actor), updatedAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	require.NotNil(t, author.UpdatedAtUTC)
	assert.Equal(t, updatedAt, *author.UpdatedAtUTC)
	assert.False(t, author.UpdatedAtUTC.Before(author.CreatedAtUTC))
	assert.Equal(t, actor.String(), *author.UpdatedBy)
	assert.Equal(t, createdAt, author.CreatedAtUTC)
	assert.Equal(t, "system", author.CreatedBy)

	require.Len(t, sink.trails, 6)
	for _, tr := range sink.trails {
		assert.Equal(t, models.TrailTypeUpdate, tr.TrailType)
		require.NotNil(t, tr.ActorID)
		assert.Equal(t, actor, *tr.ActorID)
	}

	byField := trailsByField(sink.trails)
	assert.Equal(t, "Old Name", *byField["name"].OldValue)
	assert.Equal(t, "New Name", *byField["name"].NewValue)
	assert.Equal(t, *byField["id"].OldValue, *byField["id"].NewValue)
	assert.Equal(t, *byField["created_by"].OldValue, *byField["created_by"].NewValue)
	assert.Nil(t, byField["updated_at_utc"].OldValue)
	assert.Equal(t, "2024-01-02T09:00:00Z", *byField["updated_at_utc"].NewValue)
	assert.Nil(t, byField["updated_by"].OldValue)
	assert.Equal(t, actor.String(), *byField["updated_by"].NewValue)
}

func TestInterceptor_DeletedEntity(t *testing.T) {
	book := models.NewBook(uuid.New(), "Frankenstein", "978-0486282114")
	book.MarkCreated(createdAt, "system")

	tracker := changes.NewTracker()
	tracker.Attach(book)
	tracker.Remove(book)
	sink := &recordingSink{}

	err := newTestInterceptor(nil, updatedAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	assert.Nil(t, book.UpdatedAtUTC, "deleted entities are not stamped")
	require.Len(t, sink.trails, len(book.Properties()))
	for _, tr := range sink.trails {
		assert.Equal(t, models.TrailTypeDelete, tr.TrailType)
		assert.Nil(t, tr.NewValue)
	}
	assert.Equal(t, "Frankenstein", *trailsByField(sink.trails)["title"].OldValue)
}

func TestInterceptor_UnchangedEntriesProduceNothing(t *testing.T) {
	tracker := changes.NewTracker()
	author := models.NewAuthor("Idle")
	entry := tracker.Attach(author)
	sink := &recordingSink{}

	err := newTestInterceptor(nil, createdAt, Options{}).SavingChanges(context.Background(), []*changes.Entry{entry}, sink)

	require.NoError(t, err)
	assert.Empty(t, sink.trails)
	assert.True(t, author.CreatedAtUTC.IsZero())
}

func TestInterceptor_AddedAndModifiedInOneCommit(t *testing.T) {
	actor := uuid.New()
	existing := models.NewAuthor("Existing")
	existing.MarkCreated(createdAt, "system")

	tracker := changes.NewTracker()
	tracker.Attach(existing)
	tracker.Update(existing)
	added := models.NewBook(existing.ID, "Fresh", "isbn")
	tracker.Add(added)
	sink := &recordingSink{}

	err := newTestInterceptor(fixedActor(actor), updatedAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	assert.Nil(t, added.UpdatedAtUTC)
	assert.Nil(t, added.UpdatedBy)
	assert.Equal(t, actor.String(), added.CreatedBy)
	assert.Len(t, sink.trails, len(existing.Properties())+len(added.Properties()))
}

func TestInterceptor_ChangedFieldsOnly(t *testing.T) {
	author := models.NewAuthor("Before")
	author.MarkCreated(createdAt, "system")

	tracker := changes.NewTracker()
	tracker.Attach(author)
	author.Name = "After"
	tracker.DetectChanges()
	sink := &recordingSink{}

	err := newTestInterceptor(nil, updatedAt, Options{ChangedFieldsOnly: true}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	fields := make([]string, 0, len(sink.trails))
	for _, tr := range sink.trails {
		fields = append(fields, tr.ChangedField)
	}
	assert.ElementsMatch(t, []string{"name", "updated_at_utc", "updated_by"}, fields)
}

func TestInterceptor_RedactsPasswordHash(t *testing.T) {
	user := models.NewUser("reader", "r@example.com", "$2a$10$first", models.RoleMember)
	user.MarkCreated(createdAt, "system")

	tracker := changes.NewTracker()
	tracker.Attach(user)
	user.PasswordHash = "$2a$10$second"
	tracker.DetectChanges()
	sink := &recordingSink{}

	err := newTestInterceptor(nil, updatedAt, Options{ChangedFieldsOnly: true}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	tr, ok := trailsByField(sink.trails)["password_hash"]
	require.True(t, ok, "redacted change is still recorded")
	assert.Equal(t, Redacted, *tr.OldValue)
	assert.Equal(t, Redacted, *tr.NewValue)
}

func TestInterceptor_TruncatesLongValues(t *testing.T) {
	tracker := changes.NewTracker()
	tracker.Add(models.NewAuthor("abcdefghijklmnopqrstuvwxyz"))
	sink := &recordingSink{}

	err := newTestInterceptor(nil, createdAt, Options{MaxValueLength: 5}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	assert.Equal(t, "abcde"+TruncatedSuffix, *trailsByField(sink.trails)["name"].NewValue)
}

func TestInterceptor_CustomSystemActor(t *testing.T) {
	tracker := changes.NewTracker()
	author := models.NewAuthor("X")
	tracker.Add(author)

	err := newTestInterceptor(nil, createdAt, Options{SystemActor: "importer"}).
		SavingChanges(context.Background(), tracker.Pending(), &recordingSink{})

	require.NoError(t, err)
	assert.Equal(t, "importer", author.CreatedBy)
}

func TestInterceptor_NilActorIDIsAnonymous(t *testing.T) {
	tracker := changes.NewTracker()
	author := models.NewAuthor("X")
	tracker.Add(author)
	sink := &recordingSink{}

	err := newTestInterceptor(fixedActor(uuid.Nil), createdAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink)

	require.NoError(t, err)
	assert.Equal(t, "system", author.CreatedBy)
	assert.Nil(t, sink.trails[0].ActorID)
}

func TestInterceptor_TrailIDsAreUnique(t *testing.T) {
	tracker := changes.NewTracker()
	tracker.Add(models.NewAuthor("A"))
	tracker.Add(models.NewAuthor("B"))
	sink := &recordingSink{}

	require.NoError(t, newTestInterceptor(nil, createdAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), sink))

	seen := make(map[uuid.UUID]bool)
	for _, tr := range sink.trails {
		assert.False(t, seen[tr.ID])
		seen[tr.ID] = true
	}
	assert.Len(t, seen, 12)
}

func TestInterceptor_CancelledContext(t *testing.T) {
	tracker := changes.NewTracker()
	tracker.Add(models.NewAuthor("A"))
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestInterceptor(nil, createdAt, Options{}).SavingChanges(ctx, tracker.Pending(), sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.trails)
}

func TestInterceptor_SinkErrorPropagates(t *testing.T) {
	tracker := changes.NewTracker()
	tracker.Add(models.NewAuthor("A"))
	sinkErr := errors.New("sink down")

	err := newTestInterceptor(nil, createdAt, Options{}).SavingChanges(context.Background(), tracker.Pending(), &recordingSink{err: sinkErr})

	assert.ErrorIs(t, err, sinkErr)
}
