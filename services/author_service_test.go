package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/library-api/models"
)

func TestAuthorService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author, err := env.authors.Create(ctx, AuthorInput{Name: "  Jane Austen "})

	require.NoError(t, err)
	assert.Equal(t, "Jane Austen", author.Name)
	assert.Equal(t, "system", author.CreatedBy)
	assert.Equal(t, testNow, author.CreatedAtUTC)
	assert.Nil(t, author.UpdatedAtUTC)

	stored, err := env.authors.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.Name, stored.Name)

	trails := env.trails(t, models.AuditTrailFilter{EntityName: models.EntityAuthor, PrimaryKey: author.ID.String()})
	assert.Equal(t, map[models.TrailType]int{models.TrailTypeCreate: 6}, countByType(trails))
	name := trailFor(trails, models.TrailTypeCreate, "name")
	require.NotNil(t, name)
	assert.Nil(t, name.OldValue)
	assert.Equal(t, "Jane Austen", *name.NewValue)
	assert.Nil(t, name.ActorID)
}

func TestAuthorService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input string
	}{
		{"blank", "   "},
		{"too long", strings.Repeat("a", maxAuthorNameLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.authors.Create(context.Background(), AuthorInput{Name: tt.input})

			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, GetErrorDetails(err), "name")
		})
	}
	assert.Empty(t, env.trails(t, models.AuditTrailFilter{}))
}

func TestAuthorService_Update(t *testing.T) {
	env := newTestEnv(t)
	editor := env.createUser(t, "editor", models.RoleMember)
	author := env.createAuthor(t, "Mary Shelly")

	updated, err := env.authors.Update(asUser(context.Background(), editor.ID), author.ID, AuthorInput{Name: "Mary Shelley"})

	require.NoError(t, err)
	assert.Equal(t, "Mary Shelley", updated.Name)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, editor.ID.String(), *updated.UpdatedBy)
	assert.Equal(t, "system", updated.CreatedBy)

	trails := env.trails(t, models.AuditTrailFilter{ActorID: &editor.ID})
	assert.Equal(t, map[models.TrailType]int{models.TrailTypeUpdate: 6}, countByType(trails))
	name := trailFor(trails, models.TrailTypeUpdate, "name")
	require.NotNil(t, name)
	assert.Equal(t, "Mary Shelly", *name.OldValue)
	assert.Equal(t, "Mary Shelley", *name.NewValue)
	assert.Equal(t, author.ID.String(), *name.PrimaryKey)
}

func TestAuthorService_Update_NoChangeWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	author := env.createAuthor(t, "Homer")

	updated, err := env.authors.Update(context.Background(), author.ID, AuthorInput{Name: "Homer"})

	require.NoError(t, err)
	assert.Nil(t, updated.UpdatedAtUTC)
	trails := env.trails(t, models.AuditTrailFilter{EntityName: models.EntityAuthor})
	assert.Equal(t, map[models.TrailType]int{models.TrailTypeCreate: 6}, countByType(trails))
}

func TestAuthorService_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := env.authors.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrAuthorNotFound)

	_, err = env.authors.Update(ctx, missing, AuthorInput{Name: "Nobody"})
	assert.ErrorIs(t, err, ErrAuthorNotFound)

	assert.ErrorIs(t, env.authors.Delete(ctx, missing), ErrAuthorNotFound)

	_, err = env.authors.ListBooks(ctx, missing)
	assert.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestAuthorService_DeleteCascadesBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Frank Herbert")
	for _, isbn := range []string{"9780441172719", "9780441172696"} {
		_, err := env.books.Create(ctx, BookInput{Title: "Dune " + isbn, ISBN: isbn, AuthorID: author.ID})
		require.NoError(t, err)
	}

	books, err := env.authors.ListBooks(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)

	require.NoError(t, env.authors.Delete(ctx, author.ID))

	_, err = env.authors.Get(ctx, author.ID)
	assert.ErrorIs(t, err, ErrAuthorNotFound)
	for _, b := range books {
		_, err := env.books.Get(ctx, b.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	}

	authorTrails := env.trails(t, models.AuditTrailFilter{EntityName: models.EntityAuthor})
	assert.Equal(t, 6, countByType(authorTrails)[models.TrailTypeDelete])
	bookTrails := env.trails(t, models.AuditTrailFilter{EntityName: models.EntityBook})
	assert.Equal(t, 18, countByType(bookTrails)[models.TrailTypeDelete])

	deletedName := trailFor(authorTrails, models.TrailTypeDelete, "name")
	require.NotNil(t, deletedName)
	assert.Equal(t, "Frank Herbert", *deletedName.OldValue)
	assert.Nil(t, deletedName.NewValue)
}

func TestAuthorService_List(t *testing.T) {
	env := newTestEnv(t)
	env.createAuthor(t, "A")
	env.createAuthor(t, "B")
	env.createAuthor(t, "C")

	page, err := env.authors.List(context.Background(), 2, 1)

	require.NoError(t, err)
	assert.Len(t, page, 2)
}
