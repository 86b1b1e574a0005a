package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// AuthorRequest is the body of author create and update requests
type AuthorRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// BookRequest is the body of book create and update requests
type BookRequest struct {
	Title         string `json:"title" validate:"required,max=300"`
	ISBN          string `json:"isbn" validate:"required,isbn"`
	PublishedYear *int   `json:"published_year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	AuthorID      string `json:"author_id" validate:"required,uuid"`
}

// CreateUserRequest is the body of admin user creation
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin member"`
}

// UpdateUserRequest carries the optional fields of a user update
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin member"`
}

// RegisterRequest is the body of self sign-up
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuditMetadataResponse carries provenance fields shared by all entities
type AuditMetadataResponse struct {
	CreatedAtUTC time.Time  `json:"created_at_utc"`
	UpdatedAtUTC *time.Time `json:"updated_at_utc,omitempty"`
	CreatedBy    string     `json:"created_by"`
	UpdatedBy    *string    `json:"updated_by,omitempty"`
}

// AuthorResponse represents an author in API responses
type AuthorResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	AuditMetadataResponse
}

// BookResponse represents a book in API responses
type BookResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	ISBN          string    `json:"isbn"`
	PublishedYear *int      `json:"published_year,omitempty"`
	AuthorID      uuid.UUID `json:"author_id"`
	AuditMetadataResponse
}

// UserResponse represents a user in API responses. The password hash is never exposed.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	AuditMetadataResponse
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// AuditTrailResponse represents one audit trail record
type AuditTrailResponse struct {
	ID           uuid.UUID  `json:"id"`
	ActorID      *uuid.UUID `json:"actor_id"`
	TrailType    string     `json:"trail_type"`
	TimestampUTC time.Time  `json:"timestamp_utc"`
	EntityName   string     `json:"entity_name"`
	PrimaryKey   *string    `json:"primary_key"`
	ChangedField string     `json:"changed_field"`
	OldValue     *string    `json:"old_value"`
	NewValue     *string    `json:"new_value"`
}

func metadataToResponse(m models.AuditMetadata) AuditMetadataResponse {
	return AuditMetadataResponse{
		CreatedAtUTC: m.CreatedAtUTC,
		UpdatedAtUTC: m.UpdatedAtUTC,
		CreatedBy:    m.CreatedBy,
		UpdatedBy:    m.UpdatedBy,
	}
}

func authorToResponse(a *models.Author) AuthorResponse {
	return AuthorResponse{
		ID:                    a.ID,
		Name:                  a.Name,
		AuditMetadataResponse: metadataToResponse(a.AuditMetadata),
	}
}

func bookToResponse(b *models.Book) BookResponse {
	return BookResponse{
		ID:                    b.ID,
		Title:                 b.Title,
		ISBN:                  b.ISBN,
		PublishedYear:         b.PublishedYear,
		AuthorID:              b.AuthorID,
		AuditMetadataResponse: metadataToResponse(b.AuditMetadata),
	}
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		Role:                  string(u.Role),
		AuditMetadataResponse: metadataToResponse(u.AuditMetadata),
	}
}

func trailToResponse(t *models.AuditTrail) AuditTrailResponse {
	return AuditTrailResponse{
		ID:           t.ID,
		ActorID:      t.ActorID,
		TrailType:    string(t.TrailType),
		TimestampUTC: t.TimestampUTC,
		EntityName:   t.EntityName,
		PrimaryKey:   t.PrimaryKey,
		ChangedField: t.ChangedField,
		OldValue:     t.OldValue,
		NewValue:     t.NewValue,
	}
}

func authorsToResponse(authors []*models.Author) []AuthorResponse {
	out := make([]AuthorResponse, len(authors))
	for i, a := range authors {
		out[i] = authorToResponse(a)
	}
	return out
}

func booksToResponse(books []*models.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = bookToResponse(b)
	}
	return out
}
