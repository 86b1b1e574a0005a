package models

import (
	"github.com/google/uuid"
)

// Author represents a book author
type Author struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	AuditMetadata
}

// TableName returns the table name for the Author model
func (Author) TableName() string {
	return "authors"
}

// NewAuthor creates a new Author instance. Provenance is stamped on save.
func NewAuthor(name string) *Author {
	return &Author{
		ID:   uuid.New(),
		Name: name,
	}
}

// EntityName implements Auditable
func (*Author) EntityName() string {
	return EntityAuthor
}

// Properties implements Auditable
func (a *Author) Properties() []Property {
	return append([]Property{
		{Name: "id", PrimaryKey: true, Value: a.ID},
		{Name: "name", Value: a.Name},
	}, a.AuditMetadata.properties()...)
}
