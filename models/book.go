package models

import (
	"github.com/google/uuid"
)

// Book represents a catalogued book written by one author
type Book struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	ISBN          string    `json:"isbn" db:"isbn"`
	PublishedYear *int      `json:"published_year,omitempty" db:"published_year"`
	AuthorID      uuid.UUID `json:"author_id" db:"author_id"`
	AuditMetadata
}

// TableName returns the table name for the Book model
func (Book) TableName() string {
	return "books"
}

// NewBook creates a new Book instance
func NewBook(authorID uuid.UUID, title, isbn string) *Book {
	return &Book{
		ID:       uuid.New(),
		Title:    title,
		ISBN:     isbn,
		AuthorID: authorID,
	}
}

// EntityName implements Auditable
func (*Book) EntityName() string {
	return EntityBook
}

// Properties implements Auditable
func (b *Book) Properties() []Property {
	return append([]Property{
		{Name: "id", PrimaryKey: true, Value: b.ID},
		{Name: "title", Value: b.Title},
		{Name: "isbn", Value: b.ISBN},
		{Name: "published_year", Value: b.PublishedYear},
		{Name: "author_id", Value: b.AuthorID},
	}, b.AuditMetadata.properties()...)
}
