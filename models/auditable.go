package models

import "time"

// Entity names used in audit trails and the unit-of-work writer registry
const (
	EntityAuthor = "Author"
	EntityBook   = "Book"
	EntityUser   = "User"
)

// Property is a single scalar property of an auditable entity
type Property struct {
	Name       string
	PrimaryKey bool
	Redacted   bool // rendered as a placeholder in audit trails
	Value      any
}

// Auditable is implemented by every entity that carries provenance metadata
// and takes part in change tracking.
type Auditable interface {
	// EntityName returns the logical type name recorded in audit trails
	EntityName() string

	// Properties returns a snapshot of the entity's scalar properties in a stable order
	Properties() []Property

	// Audit returns the entity's mutable provenance metadata
	Audit() *AuditMetadata
}

// AuditMetadata holds created/updated provenance. Embed it in auditable entities.
type AuditMetadata struct {
	CreatedAtUTC time.Time  `json:"created_at_utc" db:"created_at_utc"`
	UpdatedAtUTC *time.Time `json:"updated_at_utc,omitempty" db:"updated_at_utc"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	UpdatedBy    *string    `json:"updated_by,omitempty" db:"updated_by"`
}

// Audit returns the metadata itself so embedding types satisfy Auditable
func (m *AuditMetadata) Audit() *AuditMetadata {
	return m
}

// MarkCreated stamps creation provenance
func (m *AuditMetadata) MarkCreated(at time.Time, actor string) {
	m.CreatedAtUTC = at.UTC()
	m.CreatedBy = actor
}

// MarkUpdated stamps modification provenance
func (m *AuditMetadata) MarkUpdated(at time.Time, actor string) {
	utc := at.UTC()
	m.UpdatedAtUTC = &utc
	m.UpdatedBy = &actor
}

func (m *AuditMetadata) properties() []Property {
	return []Property{
		{Name: "created_at_utc", Value: m.CreatedAtUTC},
		{Name: "updated_at_utc", Value: m.UpdatedAtUTC},
		{Name: "created_by", Value: m.CreatedBy},
		{Name: "updated_by", Value: m.UpdatedBy},
	}
}
