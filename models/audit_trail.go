package models

import (
	"time"

	"github.com/google/uuid"
)

// TrailType represents the kind of change an audit trail records
type TrailType string

const (
	TrailTypeNone   TrailType = ""
	TrailTypeCreate TrailType = "Create"
	TrailTypeUpdate TrailType = "Update"
	TrailTypeDelete TrailType = "Delete"
)

// AuditTrail is an immutable record of one changed field within one commit
type AuditTrail struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"` // Weak reference, nulled when the user is deleted
	TrailType    TrailType  `json:"trail_type" db:"trail_type"`
	TimestampUTC time.Time  `json:"timestamp_utc" db:"timestamp_utc"`
	EntityName   string     `json:"entity_name" db:"entity_name"`
	PrimaryKey   *string    `json:"primary_key,omitempty" db:"primary_key"`
	OldValue     *string    `json:"old_value,omitempty" db:"old_value"`
	NewValue     *string    `json:"new_value,omitempty" db:"new_value"`
	ChangedField string     `json:"changed_field" db:"changed_field"`
}

// TableName returns the table name for the AuditTrail model
func (AuditTrail) TableName() string {
	return "audit_trails"
}

// NewAuditTrail creates a new AuditTrail with a fresh identifier
func NewAuditTrail(entityName, changedField string, trailType TrailType, at time.Time) *AuditTrail {
	return &AuditTrail{
		ID:           uuid.New(),
		TrailType:    trailType,
		TimestampUTC: at.UTC(),
		EntityName:   entityName,
		ChangedField: changedField,
	}
}

// WithActor sets the acting principal
func (a *AuditTrail) WithActor(actorID *uuid.UUID) *AuditTrail {
	a.ActorID = actorID
	return a
}

// WithPrimaryKey sets the rendered primary key of the audited entity
func (a *AuditTrail) WithPrimaryKey(key *string) *AuditTrail {
	a.PrimaryKey = key
	return a
}

// WithValues sets the rendered old and new values
func (a *AuditTrail) WithValues(oldValue, newValue *string) *AuditTrail {
	a.OldValue = oldValue
	a.NewValue = newValue
	return a
}

// AuditTrailFilter narrows audit trail queries
type AuditTrailFilter struct {
	EntityName string
	PrimaryKey string
	ActorID    *uuid.UUID
	Limit      int
	Offset     int
}
