package models

import (
	"github.com/google/uuid"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// User represents an account that can log in and act on the catalogue
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	Role         UserRole  `json:"role" db:"role"`
	AuditMetadata
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(username, email, passwordHash string, role UserRole) *User {
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EntityName implements Auditable
func (*User) EntityName() string {
	return EntityUser
}

// Properties implements Auditable
func (u *User) Properties() []Property {
	return append([]Property{
		{Name: "id", PrimaryKey: true, Value: u.ID},
		{Name: "username", Value: u.Username},
		{Name: "email", Value: u.Email},
		{Name: "password_hash", Redacted: true, Value: u.PasswordHash},
		{Name: "role", Value: u.Role},
	}, u.AuditMetadata.properties()...)
}

// RoleNames lists every known role
func RoleNames() []string {
	return []string{string(RoleAdmin), string(RoleMember)}
}
