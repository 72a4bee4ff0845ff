package models

import (
	"time"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// VerificationStatus values for a user account. The value is owned by the
// verification workflow; it is never written from a self-service update.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	Name               string
	Role               string // "user", "admin"
	VerificationStatus VerificationStatus
	Phone              string
	Address            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanListProperties reports whether the user may create property listings.
func (u *User) CanListProperties() bool {
	return u.IsAdmin() || u.VerificationStatus == VerificationVerified
}
