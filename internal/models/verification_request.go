package models

import (
	"time"
)

// RequestStatus values for an identity verification request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// VerificationRequest is a user's submission of identity documents for
// admin review. At most one request exists per user; a resubmission after
// rejection updates the existing row.
type VerificationRequest struct {
	ID                     string
	UserID                 string
	UserName               string
	UserEmail              string
	Phone                  string
	Address                string
	IdentificationDocument string // object key in the document store
	SelfieWithID           string
	Status                 RequestStatus
	AdminNotes             string
	SubmittedAt            time.Time
	ReviewedAt             *time.Time
	ReviewedBy             *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// UserStatusFor maps a reviewed request status onto the cascaded user
// verification status.
func (s RequestStatus) UserStatusFor() VerificationStatus {
	switch s {
	case RequestApproved:
		return VerificationVerified
	case RequestRejected:
		return VerificationRejected
	default:
		return VerificationPending
	}
}
