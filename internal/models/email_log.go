package models

import (
	"time"
)

// Email delivery outcomes.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// Email types recorded in the delivery log.
const (
	EmailTypeVerificationApproved  = "verification_approved"
	EmailTypeVerificationRejected  = "verification_rejected"
	EmailTypeVerificationSubmitted = "verification_submitted"
	EmailTypePropertyStatus        = "property_status"
)

// EmailLog is an append-only audit record of a notification attempt.
// Workflow code only ever creates rows; it never mutates or deletes them.
type EmailLog struct {
	ID        string
	Recipient string
	Subject   string
	EmailType string
	Status    string // "sent", "failed"
	Error     string // populated when Status is "failed"
	CreatedAt time.Time
}
