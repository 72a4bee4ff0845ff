package models

import (
	"time"
)

// InquiryStatus values for a buyer/renter inquiry on a listing.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryResponded InquiryStatus = "responded"
)

// Inquiry is a contact message left on a public listing.
type Inquiry struct {
	ID         string
	PropertyID string
	Name       string
	Email      string
	Phone      string
	Message    string
	Status     InquiryStatus
	CreatedAt  time.Time
}
