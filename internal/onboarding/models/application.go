package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is set by an external reviewer after submission.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// PendingApplication is the durable artifact the onboarding flow produces.
// Created exactly once per successful session when the live-photo step
// resolves; never updated afterward by this service.
type PendingApplication struct {
	ID            uuid.UUID
	ApplicationNo string
	UserID        uuid.UUID

	FirstName  string
	LastName   string
	FatherName string
	DOB        time.Time
	Gender     string

	AddressLine string
	City        string
	District    string
	Region      string
	PostalCode  string
	Country     string

	NationalID string
	TaxID      string

	FrontImageURL     string
	BackImageURL      string
	TaxImageURL       string
	LivePhotoImageURL string

	KYCVerified bool
	Status      ApplicationStatus
	CreatedAt   time.Time
}

// NewApplicationNo derives a short human-readable application number.
func NewApplicationNo() string {
	return "APP-" + strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// ParseDOB accepts the two textual date formats the extraction gateway
// produces: DD/MM/YYYY and YYYY-MM-DD.
func ParseDOB(s string) (time.Time, error) {
	if strings.Contains(s, "/") {
		return time.Parse("02/01/2006", s)
	}
	return time.Parse("2006-01-02", s)
}
