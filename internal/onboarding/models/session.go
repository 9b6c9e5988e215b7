package models

import "github.com/google/uuid"

// State enumerates the mutually exclusive onboarding stages. The state fully
// determines which inputs the flow expects next.
type State string

const (
	StateInitial           State = "INITIAL"
	StateAwaitingIDFront   State = "AWAITING_ID_FRONT"
	StateConfirmingIDFront State = "CONFIRMING_ID_FRONT"
	StateAwaitingIDBack    State = "AWAITING_ID_BACK"
	StateConfirmingIDBack  State = "CONFIRMING_ID_BACK"
	StateAwaitingTaxDoc    State = "AWAITING_TAX_DOC"
	StateConfirmingTaxDoc  State = "CONFIRMING_TAX_DOC"
	StateAwaitingLivePhoto State = "AWAITING_LIVE_PHOTO"
	StateCompleted         State = "COMPLETED"
)

// Confirming reports whether the stage is a document confirmation stage, where
// free text is routed to the correction interpreter instead of side queries.
func (s State) Confirming() bool {
	switch s {
	case StateConfirmingIDFront, StateConfirmingIDBack, StateConfirmingTaxDoc:
		return true
	}
	return false
}

// DocumentKind tags an uploaded artifact. Uploads are only consumed by the
// exact state that asked for them.
type DocumentKind string

const (
	KindIdentity  DocumentKind = "identity"
	KindTax       DocumentKind = "tax"
	KindLivePhoto DocumentKind = "live_photo"
)

// IdentityFields hold the front-of-card biographic namespace.
type IdentityFields struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DOB        string `json:"dob"`
	Gender     string `json:"gender"`
	NationalID string `json:"national_id"`
}

// FullName joins first and last name for display and cross-validation.
func (f IdentityFields) FullName() string {
	if f.LastName == "" {
		return f.FirstName
	}
	return f.FirstName + " " + f.LastName
}

// AddressFields hold the back-of-card address namespace.
type AddressFields struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	District   string `json:"district"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// TaxFields hold the tax-card namespace.
type TaxFields struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	FatherName string `json:"father_name"`
	DOB        string `json:"dob"`
}

// Fields is the progressively filled partial record for one conversation.
// The three document namespaces are disjoint: a later stage's extraction
// never overwrites an earlier stage's fields.
type Fields struct {
	Identity IdentityFields `json:"identity"`
	Address  AddressFields  `json:"address"`
	Tax      TaxFields      `json:"tax"`

	FrontImageURL     string `json:"front_image_url"`
	BackImageURL      string `json:"back_image_url"`
	TaxImageURL       string `json:"tax_image_url"`
	LivePhotoImageURL string `json:"live_photo_image_url"`

	// FrontImage retains the raw front-document bytes only until the live
	// photo step isolates the reference face; it is cleared on every terminal
	// path of that step.
	FrontImage []byte `json:"front_image,omitempty"`

	RetryCount int `json:"retry_count"`
}

// Session is one user's conversational state. Created lazily on first
// contact; no durability guarantee beyond the configured store backend.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	State  State     `json:"state"`
	Fields Fields    `json:"fields"`
}

// Reset returns the session to the initial state with empty fields.
func (s *Session) Reset() {
	s.State = StateInitial
	s.Fields = Fields{}
}

// Restart replaces the fields wholesale and enters the first document stage.
func (s *Session) Restart() {
	s.Fields = Fields{}
	s.State = StateAwaitingIDFront
}
