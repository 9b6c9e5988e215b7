package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind classifies an outbound message for the client.
type MessageKind string

const (
	KindText              MessageKind = "text"
	KindExtractionSuccess MessageKind = "extraction-success"
	KindActionRequired    MessageKind = "action-required"
	KindError             MessageKind = "error"
)

// Client actions the frontend understands (e.g. open camera for a document).
const (
	ActionUploadIdentity  = "upload_identity"
	ActionUploadTax       = "upload_tax"
	ActionUploadLivePhoto = "upload_live_photo"
)

// Payload carries display fields and/or a suggested client action.
type Payload struct {
	ExtractedData map[string]string `json:"extractedData,omitempty"`
	Action        string            `json:"action,omitempty"`
}

// Message is one entry of a chat response.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Kind      MessageKind `json:"type"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   *Payload    `json:"payload,omitempty"`
}

// Response is the ordered list of messages produced by one inbound event.
type Response struct {
	Messages []Message `json:"messages"`
}

// NewResponse builds a single-message response.
func NewResponse(kind MessageKind, text string, payload *Payload) *Response {
	return &Response{Messages: []Message{{
		ID:        uuid.New(),
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
		Payload:   payload,
	}}}
}

// Text is shorthand for a plain text response.
func Text(text string) *Response {
	return NewResponse(KindText, text, nil)
}

// ActionRequired prompts the client to perform an action, typically opening
// the camera for a document.
func ActionRequired(text, action string) *Response {
	return NewResponse(KindActionRequired, text, &Payload{Action: action})
}

// ExtractionSuccess echoes extracted fields for user review.
func ExtractionSuccess(text string, fields map[string]string) *Response {
	return NewResponse(KindExtractionSuccess, text, &Payload{ExtractedData: fields})
}

// Error reports a failure the user can usually recover from in place.
func Error(text string) *Response {
	return NewResponse(KindError, text, nil)
}
