// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"devis_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Company Domain Events
// =============================================================================

// CompanyRegistered is published after a company account is created.
type CompanyRegistered struct {
	BaseEvent
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
}

func (e CompanyRegistered) EventName() string { return "company.registered" }

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteCreated is published when a draft quote is opened from the chat.
type QuoteCreated struct {
	BaseEvent
	QuoteID   uuid.UUID `json:"quoteId"`
	CompanyID uuid.UUID `json:"companyId"`
	Number    string    `json:"number"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }

// QuoteEmailed is published once the quote PDF has been handed to the mailer.
type QuoteEmailed struct {
	BaseEvent
	QuoteID   uuid.UUID `json:"quoteId"`
	CompanyID uuid.UUID `json:"companyId"`
	Number    string    `json:"number"`
	ToEmail   string    `json:"toEmail"`
	PDFKey    string    `json:"pdfKey,omitempty"`
	Queued    bool      `json:"queued"`
}

func (e QuoteEmailed) EventName() string { return "quotes.quote.emailed" }

// =============================================================================
// Feedback Domain Events
// =============================================================================

type FeedbackSubmitted struct {
	BaseEvent
	FeedbackID uuid.UUID `json:"feedbackId"`
	Message    string    `json:"message"`
	Email      string    `json:"email,omitempty"`
}

func (e FeedbackSubmitted) EventName() string { return "feedback.submitted" }
