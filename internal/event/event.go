package event

import "time"

// Type classifies how an incident changed relative to what has been
// seen before.
type Type string

const (
	// TypeNew marks the first observation of an incident id for a provider.
	TypeNew Type = "new"

	// TypeUpdated marks a subsequent observation whose updated timestamp
	// differs from the last recorded value.
	TypeUpdated Type = "updated"
)

// String returns the string representation of the event type.
func (t Type) String() string {
	return string(t)
}

// StatusEvent represents a single detected status change for one provider.
//
// StatusEvent is an immutable value: it is constructed exactly once by the
// scheduler when a change is detected and never mutated afterwards.
// Consumers receive copies via the [Bus].
//
// The JSON tags are used by the SSE consumer to stream events to browsers.
type StatusEvent struct {
	// Provider is the name of the status-page source that emitted the entry.
	Provider string `json:"provider"`

	// Product is the configured product label joined with the entry title,
	// e.g. "OpenAI API - Degraded performance".
	Product string `json:"product"`

	// Status is the raw entry title.
	Status string `json:"status"`

	// Message is the entry summary with HTML stripped.
	Message string `json:"message"`

	// Timestamp is parsed from the entry's updated field, or the publish
	// time when the field could not be parsed.
	Timestamp time.Time `json:"timestamp"`

	// IncidentID is the entry's unique id within the provider's feed.
	IncidentID string `json:"incident_id"`

	// Type records whether the incident is new or updated.
	Type Type `json:"event_type"`
}
