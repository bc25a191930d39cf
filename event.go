package feedwatch

import "time"

// EventType classifies how an incident changed.
//
// An incident id is "new" the first time it is observed for a provider and
// "updated" on any later observation whose recorded update timestamp
// differs from the last seen value.
type EventType string

const (
	// EventNew marks the first observation of an incident.
	EventNew EventType = "new"

	// EventUpdated marks a change to a previously observed incident.
	EventUpdated EventType = "updated"
)

// String returns the string representation of the event type.
// This implements the fmt.Stringer interface.
func (t EventType) String() string {
	return string(t)
}

// StatusEvent is one detected status-page change, as delivered to event
// callbacks registered with [WithEventCallback].
//
// StatusEvent is immutable after creation: the scheduler constructs it
// exactly once per detected change and callbacks receive copies.
type StatusEvent struct {
	// Provider is the name of the status-page source.
	Provider string

	// Product is the configured product label joined with the entry title.
	Product string

	// Status is the entry title.
	Status string

	// Message is the entry summary with HTML stripped.
	Message string

	// Timestamp is parsed from the entry's updated field, or the publish
	// time when the field could not be parsed.
	Timestamp time.Time

	// IncidentID is the entry's unique id within the provider's feed.
	IncidentID string

	// Type records whether the incident is new or updated.
	Type EventType
}

// Provider describes one status-page feed to poll.
type Provider struct {
	// Name uniquely identifies the provider. Required.
	Name string

	// FeedURL is the Atom/RSS feed to poll. Required.
	FeedURL string

	// Product is the label prefixed to entry titles in emitted events.
	// Defaults to Name.
	Product string

	// PollInterval is the base time between polls. Defaults to 30 seconds.
	PollInterval time.Duration
}
