package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event.
type EventType string

// Event types.
const (
	EventTypeDecision       EventType = "decision"
	EventTypeReload         EventType = "reload"
	EventTypeAdministrative EventType = "administrative"
)

// Outcome represents the outcome of an audited action.
type Outcome string

// Outcomes.
const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeDenied    Outcome = "denied"
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailure   Outcome = "failure"
)

// Event represents an audit event. Decision events carry the full
// request tuple so the log is sufficient for audit parity with the
// broker's own request log.
type Event struct {
	// ID is a unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the type of event.
	Type EventType `json:"type"`

	// Outcome is the outcome of the action.
	Outcome Outcome `json:"outcome"`

	// PrincipalType is the type tag of the requesting principal.
	PrincipalType string `json:"principal_type,omitempty"`

	// Principal is the name of the requesting principal.
	Principal string `json:"principal,omitempty"`

	// Operation is the broker operation that was requested.
	Operation string `json:"operation,omitempty"`

	// Resource is the "<resourceType>:<resourceName>" target.
	Resource string `json:"resource,omitempty"`

	// Cached indicates the verdict was served from the cache.
	Cached bool `json:"cached,omitempty"`

	// Detail carries free-form context (reload errors, rule counts).
	Detail string `json:"detail,omitempty"`
}

// NewEvent creates a new audit event with a generated ID and the
// current timestamp.
func NewEvent(eventType EventType, outcome Outcome) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Outcome:   outcome,
	}
}

// NewDecisionEvent creates an audit event for an authorization
// decision.
func NewDecisionEvent(allowed bool, principalType, principal, operation, resource string, cached bool) *Event {
	outcome := OutcomeDenied
	if allowed {
		outcome = OutcomeAllowed
	}
	event := NewEvent(EventTypeDecision, outcome)
	event.PrincipalType = principalType
	event.Principal = principal
	event.Operation = operation
	event.Resource = resource
	event.Cached = cached
	return event
}

// NewReloadEvent creates an audit event for a rule reload attempt.
func NewReloadEvent(outcome Outcome, detail string) *Event {
	event := NewEvent(EventTypeReload, outcome)
	event.Detail = detail
	return event
}
