package events

import "time"

// Event defines the contract for all usage/telemetry events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "research_query").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation every emitter uses.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Well-known event types emitted by the research pipeline.
const (
	TypeResearchQuery  = "research_query"
	TypeSessionLinked  = "session_linked"
	TypeAssistantError = "assistant_error"
)

// NewResearchQuery records one inbound chat exchange.
func NewResearchQuery(sessionID, query, searchType string) Event {
	return BaseEvent{
		Type: TypeResearchQuery,
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"query":       query,
			"search_type": searchType,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionLinked records an anonymous session being tied to a user.
func NewSessionLinked(sessionID, userID string) Event {
	return BaseEvent{
		Type: TypeSessionLinked,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: time.Now(),
	}
}

// NewAssistantError records a failed generation turn.
func NewAssistantError(sessionID, reason string) Event {
	return BaseEvent{
		Type: TypeAssistantError,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}
