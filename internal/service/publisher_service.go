package service

import (
	"encoding/json"
	"time"

	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// UsageTopic is the in-process queue for fire-and-forget telemetry. Events
// are decoupled from the request path: the research service publishes here
// and the telemetry consumer forwards downstream with no delivery guarantee.
const UsageTopic = "usage-events"

// usageEnvelope is the wire form of an event on the usage queue. EventID is
// assigned at publish time so downstream sinks can dedupe.
type usageEnvelope struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type IUsagePublisherService interface {
	Publish(event events.Event)
}

type usagePublisherService struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger
}

func NewUsagePublisherService(pubSub *gochannel.GoChannel, log logger.ILogger) IUsagePublisherService {
	return &usagePublisherService{
		pubSub: pubSub,
		log:    log,
	}
}

// Publish enqueues one event. Errors are logged and swallowed; telemetry
// must never fail the enclosing conversational turn.
func (ps *usagePublisherService) Publish(event events.Event) {
	envelope := usageEnvelope{
		EventID:   uuid.NewString(),
		EventType: event.EventType(),
		Payload:   event.Payload(),
		Timestamp: event.Timestamp(),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		ps.log.Error("usage", "event marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	msg := message.NewMessage(envelope.EventID, raw)
	if err := ps.pubSub.Publish(UsageTopic, msg); err != nil {
		ps.log.Warn("usage", "event publish failed", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}
