package service

import (
	"context"
	"encoding/json"
	"time"

	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/crm"
	"capital-research-be/pkg/events"
	pkgNats "capital-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type ITelemetryService interface {
	Consume(ctx context.Context) error
}

// telemetryService drains the usage queue and forwards each event to the CRM
// webhook and the NATS mirror. Both destinations are optional and
// best-effort; a failure is logged and the message acked regardless.
type telemetryService struct {
	pubSub  *gochannel.GoChannel
	crm     *crm.Client
	natsPub *pkgNats.Publisher
	log     logger.ILogger
}

func NewTelemetryService(
	pubSub *gochannel.GoChannel,
	crmClient *crm.Client,
	natsPub *pkgNats.Publisher,
	log logger.ILogger,
) ITelemetryService {
	return &telemetryService{
		pubSub:  pubSub,
		crm:     crmClient,
		natsPub: natsPub,
		log:     log,
	}
}

func (ts *telemetryService) Consume(ctx context.Context) error {
	messages, err := ts.pubSub.Subscribe(ctx, UsageTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ts.processMessage(msg)
		}
	}()

	return nil
}

func (ts *telemetryService) processMessage(msg *message.Message) {
	var envelope usageEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		ts.log.Error("telemetry", "failed to unmarshal usage event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if ts.crm != nil && ts.crm.Configured() {
		accepted := ts.crm.Emit(ctx, envelope.EventType, envelope.Payload)
		ts.log.Info("telemetry", "forwarded event to CRM", map[string]interface{}{
			"event_type": envelope.EventType,
			"accepted":   accepted,
		})
	}

	if ts.natsPub != nil {
		event := events.BaseEvent{
			Type:       envelope.EventType,
			Data:       envelope.Payload,
			OccurredAt: envelope.Timestamp,
		}
		if err := ts.natsPub.Publish(ctx, event); err != nil {
			ts.log.Warn("telemetry", "NATS mirror failed", map[string]interface{}{
				"event_type": envelope.EventType,
				"error":      err.Error(),
			})
		}
	}

	msg.Ack()
}
