package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/crm"
	"capital-research-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

func TestUsageEventReachesWebhook(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("webhook body not valid JSON: %v", err)
		}
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	log := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	// Consumer first so the subscription exists before the publish.
	telemetry := NewTelemetryService(pubSub, crm.NewClient(webhook.URL, log), nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := telemetry.Consume(ctx); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	publisher := NewUsagePublisherService(pubSub, log)
	publisher.Publish(events.NewResearchQuery("session_1_abc", "what is dscr?", "general"))

	select {
	case body := <-received:
		if body["eventType"] != "research_query" {
			t.Errorf("eventType = %v", body["eventType"])
		}
		if body["session_id"] != "session_1_abc" {
			t.Errorf("session_id = %v", body["session_id"])
		}
		if body["timestamp"] == nil {
			t.Error("timestamp missing")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("webhook never received the event")
	}
}

func TestTelemetrySkipsUnconfiguredCRM(t *testing.T) {
	log := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	telemetry := NewTelemetryService(pubSub, crm.NewClient("", log), nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := telemetry.Consume(ctx); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// Publishing with no CRM configured must not block or panic; the message
	// is consumed and acked so the queue drains.
	publisher := NewUsagePublisherService(pubSub, log)
	publisher.Publish(events.NewSessionLinked("session_1_abc", "user-1"))

	time.Sleep(100 * time.Millisecond)
}
