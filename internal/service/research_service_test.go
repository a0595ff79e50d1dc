package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"capital-research-be/internal/dto"
	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/assistant"
	"capital-research-be/pkg/events"
	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/llm"
	"capital-research-be/pkg/search"
	"capital-research-be/pkg/session"
)

type stubKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newStubKV() *stubKV {
	return &stubKV{data: make(map[string]string)}
}

func (s *stubKV) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return value, nil
}

func (s *stubKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *stubKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) StreamChat(_ context.Context, _ llm.ChatRequest, onDelta func(string) error) (*llm.Completion, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := onDelta(p.text); err != nil {
		return nil, err
	}
	return &llm.Completion{Text: p.text, StopReason: "end_turn"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.EventType())
	}
	return types
}

func newTestService(provider llm.Provider, publisher IUsagePublisherService, sessions *session.Store) IResearchService {
	log := logger.NewNopLogger()
	agent := assistant.NewAgent(provider, assistant.NewToolkit(), log, 1024, 2)
	fanout := search.NewFanout(nil, nil, nil, log, time.Second)
	return NewResearchService(knowledge.NewDefaultStore(), sessions, fanout, agent, publisher, log, true, false)
}

func newTestSessions() *session.Store {
	return session.NewStore(newStubKV(), logger.NewNopLogger(), time.Hour, time.Hour, 50)
}

func TestResolveSessionLinksUser(t *testing.T) {
	publisher := &recordingPublisher{}
	sessions := newTestSessions()
	svc := newTestService(&stubProvider{text: "ok"}, publisher, sessions)
	ctx := context.Background()

	id := svc.ResolveSession(ctx, "", "user-7")
	if id == "" {
		t.Fatal("expected a session id")
	}
	if got := sessions.SessionForUser(ctx, "user-7"); got != id {
		t.Errorf("user index = %q, want %q", got, id)
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != "session_linked" {
		t.Errorf("published events = %v, want [session_linked]", types)
	}

	// Same session again: already linked, no duplicate event.
	if again := svc.ResolveSession(ctx, id, "user-7"); again != id {
		t.Errorf("ResolveSession returned %q, want %q", again, id)
	}
	if types := publisher.eventTypes(); len(types) != 1 {
		t.Errorf("duplicate link published: %v", types)
	}
}

func TestResolveSessionAnonymous(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := newTestService(&stubProvider{text: "ok"}, publisher, newTestSessions())

	if id := svc.ResolveSession(context.Background(), "", ""); id == "" {
		t.Fatal("expected a session id for anonymous requests")
	}
	if types := publisher.eventTypes(); len(types) != 0 {
		t.Errorf("anonymous resolve published %v", types)
	}
}

func TestStreamDeliversAnswerAndPersists(t *testing.T) {
	publisher := &recordingPublisher{}
	sessions := newTestSessions()
	svc := newTestService(&stubProvider{text: "DSCR loans qualify the property."}, publisher, sessions)
	ctx := context.Background()

	sessionID := svc.ResolveSession(ctx, "", "")
	req := &dto.ResearchRequest{
		Messages:   []dto.ChatMessageDTO{{Role: "user", Content: "what is a dscr loan?"}},
		SearchType: "general",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var streamed strings.Builder
	if err := svc.Stream(ctx, req, sessionID, func(text string) error {
		streamed.WriteString(text)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if streamed.String() != "DSCR loans qualify the property." {
		t.Errorf("streamed = %q", streamed.String())
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != "research_query" {
		t.Errorf("published events = %v, want [research_query]", types)
	}

	// Persistence runs on its own goroutine; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		transcript := sessions.RecentTranscript(ctx, sessionID, 10)
		if strings.Contains(transcript, "User: what is a dscr loan?") &&
			strings.Contains(transcript, "Assistant: DSCR loans qualify the property.") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("exchange never persisted, transcript = %q", transcript)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStreamSurfacesGenerationFailure(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := newTestService(&stubProvider{err: errors.New("overloaded")}, publisher, newTestSessions())
	ctx := context.Background()

	sessionID := svc.ResolveSession(ctx, "", "")
	req := &dto.ResearchRequest{
		Messages:   []dto.ChatMessageDTO{{Role: "user", Content: "hi"}},
		SearchType: "general",
	}

	err := svc.Stream(ctx, req, sessionID, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected generation failure to surface")
	}

	types := publisher.eventTypes()
	if len(types) != 1 || types[0] != "assistant_error" {
		t.Errorf("published events = %v, want [assistant_error]", types)
	}
}

func TestHealthReportsSources(t *testing.T) {
	svc := newTestService(&stubProvider{text: "ok"}, &recordingPublisher{}, newTestSessions())

	health := svc.Health()
	if health.Status != "ok" {
		t.Errorf("status = %q", health.Status)
	}
	if health.Sources["web_search"] || health.Sources["deep_analysis"] || health.Sources["market_data"] {
		t.Errorf("unconfigured sources reported available: %v", health.Sources)
	}
	if !health.Sources["generation"] {
		t.Error("generation should be reported configured")
	}
	if health.Sources["crm"] {
		t.Error("crm should be reported unconfigured")
	}
}

func TestInferIntent(t *testing.T) {
	tests := []struct {
		query      string
		searchType string
		want       session.Intent
	}{
		{"can I get a dscr loan", "general", session.IntentLending},
		{"what returns do notes pay", "general", session.IntentInvesting},
		{"find off-market properties in austin", "general", session.IntentPropertySearch},
		{"hello there", "finance", session.IntentInvesting},
		{"hello there", "real_estate", session.IntentPropertySearch},
		{"hello there", "general", session.IntentGeneral},
	}

	for _, tt := range tests {
		if got := inferIntent(tt.query, tt.searchType); got != tt.want {
			t.Errorf("inferIntent(%q, %s) = %s, want %s", tt.query, tt.searchType, got, tt.want)
		}
	}
}

func TestCategoryFor(t *testing.T) {
	if got := categoryFor(search.TypeRealEstate); got != knowledge.CategoryRealEstate {
		t.Errorf("categoryFor(real_estate) = %s", got)
	}
	if got := categoryFor(search.TypeFinance); got != knowledge.CategoryInvestmentInfo {
		t.Errorf("categoryFor(finance) = %s", got)
	}
	if got := categoryFor(search.TypeGeneral); got != "" {
		t.Errorf("categoryFor(general) = %s", got)
	}
}
