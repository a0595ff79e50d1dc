package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"capital-research-be/internal/dto"
	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/assistant"
	"capital-research-be/pkg/events"
	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/llm"
	"capital-research-be/pkg/prompt"
	"capital-research-be/pkg/search"
	"capital-research-be/pkg/session"
)

// transcriptWindow is how many prior turns are rendered into the context.
const transcriptWindow = 6

type IResearchService interface {
	// ResolveSession returns the live session id for the request, creating a
	// session when needed and linking it to the authenticated user if any.
	ResolveSession(ctx context.Context, sessionID, userID string) string

	// Stream gathers signals, runs the tool-calling generation and forwards
	// text deltas to onDelta. Only a generation failure returns an error.
	Stream(ctx context.Context, req *dto.ResearchRequest, sessionID string, onDelta func(text string) error) error

	Health() *dto.HealthResponse
}

type researchService struct {
	knowledge *knowledge.Store
	sessions  *session.Store
	fanout    *search.Fanout
	agent     *assistant.Agent
	usage     IUsagePublisherService
	log       logger.ILogger

	llmConfigured bool
	crmConfigured bool
}

func NewResearchService(
	knowledgeStore *knowledge.Store,
	sessions *session.Store,
	fanout *search.Fanout,
	agent *assistant.Agent,
	usage IUsagePublisherService,
	log logger.ILogger,
	llmConfigured bool,
	crmConfigured bool,
) IResearchService {
	return &researchService{
		knowledge:     knowledgeStore,
		sessions:      sessions,
		fanout:        fanout,
		agent:         agent,
		usage:         usage,
		log:           log,
		llmConfigured: llmConfigured,
		crmConfigured: crmConfigured,
	}
}

func (rs *researchService) ResolveSession(ctx context.Context, sessionID, userID string) string {
	sess := rs.sessions.GetOrCreate(ctx, sessionID)
	if userID != "" && sess.UserID != userID {
		rs.sessions.LinkToUser(ctx, sess.ID, userID)
		rs.usage.Publish(events.NewSessionLinked(sess.ID, userID))
	}
	return sess.ID
}

func (rs *researchService) Stream(ctx context.Context, req *dto.ResearchRequest, sessionID string, onDelta func(text string) error) error {
	query := req.Query()

	// Knowledge lookup is in-memory and effectively instant; the fan-out
	// parallelizes its own three sources internally.
	hits := rs.knowledge.Search(query, categoryFor(req.SearchType), 5)
	signals := rs.fanout.GatherSignals(ctx, query, req.SearchType)
	transcript := rs.sessions.RecentTranscript(ctx, sessionID, transcriptWindow)

	contextBlock := prompt.NewAssembler(hits, signals, transcript).Build()

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	finalMessage := query
	if contextBlock != "" {
		finalMessage = query + "\n\n--- RESEARCH CONTEXT ---\n" + contextBlock
	}
	messages = append(messages, llm.Message{Role: "user", Content: finalMessage})

	answer, genErr := rs.agent.Respond(ctx, messages, onDelta)

	// Persistence is detached from the request lifetime: it is attempted
	// even when the client disconnected or generation failed mid-stream.
	go rs.persistExchange(sessionID, query, answer, req.SearchType)

	if genErr != nil {
		rs.log.Error("research", "generation failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      genErr.Error(),
		})
		rs.usage.Publish(events.NewAssistantError(sessionID, genErr.Error()))
		return fmt.Errorf("research generation failed: %w", genErr)
	}

	rs.usage.Publish(events.NewResearchQuery(sessionID, query, req.SearchType))
	return nil
}

func (rs *researchService) Health() *dto.HealthResponse {
	return &dto.HealthResponse{
		Status: "ok",
		Sources: map[string]bool{
			"web_search":    rs.fanout.Web != nil,
			"deep_analysis": rs.fanout.Analysis != nil,
			"market_data":   rs.fanout.Market != nil,
			"generation":    rs.llmConfigured,
			"crm":           rs.crmConfigured,
		},
	}
}

func (rs *researchService) persistExchange(sessionID, query, answer, searchType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rs.sessions.AppendTurn(ctx, sessionID, session.RoleUser, query)
	if answer != "" {
		rs.sessions.AppendTurn(ctx, sessionID, session.RoleAssistant, answer)
	}

	intent := inferIntent(query, searchType)
	rs.sessions.UpdateContext(ctx, sessionID, session.ContextPatch{Intent: &intent})
}

func categoryFor(searchType string) knowledge.Category {
	switch searchType {
	case search.TypeRealEstate:
		return knowledge.CategoryRealEstate
	case search.TypeFinance:
		return knowledge.CategoryInvestmentInfo
	default:
		return ""
	}
}

var lendingKeywords = []string{"loan", "lend", "financ", "dscr", "refinance", "bridge", "mortgage"}
var investingKeywords = []string{"invest", "return", "note", "syndication", "passive", "yield"}
var propertyKeywords = []string{"property", "properties", "house", "listing", "seller", "off-market"}

func inferIntent(query, searchType string) session.Intent {
	lowered := strings.ToLower(query)
	for _, keyword := range lendingKeywords {
		if strings.Contains(lowered, keyword) {
			return session.IntentLending
		}
	}
	for _, keyword := range investingKeywords {
		if strings.Contains(lowered, keyword) {
			return session.IntentInvesting
		}
	}
	for _, keyword := range propertyKeywords {
		if strings.Contains(lowered, keyword) {
			return session.IntentPropertySearch
		}
	}
	switch searchType {
	case search.TypeFinance:
		return session.IntentInvesting
	case search.TypeRealEstate:
		return session.IntentPropertySearch
	}
	return session.IntentGeneral
}
