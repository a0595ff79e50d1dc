package dto

import (
	"fmt"

	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/search"
)

// ChatMessageDTO is one prior turn supplied by the client.
type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResearchRequest is the chat endpoint body.
type ResearchRequest struct {
	Messages   []ChatMessageDTO `json:"messages"`
	SearchType string           `json:"searchType,omitempty"`
	SessionID  string           `json:"sessionId,omitempty"`
}

// Validate normalizes defaults and rejects malformed requests.
func (r *ResearchRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages must not be empty")
	}
	for i, msg := range r.Messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			return fmt.Errorf("messages[%d].role must be user or assistant", i)
		}
		if msg.Content == "" {
			return fmt.Errorf("messages[%d].content must not be empty", i)
		}
	}
	if r.Messages[len(r.Messages)-1].Role != "user" {
		return fmt.Errorf("last message must be from the user")
	}

	switch r.SearchType {
	case "":
		r.SearchType = search.TypeGeneral
	case search.TypeGeneral, search.TypeRealEstate, search.TypeFinance:
	default:
		return fmt.Errorf("searchType must be one of general, real_estate, finance")
	}
	return nil
}

// Query returns the latest user message.
func (r *ResearchRequest) Query() string {
	return r.Messages[len(r.Messages)-1].Content
}

// KnowledgeSearchResponse wraps catalog hits for the admin surface.
type KnowledgeSearchResponse struct {
	Query string          `json:"query"`
	Hits  []knowledge.Hit `json:"hits"`
}

// HealthResponse reports which optional upstream sources are configured.
type HealthResponse struct {
	Status  string          `json:"status"`
	Sources map[string]bool `json:"sources"`
}
