package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const analysisSystemPrompt = "You are a concise research analyst for real estate investors. " +
	"Answer in a few short paragraphs, cite sources inline, and state uncertainty plainly."

// PerplexityClient calls the Perplexity chat-completions API for a
// single-turn, sourced deep analysis of a query.
type PerplexityClient struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Client    *http.Client
}

func NewPerplexityClient(apiKey, model string, maxTokens int) *PerplexityClient {
	if model == "" {
		model = "sonar"
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &PerplexityClient{
		APIKey:    apiKey,
		BaseURL:   "https://api.perplexity.ai",
		Model:     model,
		MaxTokens: maxTokens,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model     string              `json:"model"`
	Messages  []perplexityMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens"`
}

type perplexityResponse struct {
	Choices []struct {
		Message perplexityMessage `json:"message"`
	} `json:"choices"`
}

// Analyze runs one bounded completion and returns the analysis text.
func (p *PerplexityClient) Analyze(ctx context.Context, query string) (string, error) {
	reqPayload := perplexityRequest{
		Model: p.Model,
		Messages: []perplexityMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: query},
		},
		MaxTokens: p.MaxTokens,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/chat/completions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("perplexity request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("perplexity error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp perplexityResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("perplexity returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
