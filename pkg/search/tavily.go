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

// WebResult is one entry from the web-search provider.
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// WebSignals is the web-search contribution to the prompt context.
type WebSignals struct {
	Results []WebResult `json:"results"`
	Answer  string      `json:"answer,omitempty"`
}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		APIKey:  apiKey,
		BaseURL: "https://api.tavily.com",
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tavilySearchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilySearchResponse struct {
	Answer  string      `json:"answer"`
	Results []WebResult `json:"results"`
}

// Search runs an advanced-depth search with an inline synthesized answer,
// optionally restricted to a domain allow-list, capped at 8 results.
func (t *TavilyClient) Search(ctx context.Context, query string, domains []string) (*WebSignals, error) {
	reqPayload := tavilySearchRequest{
		APIKey:         t.APIKey,
		Query:          query,
		SearchDepth:    "advanced",
		IncludeAnswer:  true,
		MaxResults:     8,
		IncludeDomains: domains,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.BaseURL+"/search", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var searchResp tavilySearchResponse
	if err := json.Unmarshal(bodyBytes, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &WebSignals{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}
