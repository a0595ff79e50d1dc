package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"capital-research-be/pkg/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// Provider streams completions from the Anthropic messages API, surfacing
// text deltas as they arrive and collecting tool-use blocks for the caller.
type Provider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

var _ llm.Provider = &Provider{}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultBaseURL,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// --- Wire structs (internal to this package) ---

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type wireTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Stream      bool          `json:"stream"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`

	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`

	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// StreamChat issues one streaming generation. Text deltas are forwarded to
// onDelta as they arrive; tool_use blocks are accumulated and returned on the
// completion once the stream ends.
func (p *Provider) StreamChat(ctx context.Context, req llm.ChatRequest, onDelta func(text string) error) (*llm.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	payload := messagesRequest{
		Model:       p.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    toWireMessages(req.Messages),
		Tools:       toWireTools(req.Tools),
		Stream:      true,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/v1/messages", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return p.consumeStream(resp.Body, onDelta)
}

func (p *Provider) consumeStream(body io.Reader, onDelta func(text string) error) (*llm.Completion, error) {
	completion := &llm.Completion{}
	var text strings.Builder

	// Tool input JSON arrives as partial_json fragments keyed by block index.
	type pendingTool struct {
		id    string
		name  string
		input strings.Builder
	}
	pending := make(map[int]*pendingTool)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(line[len("data: "):]), &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				pending[event.Index] = &pendingTool{
					id:   event.ContentBlock.ID,
					name: event.ContentBlock.Name,
				}
			}

		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				text.WriteString(event.Delta.Text)
				if err := onDelta(event.Delta.Text); err != nil {
					return nil, fmt.Errorf("delta callback: %w", err)
				}
			case "input_json_delta":
				if tool, ok := pending[event.Index]; ok {
					tool.input.WriteString(event.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if tool, ok := pending[event.Index]; ok {
				input := tool.input.String()
				if input == "" {
					input = "{}"
				}
				completion.ToolCalls = append(completion.ToolCalls, llm.ToolCall{
					ID:    tool.id,
					Name:  tool.name,
					Input: json.RawMessage(input),
				})
				delete(pending, event.Index)
			}

		case "message_delta":
			if event.Delta.StopReason != "" {
				completion.StopReason = event.Delta.StopReason
			}

		case "error":
			return nil, fmt.Errorf("anthropic stream error: %s: %s", event.Error.Type, event.Error.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	completion.Text = text.String()
	return completion, nil
}

func toWireMessages(messages []llm.Message) []wireMessage {
	wire := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		var blocks []contentBlock

		for _, result := range msg.ToolResults {
			blocks = append(blocks, contentBlock{
				Type:      "tool_result",
				ToolUseID: result.ToolCallID,
				Content:   result.Content,
				IsError:   result.IsError,
			})
		}

		if msg.Content != "" {
			blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
		}

		for _, call := range msg.ToolCalls {
			input := call.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			blocks = append(blocks, contentBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: input,
			})
		}

		if len(blocks) == 0 {
			// The API rejects empty content; keep the turn with a blank text block.
			blocks = append(blocks, contentBlock{Type: "text", Text: " "})
		}

		wire = append(wire, wireMessage{Role: msg.Role, Content: blocks})
	}
	return wire
}

func toWireTools(tools []llm.Tool) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	wire := make([]wireTool, 0, len(tools))
	for _, tool := range tools {
		wire = append(wire, wireTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return wire
}
