package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"capital-research-be/pkg/llm"
)

func sseBody(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func newStreamServer(t *testing.T, status int, body string, captured *messagesRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, captured); err != nil {
				t.Errorf("request body not valid JSON: %v", err)
			}
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(serverURL string) *Provider {
	provider := NewProvider("test-key", "claude-sonnet-4-20250514")
	provider.BaseURL = serverURL
	return provider
}

func TestStreamChatTextDeltas(t *testing.T) {
	body := sseBody(
		`event: message_start`,
		`data: {"type":"message_start"}`,
		``,
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"DSCR loans "}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"qualify the property."}}`,
		``,
		`data: {"type":"content_block_stop","index":0}`,
		``,
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		``,
		`data: {"type":"message_stop"}`,
	)
	var captured messagesRequest
	server := newStreamServer(t, http.StatusOK, body, &captured)
	provider := newTestProvider(server.URL)

	var deltas []string
	completion, err := provider.StreamChat(context.Background(), llm.ChatRequest{
		System:   "be helpful",
		Messages: []llm.Message{{Role: "user", Content: "what is dscr?"}},
	}, func(text string) error {
		deltas = append(deltas, text)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	if completion.Text != "DSCR loans qualify the property." {
		t.Errorf("Text = %q", completion.Text)
	}
	if completion.StopReason != "end_turn" {
		t.Errorf("StopReason = %q", completion.StopReason)
	}
	if len(deltas) != 2 {
		t.Errorf("deltas = %v", deltas)
	}
	if len(completion.ToolCalls) != 0 {
		t.Errorf("unexpected tool calls: %+v", completion.ToolCalls)
	}

	if !captured.Stream {
		t.Error("request did not ask for streaming")
	}
	if captured.System != "be helpful" {
		t.Errorf("system = %q", captured.System)
	}
}

func TestStreamChatToolUse(t *testing.T) {
	body := sseBody(
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_01","name":"analyzeDeal"}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"purchasePrice\":"}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"100000}"}}`,
		``,
		`data: {"type":"content_block_stop","index":0}`,
		``,
		`data: {"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
	)
	server := newStreamServer(t, http.StatusOK, body, nil)
	provider := newTestProvider(server.URL)

	completion, err := provider.StreamChat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "analyze"}},
	}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	if len(completion.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", completion.ToolCalls)
	}
	call := completion.ToolCalls[0]
	if call.ID != "toolu_01" || call.Name != "analyzeDeal" {
		t.Errorf("call = %+v", call)
	}
	if string(call.Input) != `{"purchasePrice":100000}` {
		t.Errorf("input = %s", call.Input)
	}
	if completion.StopReason != "tool_use" {
		t.Errorf("StopReason = %q", completion.StopReason)
	}
}

func TestStreamChatEmptyToolInput(t *testing.T) {
	body := sseBody(
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_02","name":"getLoanOptions"}}`,
		``,
		`data: {"type":"content_block_stop","index":0}`,
	)
	server := newStreamServer(t, http.StatusOK, body, nil)
	provider := newTestProvider(server.URL)

	completion, err := provider.StreamChat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "loans"}},
	}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if len(completion.ToolCalls) != 1 || string(completion.ToolCalls[0].Input) != "{}" {
		t.Errorf("tool calls = %+v", completion.ToolCalls)
	}
}

func TestStreamChatErrorEvent(t *testing.T) {
	body := sseBody(
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial"}}`,
		``,
		`data: {"type":"error","error":{"type":"overloaded_error","message":"try again"}}`,
	)
	server := newStreamServer(t, http.StatusOK, body, nil)
	provider := newTestProvider(server.URL)

	_, err := provider.StreamChat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "overloaded_error") {
		t.Fatalf("err = %v, want overloaded_error", err)
	}
}

func TestStreamChatHTTPError(t *testing.T) {
	server := newStreamServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, nil)
	provider := newTestProvider(server.URL)

	_, err := provider.StreamChat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}, func(string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("err = %v, want status 401", err)
	}
}

func TestToWireMessages(t *testing.T) {
	messages := []llm.Message{
		{Role: "user", Content: "analyze this"},
		{
			Role:    "assistant",
			Content: "Let me run the numbers.",
			ToolCalls: []llm.ToolCall{
				{ID: "toolu_01", Name: "analyzeDeal", Input: json.RawMessage(`{"arv":200000}`)},
			},
		},
		{
			Role: "user",
			ToolResults: []llm.ToolResult{
				{ToolCallID: "toolu_01", Content: `{"rating":"A"}`},
			},
		},
		{Role: "assistant"},
	}

	wire := toWireMessages(messages)
	if len(wire) != 4 {
		t.Fatalf("len(wire) = %d", len(wire))
	}

	assistant := wire[1]
	if len(assistant.Content) != 2 || assistant.Content[0].Type != "text" || assistant.Content[1].Type != "tool_use" {
		t.Errorf("assistant blocks = %+v", assistant.Content)
	}

	results := wire[2]
	if len(results.Content) != 1 || results.Content[0].Type != "tool_result" || results.Content[0].ToolUseID != "toolu_01" {
		t.Errorf("result blocks = %+v", results.Content)
	}

	// Empty turns are padded so the API accepts them.
	if len(wire[3].Content) != 1 || wire[3].Content[0].Type != "text" {
		t.Errorf("empty turn blocks = %+v", wire[3].Content)
	}
}
