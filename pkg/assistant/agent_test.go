package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/llm"
)

// scriptedProvider plays back a fixed sequence of completions, recording every
// request it receives. The last step repeats if the agent asks again.
type scriptedProvider struct {
	steps []func(req llm.ChatRequest, onDelta func(string) error) (*llm.Completion, error)
	calls []llm.ChatRequest
}

func (p *scriptedProvider) StreamChat(_ context.Context, req llm.ChatRequest, onDelta func(string) error) (*llm.Completion, error) {
	p.calls = append(p.calls, req)
	step := p.steps[0]
	if len(p.steps) > 1 {
		p.steps = p.steps[1:]
	}
	return step(req, onDelta)
}

func streamText(text string) func(llm.ChatRequest, func(string) error) (*llm.Completion, error) {
	return func(_ llm.ChatRequest, onDelta func(string) error) (*llm.Completion, error) {
		for _, chunk := range strings.SplitAfter(text, " ") {
			if err := onDelta(chunk); err != nil {
				return nil, err
			}
		}
		return &llm.Completion{Text: text, StopReason: "end_turn"}, nil
	}
}

func requestTool(name, input string) func(llm.ChatRequest, func(string) error) (*llm.Completion, error) {
	return func(llm.ChatRequest, func(string) error) (*llm.Completion, error) {
		return &llm.Completion{
			ToolCalls: []llm.ToolCall{
				{ID: "call-1", Name: name, Input: json.RawMessage(input)},
			},
			StopReason: "tool_use",
		}, nil
	}
}

func newTestAgent(provider llm.Provider) *Agent {
	return NewAgent(provider, NewToolkit(), logger.NewNopLogger(), 1024, 3)
}

func TestRespondStreamsPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{steps: []func(llm.ChatRequest, func(string) error) (*llm.Completion, error){
		streamText("DSCR loans qualify the property."),
	}}
	agent := newTestAgent(provider)

	var streamed strings.Builder
	answer, err := agent.Respond(context.Background(), []llm.Message{{Role: "user", Content: "what is dscr?"}}, func(text string) error {
		streamed.WriteString(text)
		return nil
	})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if answer != "DSCR loans qualify the property." {
		t.Errorf("answer = %q", answer)
	}
	if streamed.String() != answer {
		t.Errorf("streamed %q, returned %q", streamed.String(), answer)
	}
	if len(provider.calls) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.calls))
	}
	if len(provider.calls[0].Tools) == 0 {
		t.Error("first request carried no tool definitions")
	}
}

func TestRespondRunsToolRound(t *testing.T) {
	provider := &scriptedProvider{steps: []func(llm.ChatRequest, func(string) error) (*llm.Completion, error){
		requestTool(ToolAnalyzeDeal, `{"purchasePrice":100000,"arv":200000,"rehabCost":20000}`),
		streamText("The deal rates an A with 52.8% ROI."),
	}}
	agent := newTestAgent(provider)

	answer, err := agent.Respond(context.Background(), []llm.Message{{Role: "user", Content: "analyze this deal"}}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !strings.Contains(answer, "rates an A") {
		t.Errorf("answer = %q", answer)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(provider.calls))
	}

	// The follow-up request must carry the assistant tool call and its result.
	followUp := provider.calls[1].Messages
	assistantMsg := followUp[len(followUp)-2]
	resultMsg := followUp[len(followUp)-1]

	if len(assistantMsg.ToolCalls) != 1 || assistantMsg.ToolCalls[0].Name != ToolAnalyzeDeal {
		t.Errorf("assistant message tool calls = %+v", assistantMsg.ToolCalls)
	}
	if len(resultMsg.ToolResults) != 1 {
		t.Fatalf("tool results = %+v", resultMsg.ToolResults)
	}
	result := resultMsg.ToolResults[0]
	if result.ToolCallID != "call-1" || result.IsError {
		t.Errorf("tool result = %+v", result)
	}
	if !strings.Contains(result.Content, `"rating":"A"`) {
		t.Errorf("tool result content = %q", result.Content)
	}
}

func TestRespondFeedsToolErrorsBack(t *testing.T) {
	provider := &scriptedProvider{steps: []func(llm.ChatRequest, func(string) error) (*llm.Completion, error){
		requestTool(ToolAnalyzeDeal, `{"purchasePrice":0,"arv":200000}`),
		streamText("I need a purchase price to analyze that."),
	}}
	agent := newTestAgent(provider)

	if _, err := agent.Respond(context.Background(), []llm.Message{{Role: "user", Content: "analyze"}}, func(string) error { return nil }); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	followUp := provider.calls[1].Messages
	result := followUp[len(followUp)-1].ToolResults[0]
	if !result.IsError {
		t.Error("validation failure not flagged as tool error")
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("error content is not valid JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Errorf("error payload = %q", result.Content)
	}
}

func TestRespondForcesAnswerAfterToolBudget(t *testing.T) {
	provider := &scriptedProvider{steps: []func(llm.ChatRequest, func(string) error) (*llm.Completion, error){
		requestTool(ToolGetLoanOptions, `{"loanAmount":200000,"propertyType":"single_family","loanPurpose":"purchase"}`),
	}}
	agent := NewAgent(provider, NewToolkit(), logger.NewNopLogger(), 1024, 2)

	// The scripted provider repeats its last step, so it keeps requesting
	// tools until the agent withdraws them.
	_, err := agent.Respond(context.Background(), []llm.Message{{Role: "user", Content: "loop"}}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if len(provider.calls) != 3 {
		t.Fatalf("provider called %d times, want 3", len(provider.calls))
	}
	if provider.calls[2].Tools != nil {
		t.Error("final forced request still offered tools")
	}
}

func TestRespondSurfacesProviderError(t *testing.T) {
	provider := &scriptedProvider{steps: []func(llm.ChatRequest, func(string) error) (*llm.Completion, error){
		func(llm.ChatRequest, func(string) error) (*llm.Completion, error) {
			return nil, errors.New("overloaded")
		},
	}}
	agent := newTestAgent(provider)

	if _, err := agent.Respond(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, func(string) error { return nil }); err == nil {
		t.Fatal("expected provider error to surface")
	}
}
