package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"capital-research-be/internal/pkg/logger"
	"capital-research-be/pkg/llm"
)

const systemPrompt = "You are the research assistant for a real-estate capital brokerage. " +
	"You help investors evaluate deals, match loan products, and understand passive " +
	"investment options. Ground every answer in the context block attached to the user's " +
	"message; prefer internal knowledge over web results when they conflict. Use the " +
	"provided tools for any deal math, loan matching, return projection, or property " +
	"search instead of estimating. Be direct and numerate; do not invent rates or terms."

// Agent drives the tool-calling generation loop: stream a completion, run any
// requested tools, feed results back, repeat. The model gets at most
// maxToolSteps tool rounds before it is forced to answer directly.
type Agent struct {
	provider     llm.Provider
	toolkit      *Toolkit
	log          logger.ILogger
	maxTokens    int
	maxToolSteps int
}

func NewAgent(provider llm.Provider, toolkit *Toolkit, log logger.ILogger, maxTokens, maxToolSteps int) *Agent {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	if maxToolSteps <= 0 {
		maxToolSteps = 5
	}
	return &Agent{
		provider:     provider,
		toolkit:      toolkit,
		log:          log,
		maxTokens:    maxTokens,
		maxToolSteps: maxToolSteps,
	}
}

// Respond streams the assistant's reply for the given history, forwarding
// text deltas to onDelta, and returns the full final text. Tool rounds do not
// produce deltas; only generated prose reaches the caller.
func (a *Agent) Respond(ctx context.Context, messages []llm.Message, onDelta func(text string) error) (string, error) {
	msgs := make([]llm.Message, len(messages))
	copy(msgs, messages)

	var finalText strings.Builder
	tools := a.toolkit.Definitions()

	for step := 0; step <= a.maxToolSteps; step++ {
		req := llm.ChatRequest{
			System:    systemPrompt,
			Messages:  msgs,
			Tools:     tools,
			MaxTokens: a.maxTokens,
		}
		if step == a.maxToolSteps {
			// Out of tool budget; the next completion must be the answer.
			req.Tools = nil
		}

		completion, err := a.provider.StreamChat(ctx, req, func(text string) error {
			finalText.WriteString(text)
			return onDelta(text)
		})
		if err != nil {
			return finalText.String(), err
		}

		if len(completion.ToolCalls) == 0 {
			return finalText.String(), nil
		}

		msgs = append(msgs, llm.Message{
			Role:      "assistant",
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		results := make([]llm.ToolResult, 0, len(completion.ToolCalls))
		for _, call := range completion.ToolCalls {
			content, err := a.toolkit.Dispatch(call)
			isError := false
			if err != nil {
				a.log.Warn("assistant", "tool call failed", map[string]interface{}{
					"tool":  call.Name,
					"error": err.Error(),
				})
				raw, _ := json.Marshal(map[string]string{"error": err.Error()})
				content = string(raw)
				isError = true
			}
			results = append(results, llm.ToolResult{
				ToolCallID: call.ID,
				Content:    content,
				IsError:    isError,
			})
		}

		msgs = append(msgs, llm.Message{
			Role:        "user",
			ToolResults: results,
		})
	}

	return finalText.String(), nil
}
