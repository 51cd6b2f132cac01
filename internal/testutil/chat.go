package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ChatStep is one scripted turn of the fake chat backend: either a response
// message or an error.
type ChatStep struct {
	Message openai.ChatCompletionMessage
	Err     error
}

// ScriptedChatClient replays a fixed script of chat completions and records
// every request it saw. When the script runs out, the last step repeats.
type ScriptedChatClient struct {
	mu    sync.Mutex
	Steps []ChatStep
	Calls []openai.ChatCompletionRequest
}

func NewScriptedChatClient(steps ...ChatStep) *ScriptedChatClient {
	return &ScriptedChatClient{Steps: steps}
}

func (c *ScriptedChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := len(c.Calls)
	c.Calls = append(c.Calls, req)
	if i >= len(c.Steps) {
		i = len(c.Steps) - 1
	}
	step := c.Steps[i]
	if step.Err != nil {
		return openai.ChatCompletionResponse{}, step.Err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: step.Message}},
	}, nil
}

// CallCount returns how many completions were requested.
func (c *ScriptedChatClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// TextStep scripts a plain assistant answer.
func TextStep(text string) ChatStep {
	return ChatStep{Message: openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: text,
	}}
}

// ToolCallStep scripts an assistant turn requesting one tool invocation.
func ToolCallStep(id, name, args string) ChatStep {
	return ChatStep{Message: openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:   id,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}}
}

// ErrStep scripts a backend failure.
func ErrStep(err error) ChatStep { return ChatStep{Err: err} }

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
