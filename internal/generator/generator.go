// Package generator drives the bounded tool-calling loop against an
// OpenAI-compatible chat model. The loop is capped at a single tool
// round-trip: the follow-up synthesis call carries no tool definitions, so a
// model that always wants tools still terminates.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"course-rag/internal/domain"
	"course-rag/internal/llm"
	"course-rag/internal/tools"
)

const systemPrompt = `You are a course materials assistant answering questions about an indexed course catalog.

Tool protocol:
- Use search_course_content for questions about specific course topics, concepts, or lesson content.
- Use get_course_outline for questions about course structure, lesson lists, or course overviews.
- Answer general knowledge questions directly, without tools.
- One round of tool use is available; synthesize whatever the tools return.
- If a tool reports no results or a failed lookup, state that plainly instead of inventing content.

Answers must be brief, accurate, and free of meta-commentary about tools or search mechanics.`

// ChatClient is the slice of the chat API the generator depends on.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Response carries the terminal answer and the provenance gathered during
// tool execution. Sources are scoped to this call only.
type Response struct {
	Answer  string
	Sources []domain.Source
}

// Generator produces answers, optionally letting the model invoke registered
// tools first.
type Generator struct {
	client      ChatClient
	model       string
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

func New(client ChatClient, model string, temperature float32, maxTokens int, logger *slog.Logger) *Generator {
	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Generate answers query with the session history rendered into the system
// prompt. If the model requests tool calls they are executed sequentially and
// fed back through exactly one synthesis call.
func (g *Generator) Generate(ctx context.Context, query, history string, reg *tools.Registry) (Response, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemContent(history)},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	first, err := g.complete(ctx, messages, reg.Definitions())
	if err != nil {
		return Response{}, err
	}
	if len(first.ToolCalls) == 0 {
		return Response{Answer: first.Content}, nil
	}

	messages = append(messages, first)
	var sources []domain.Source
	for _, tc := range first.ToolCalls {
		g.logger.Debug("executing tool", "tool", tc.Function.Name)
		res, err := reg.Dispatch(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
		if err != nil {
			// backing-service failure: no partial answer is fabricated
			return Response{}, fmt.Errorf("tool %s: %w", tc.Function.Name, err)
		}
		sources = append(sources, res.Sources...)
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    res.Text,
			ToolCallID: tc.ID,
		})
	}

	// synthesis call: no tool definitions, so this round is final
	final, err := g.complete(ctx, messages, nil)
	if err != nil {
		return Response{}, err
	}
	return Response{Answer: final.Content, Sources: sources}, nil
}

func (g *Generator) complete(ctx context.Context, messages []openai.ChatCompletionMessage, defs []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	if len(defs) > 0 {
		req.Tools = defs
	}
	var resp openai.ChatCompletionResponse
	err := llm.Retry(ctx, func() error {
		var callErr error
		resp, callErr = g.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", llm.Classify(err))
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message, nil
}

func systemContent(history string) string {
	if history == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\nPrevious conversation:\n" + history
}
