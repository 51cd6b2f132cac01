package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/domain"
	"course-rag/internal/llm"
	"course-rag/internal/testutil"
	"course-rag/internal/tools"
)

type stubTool struct {
	name     string
	res      tools.Result
	err      error
	lastArgs json.RawMessage
}

func (t *stubTool) Name() string { return t.name }

func (t *stubTool) Definition() openai.Tool {
	return openai.Tool{
		Type:     openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{Name: t.name},
	}
}

func (t *stubTool) Execute(_ context.Context, args json.RawMessage) (tools.Result, error) {
	t.lastArgs = args
	return t.res, t.err
}

func newTestGenerator(client ChatClient) *Generator {
	return New(client, "test-model", 0, 500, testutil.Logger())
}

func TestGenerateDirectAnswer(t *testing.T) {
	client := testutil.NewScriptedChatClient(testutil.TextStep("Paris is the capital of France."))
	gen := newTestGenerator(client)
	reg := tools.NewRegistry(&stubTool{name: "search_course_content"})

	resp, err := gen.Generate(context.Background(), "What is the capital of France?", "", reg)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", resp.Answer)
	assert.Empty(t, resp.Sources)

	require.Equal(t, 1, client.CallCount())
	assert.Len(t, client.Calls[0].Tools, 1, "tool definitions are offered on the first call")
}

func TestGenerateSingleToolRound(t *testing.T) {
	client := testutil.NewScriptedChatClient(
		testutil.ToolCallStep("call_1", "search_course_content", `{"query":"embeddings"}`),
		testutil.TextStep("Embeddings are covered in lesson 2."),
	)
	gen := newTestGenerator(client)
	tool := &stubTool{
		name: "search_course_content",
		res: tools.Result{
			Text:    "[Intro to X - Lesson 2]\nEmbeddings map text to vectors.",
			Sources: []domain.Source{{Snippet: "Embeddings map text to vectors.", Course: "Intro to X"}},
		},
	}
	reg := tools.NewRegistry(tool)

	resp, err := gen.Generate(context.Background(), "What are embeddings?", "", reg)
	require.NoError(t, err)
	assert.Equal(t, "Embeddings are covered in lesson 2.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Intro to X", resp.Sources[0].Course)
	assert.JSONEq(t, `{"query":"embeddings"}`, string(tool.lastArgs))

	require.Equal(t, 2, client.CallCount())
	assert.Empty(t, client.Calls[1].Tools, "the synthesis call must not offer tools again")

	// the synthesis request carries the tool exchange
	msgs := client.Calls[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
}

func TestGenerateToolBackendErrorAbortsQuery(t *testing.T) {
	client := testutil.NewScriptedChatClient(
		testutil.ToolCallStep("call_1", "search_course_content", `{"query":"x"}`),
	)
	gen := newTestGenerator(client)
	toolErr := errors.New("qdrant unreachable")
	reg := tools.NewRegistry(&stubTool{name: "search_course_content", err: toolErr})

	_, err := gen.Generate(context.Background(), "anything", "", reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, toolErr)
	assert.Contains(t, err.Error(), "search_course_content")
	assert.Equal(t, 1, client.CallCount(), "no synthesis call after a tool failure")
}

func TestGenerateRetriesTransientFailureOnce(t *testing.T) {
	client := testutil.NewScriptedChatClient(
		testutil.ErrStep(&openai.APIError{HTTPStatusCode: 500, Message: "upstream error"}),
		testutil.TextStep("recovered"),
	)
	gen := newTestGenerator(client)

	resp, err := gen.Generate(context.Background(), "hello", "", tools.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Answer)
	assert.Equal(t, 2, client.CallCount())
}

func TestGeneratePermanentFailureNotRetried(t *testing.T) {
	client := testutil.NewScriptedChatClient(
		testutil.ErrStep(&openai.APIError{HTTPStatusCode: 401, Message: "bad key"}),
	)
	gen := newTestGenerator(client)

	_, err := gen.Generate(context.Background(), "hello", "", tools.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrRejected)
	assert.Equal(t, 1, client.CallCount())
}

func TestGenerateHistoryRenderedIntoSystemPrompt(t *testing.T) {
	client := testutil.NewScriptedChatClient(testutil.TextStep("ok"))
	gen := newTestGenerator(client)
	history := "User: What is MCP?\nAssistant: A protocol for model tooling."

	_, err := gen.Generate(context.Background(), "Tell me more", history, tools.NewRegistry())
	require.NoError(t, err)

	sys := client.Calls[0].Messages[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, sys.Role)
	assert.Contains(t, sys.Content, "Previous conversation:\n"+history)
	assert.Equal(t, "Tell me more", client.Calls[0].Messages[1].Content)
}
