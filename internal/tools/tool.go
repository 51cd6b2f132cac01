// Package tools exposes vector-index capabilities as invocable tools with
// fixed schemas, dispatched by name at the model's request.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"course-rag/internal/domain"
)

// Result is one tool invocation's output: the text fed back to the model and
// the provenance records gathered while producing it.
type Result struct {
	Text    string
	Sources []domain.Source
}

// Tool is an externally invocable capability. Execute reports recoverable
// conditions (no match, no results) inside Result.Text; an error means the
// backing service failed and the whole query should fail.
type Tool interface {
	Name() string
	Definition() openai.Tool
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// Registry maps tool names to handlers. New tools register without the
// generation loop changing.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions returns every tool schema in registration order.
func (r *Registry) Definitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch executes the named tool. An unknown name is a recoverable
// condition returned as tool text, matching how tools report their own
// misses.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return Result{Text: fmt.Sprintf("Tool %q not found", name)}, nil
	}
	return t.Execute(ctx, args)
}
