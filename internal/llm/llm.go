// Package llm defines the embedding and completion capabilities the routing pipeline depends
// on, with Gemini and OpenAI-compatible implementations.
package llm

import (
	"context"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three conversation roles.
func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Embedding struct {
	Vector []float32
	Model  string
	Usage  Usage
}

type CompletionRequest struct {
	Model    string
	System   string
	Messages []Message
	// Temperature nil leaves the provider default in place.
	Temperature *float32
	// MaxTokens <= 0 leaves the provider default in place.
	MaxTokens int
}

type Completion struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

type Embedder interface {
	Embed(ctx context.Context, text string) (*Embedding, error)
}

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Mux sends Gemini model ids to the Gemini backend and everything else to Default.
type Mux struct {
	Default Completer
	Gemini  Completer
}

func (m *Mux) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if IsGeminiModel(req.Model) {
		if m.Gemini == nil {
			return nil, fmt.Errorf("no gemini backend configured for model %s", req.Model)
		}
		return m.Gemini.Complete(ctx, req)
	}
	if m.Default == nil {
		return nil, fmt.Errorf("no completion backend configured for model %s", req.Model)
	}
	return m.Default.Complete(ctx, req)
}

func IsGeminiModel(model string) bool {
	return strings.HasPrefix(strings.TrimPrefix(model, "models/"), "gemini")
}

func Float32(v float32) *float32 { return &v }
