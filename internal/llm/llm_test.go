package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	name  string
	calls []CompletionRequest
}

func (r *recordingCompleter) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	r.calls = append(r.calls, req)
	return &Completion{Text: r.name, Model: req.Model}, nil
}

func TestMuxRoutesByModel(t *testing.T) {
	openai := &recordingCompleter{name: "openai"}
	gemini := &recordingCompleter{name: "gemini"}
	mux := &Mux{Default: openai, Gemini: gemini}

	out, err := mux.Complete(context.Background(), CompletionRequest{Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "openai", out.Text)

	out, err = mux.Complete(context.Background(), CompletionRequest{Model: "models/gemini-1.5-flash"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", out.Text)

	assert.Len(t, openai.calls, 1)
	assert.Len(t, gemini.calls, 1)
}

func TestMuxWithoutGeminiBackend(t *testing.T) {
	mux := &Mux{Default: &recordingCompleter{}}
	_, err := mux.Complete(context.Background(), CompletionRequest{Model: "gemini-2.0-flash"})
	assert.Error(t, err)
}

type fakeChatModel struct {
	input   []*schema.Message
	options *model.Options
	resp    *schema.Message
	err     error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.options = model.GetCommonOptions(nil, opts...)
	return f.resp, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestOpenAICompleterBuildsRequest(t *testing.T) {
	chat := &fakeChatModel{resp: &schema.Message{
		Role:    schema.Assistant,
		Content: "Bonjour",
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: "stop",
			Usage:        &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
		},
	}}
	c := NewOpenAICompleterWithModel(chat, "gpt-4")

	out, err := c.Complete(context.Background(), CompletionRequest{
		System: "persona",
		Messages: []Message{
			{Role: RoleUser, Content: "Salut"},
			{Role: RoleAssistant, Content: "Bonjour !"},
			{Role: RoleUser, Content: "Vos offres ?"},
		},
		Temperature: Float32(0.7),
		MaxTokens:   1000,
	})
	require.NoError(t, err)

	require.Len(t, chat.input, 4)
	assert.Equal(t, schema.System, chat.input[0].Role)
	assert.Equal(t, "persona", chat.input[0].Content)
	assert.Equal(t, schema.Assistant, chat.input[2].Role)
	assert.Equal(t, "Vos offres ?", chat.input[3].Content)

	require.NotNil(t, chat.options.Model)
	assert.Equal(t, "gpt-4", *chat.options.Model)
	require.NotNil(t, chat.options.Temperature)
	assert.InDelta(t, 0.7, *chat.options.Temperature, 1e-6)
	require.NotNil(t, chat.options.MaxTokens)
	assert.Equal(t, 1000, *chat.options.MaxTokens)

	assert.Equal(t, "Bonjour", out.Text)
	assert.Equal(t, "gpt-4", out.Model)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, out.Usage)
}

func TestOpenAICompleterLeavesTemperatureUnset(t *testing.T) {
	chat := &fakeChatModel{resp: &schema.Message{Content: "ok"}}
	c := NewOpenAICompleterWithModel(chat, "gpt-4")

	out, err := c.Complete(context.Background(), CompletionRequest{
		Model:    "gpt-4o-search-preview",
		Messages: []Message{{Role: RoleUser, Content: "q"}},
	})
	require.NoError(t, err)
	assert.Nil(t, chat.options.Temperature)
	assert.Nil(t, chat.options.MaxTokens)
	assert.Equal(t, "gpt-4o-search-preview", *chat.options.Model)
	assert.Len(t, chat.input, 1)
	assert.Zero(t, out.Usage)
}

func TestOpenAICompleterWrapsErrors(t *testing.T) {
	boom := errors.New("401 unauthorized")
	c := NewOpenAICompleterWithModel(&fakeChatModel{err: boom}, "gpt-4")
	_, err := c.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "q"}}})
	assert.ErrorIs(t, err, boom)
}
