package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GeminiClient provides embeddings and completions backed by the Gemini API.
type GeminiClient struct {
	client          *genai.Client
	embeddingModel  string
	tokenCountModel string
}

func NewGeminiClient(ctx context.Context, apiKey, embeddingModel, tokenCountModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{
		client:          client,
		embeddingModel:  embeddingModel,
		tokenCountModel: tokenCountModel,
	}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Error().Err(err).Msg("error closing GenAI client")
		}
	}
}

// Embed returns the embedding of text. The embedding endpoint reports no usage, so input
// tokens are counted separately; a failed count leaves the usage at zero.
func (c *GeminiClient) Embed(ctx context.Context, text string) (*Embedding, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}

	out := &Embedding{Vector: res.Embedding.Values, Model: c.embeddingModel}
	if c.tokenCountModel != "" {
		counted, err := c.client.GenerativeModel(c.tokenCountModel).CountTokens(ctx, genai.Text(text))
		if err != nil {
			log.Warn().Err(err).Str("model", c.embeddingModel).Msg("could not count embedding tokens")
		} else {
			out.Usage = Usage{PromptTokens: int(counted.TotalTokens), TotalTokens: int(counted.TotalTokens)}
		}
	}
	return out, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("prompt history is empty for chat completion")
	}

	model := c.client.GenerativeModel(req.Model)
	system := req.System
	var history []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			// Gemini takes a single system instruction.
			system = strings.TrimSpace(system + "\n" + m.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no conversational message to send")
	}

	last := history[len(history)-1]
	if last.Role != "user" {
		return nil, fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}
	session := model.StartChat()
	session.History = history[:len(history)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini response had no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			log.Debug().Str("part_type", fmt.Sprintf("%T", part)).Msg("skipping non-text gemini part")
		}
	}

	out := &Completion{
		Text:         text.String(),
		Model:        req.Model,
		FinishReason: strings.ToLower(resp.Candidates[0].FinishReason.String()),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
