package llm

import (
	"context"
	"fmt"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type OpenAIConfig struct {
	APIKey string
	// BaseURL points at an OpenAI-compatible endpoint; empty means api.openai.com.
	BaseURL string
	// Model is used when a request does not name one.
	Model string
}

// OpenAICompleter runs chat completions on an OpenAI-compatible API. Search-preview models
// consult the web on their own, so no extra tooling is configured for them.
type OpenAICompleter struct {
	chat         model.BaseChatModel
	defaultModel string
}

func NewOpenAICompleter(ctx context.Context, cfg OpenAIConfig) (*OpenAICompleter, error) {
	modelCfg := &einoopenai.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}
	chat, err := einoopenai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai chat model: %w", err)
	}
	return NewOpenAICompleterWithModel(chat, cfg.Model), nil
}

// NewOpenAICompleterWithModel wraps an existing eino chat model.
func NewOpenAICompleterWithModel(chat model.BaseChatModel, defaultModel string) *OpenAICompleter {
	return &OpenAICompleter{chat: chat, defaultModel: defaultModel}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.defaultModel
	}

	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, schema.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		messages = append(messages, toSchemaMessage(m))
	}

	opts := []model.Option{model.WithModel(modelName)}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("openai completion with %s failed: %w", modelName, err)
	}

	out := &Completion{Text: resp.Content, Model: modelName}
	if resp.ResponseMeta != nil {
		out.FinishReason = resp.ResponseMeta.FinishReason
		if u := resp.ResponseMeta.Usage; u != nil {
			out.Usage = Usage{
				PromptTokens:     u.PromptTokens,
				CompletionTokens: u.CompletionTokens,
				TotalTokens:      u.TotalTokens,
			}
		}
	}
	return out, nil
}

func toSchemaMessage(m Message) *schema.Message {
	switch m.Role {
	case RoleSystem:
		return schema.SystemMessage(m.Content)
	case RoleAssistant:
		return schema.AssistantMessage(m.Content, nil)
	default:
		return schema.UserMessage(m.Content)
	}
}
