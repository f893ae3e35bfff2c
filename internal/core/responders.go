package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/ledger"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

const (
	knowledgeBaseTemperature = 0.7
	answerMaxTokens          = 1000
)

type Answer struct {
	Text  string
	Model string
	Usage llm.Usage
	Cost  float64
}

// KnowledgeBaseResponder answers from retrieved passages.
type KnowledgeBaseResponder struct {
	completer llm.Completer
	meter     *ledger.Meter
	model     string
}

func NewKnowledgeBaseResponder(completer llm.Completer, meter *ledger.Meter, model string) *KnowledgeBaseResponder {
	return &KnowledgeBaseResponder{completer: completer, meter: meter, model: model}
}

func (r *KnowledgeBaseResponder) Respond(ctx context.Context, turn ledger.Turn, history []llm.Message, passages, question string) (*Answer, error) {
	resp, err := r.completer.Complete(ctx, llm.CompletionRequest{
		Model:       r.model,
		System:      knowledgeBasePrompt(passages, question),
		Messages:    history,
		Temperature: llm.Float32(knowledgeBaseTemperature),
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge base completion failed: %w", err)
	}
	return finishAnswer(r.meter, turn, store.OperationKnowledgeBase, r.model, resp), nil
}

// WebSearchResponder answers with a search-capable model. The provider default temperature
// applies because search models reject the parameter.
type WebSearchResponder struct {
	completer llm.Completer
	meter     *ledger.Meter
	model     string
}

func NewWebSearchResponder(completer llm.Completer, meter *ledger.Meter, model string) *WebSearchResponder {
	return &WebSearchResponder{completer: completer, meter: meter, model: model}
}

func (r *WebSearchResponder) Respond(ctx context.Context, turn ledger.Turn, history []llm.Message) (*Answer, error) {
	resp, err := r.completer.Complete(ctx, llm.CompletionRequest{
		Model:     r.model,
		System:    webSearchPrompt,
		Messages:  history,
		MaxTokens: answerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("web search completion failed: %w", err)
	}
	return finishAnswer(r.meter, turn, store.OperationWebSearch, r.model, resp), nil
}

func finishAnswer(meter *ledger.Meter, turn ledger.Turn, op store.Operation, model string, resp *llm.Completion) *Answer {
	cost := meter.Charge(turn, ledger.Charge{
		Operation: op,
		Model:     model,
		Usage:     resp.Usage,
		TagGroup:  true,
	})
	text := resp.Text
	if text == "" {
		log.Warn().Str("group_id", turn.GroupID).Str("operation", string(op)).Msg("completion returned no text")
		text = emptyAnswerMessage
	}
	return &Answer{Text: text, Model: model, Usage: resp.Usage, Cost: cost}
}
