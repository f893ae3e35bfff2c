package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/ledger"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

const (
	relevanceTemperature = 0.1
	relevanceMaxTokens   = 60
)

type Verdict struct {
	IsRelevant bool
	// Rationale is whatever the model wrote after the first line.
	Rationale string
	Fallback  Fallback
}

// RelevanceClassifier gates the web-search branch on whether a question is in the business
// domain. It fails open.
type RelevanceClassifier struct {
	completer llm.Completer
	meter     *ledger.Meter
	model     string
}

func NewRelevanceClassifier(completer llm.Completer, meter *ledger.Meter, model string) *RelevanceClassifier {
	return &RelevanceClassifier{completer: completer, meter: meter, model: model}
}

func (c *RelevanceClassifier) Model() string { return c.model }

func (c *RelevanceClassifier) Classify(ctx context.Context, turn ledger.Turn, message string) Verdict {
	resp, err := c.completer.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		System:      relevancePrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		Temperature: llm.Float32(relevanceTemperature),
		MaxTokens:   relevanceMaxTokens,
	})
	if err != nil {
		log.Error().Err(err).Str("group_id", turn.GroupID).Msg("error checking question relevance, allowing question")
		return Verdict{IsRelevant: true, Fallback: Fallback{Reason: FallbackClassifierFailed, Err: err}}
	}

	c.meter.Charge(turn, ledger.Charge{
		Operation: store.OperationRelevance,
		Model:     c.model,
		Usage:     resp.Usage,
	})

	v := ParseVerdict(resp.Text)
	log.Info().
		Str("group_id", turn.GroupID).
		Bool("relevant", v.IsRelevant).
		Str("rationale", v.Rationale).
		Msg("relevance checked")
	return v
}

// ParseVerdict reads the first line of a classifier answer; only an exact, case-insensitive
// "oui" counts as relevant.
func ParseVerdict(answer string) Verdict {
	first, rest, _ := strings.Cut(strings.TrimSpace(answer), "\n")
	return Verdict{
		IsRelevant: strings.ToLower(strings.TrimSpace(first)) == "oui",
		Rationale:  strings.TrimSpace(rest),
	}
}
