// Package ledger records token usage and cost of every priced operation, grouped by the
// user turn that triggered it.
package ledger

import (
	"context"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/pricing"
	"francechallenges.com/sales-assistant/internal/store"
)

// Turn identifies the transaction group of one user-facing turn.
type Turn struct {
	GroupID  string
	Question string
	// SimilarityScore is set once the knowledge base has been searched.
	SimilarityScore *float64
}

// Entry is one priced operation ready to be persisted.
type Entry struct {
	GroupID         string
	UserQuestion    string
	SimilarityScore *float64
	Operation       store.Operation
	Model           string
	InputTokens     int
	OutputTokens    int
	Cost            float64
	// GroupOperation, when set, tags the group with the branch that answered the turn.
	GroupOperation store.Operation
}

// Recorder accepts entries without blocking the caller and without reporting failures.
type Recorder interface {
	Record(e Entry)
}

type RecorderFunc func(e Entry)

func (f RecorderFunc) Record(e Entry) { f(e) }

// Store is the persistence behind the ledger.
type Store interface {
	EnsureGroup(ctx context.Context, groupID, userQuestion string, similarityScore *float64) error
	RecordItem(ctx context.Context, item *store.TransactionItem) error
	SetGroupOperation(ctx context.Context, groupID string, op store.Operation) error
}

// Charge describes a provider call that just returned usage.
type Charge struct {
	Operation store.Operation
	Model     string
	Usage     llm.Usage
	// TagGroup marks the turn's group with Operation.
	TagGroup bool
}

// Meter prices provider calls and hands the result to a Recorder.
type Meter struct {
	prices   pricing.Table
	recorder Recorder
}

func NewMeter(prices pricing.Table, recorder Recorder) *Meter {
	return &Meter{prices: prices, recorder: recorder}
}

// Charge computes the cost of c, logs it, and records it under turn. It returns the cost.
func (m *Meter) Charge(turn Turn, c Charge) float64 {
	cost, _ := m.prices.Cost(c.Model, c.Usage.PromptTokens, c.Usage.CompletionTokens)

	log.Info().
		Str("group_id", turn.GroupID).
		Str("operation", string(c.Operation)).
		Str("model", c.Model).
		Int("total_tokens", c.Usage.TotalTokens).
		Int("input_tokens", c.Usage.PromptTokens).
		Int("output_tokens", c.Usage.CompletionTokens).
		Float64("cost", cost).
		Msg("priced operation")

	e := Entry{
		GroupID:         turn.GroupID,
		UserQuestion:    turn.Question,
		SimilarityScore: turn.SimilarityScore,
		Operation:       c.Operation,
		Model:           c.Model,
		InputTokens:     c.Usage.PromptTokens,
		OutputTokens:    c.Usage.CompletionTokens,
		Cost:            cost,
	}
	if c.TagGroup {
		e.GroupOperation = c.Operation
	}
	m.recorder.Record(e)
	return cost
}
