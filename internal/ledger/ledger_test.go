package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/pricing"
	"francechallenges.com/sales-assistant/internal/store"
)

func TestMeterChargePricesAndRecords(t *testing.T) {
	var got []Entry
	m := NewMeter(pricing.Table{"gpt-4": {InputPer1K: 0.03, OutputPer1K: 0.06}}, RecorderFunc(func(e Entry) {
		got = append(got, e)
	}))

	score := 0.71
	turn := Turn{GroupID: "g1", Question: "Quelles offres ?", SimilarityScore: &score}
	cost := m.Charge(turn, Charge{
		Operation: store.OperationKnowledgeBase,
		Model:     "gpt-4",
		Usage:     llm.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000},
		TagGroup:  true,
	})

	assert.InDelta(t, 0.09, cost, 1e-12)
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].GroupID)
	assert.Equal(t, "Quelles offres ?", got[0].UserQuestion)
	assert.Equal(t, &score, got[0].SimilarityScore)
	assert.Equal(t, store.OperationKnowledgeBase, got[0].GroupOperation)
	assert.Equal(t, 1000, got[0].OutputTokens)
}

func TestMeterUnknownModelRecordsZeroCost(t *testing.T) {
	var got []Entry
	m := NewMeter(pricing.Table{}, RecorderFunc(func(e Entry) { got = append(got, e) }))

	cost := m.Charge(Turn{GroupID: "g"}, Charge{Operation: store.OperationEmbedding, Model: "mystery", Usage: llm.Usage{PromptTokens: 9}})
	assert.Zero(t, cost)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].InputTokens)
	assert.Empty(t, got[0].GroupOperation)
}

func TestAsyncWriterPersistsInOrder(t *testing.T) {
	ctx := context.Background()
	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	w := NewAsyncWriter(db, 16)
	w.Record(Entry{GroupID: "g1", UserQuestion: "q", Operation: store.OperationEmbedding, Model: "text-embedding-004", InputTokens: 7})
	w.Record(Entry{GroupID: "g1", UserQuestion: "q", Operation: store.OperationRelevance, Model: "gpt-4", InputTokens: 50, OutputTokens: 1})
	w.Record(Entry{GroupID: "g1", UserQuestion: "q", Operation: store.OperationWebSearch, Model: "gpt-4o-search-preview", GroupOperation: store.OperationWebSearch})
	require.NoError(t, w.Close(ctx))

	items, err := db.ListItems(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, store.OperationEmbedding, items[0].Operation)
	assert.Equal(t, store.OperationRelevance, items[1].Operation)
	assert.Equal(t, store.OperationWebSearch, items[2].Operation)

	g, err := db.GetGroup(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, g.Operation)
	assert.Equal(t, store.OperationWebSearch, *g.Operation)
}

type gatedStore struct {
	gate   chan struct{}
	mu     sync.Mutex
	writes int
	err    error
}

func (s *gatedStore) EnsureGroup(context.Context, string, string, *float64) error {
	if s.gate != nil {
		<-s.gate
	}
	return s.err
}

func (s *gatedStore) RecordItem(context.Context, *store.TransactionItem) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return nil
}

func (s *gatedStore) SetGroupOperation(context.Context, string, store.Operation) error {
	return nil
}

func TestAsyncWriterNeverBlocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &gatedStore{gate: make(chan struct{})}
	w := NewAsyncWriter(s, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Record(Entry{GroupID: "g", Operation: store.OperationEmbedding})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stalled store")
	}

	close(s.gate)
	require.NoError(t, w.Close(context.Background()))
	assert.GreaterOrEqual(t, s.writes, 1)
	assert.LessOrEqual(t, s.writes, 2)
}

func TestAsyncWriterSwallowsStoreErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &gatedStore{err: errors.New("database is locked")}
	w := NewAsyncWriter(s, 4)
	w.Record(Entry{GroupID: "g", Operation: store.OperationEmbedding})
	require.NoError(t, w.Close(context.Background()))
	assert.Zero(t, s.writes)
}

func TestAsyncWriterRecordAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &gatedStore{}
	w := NewAsyncWriter(s, 4)
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))

	assert.NotPanics(t, func() { w.Record(Entry{GroupID: "g"}) })
	assert.Zero(t, s.writes)
}

func TestAsyncWriterCloseHonoursContext(t *testing.T) {
	s := &gatedStore{gate: make(chan struct{})}
	w := NewAsyncWriter(s, 4)
	w.Record(Entry{GroupID: "g", Operation: store.OperationEmbedding})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Close(ctx), context.DeadlineExceeded)

	close(s.gate)
	require.NoError(t, w.Close(context.Background()))
}
