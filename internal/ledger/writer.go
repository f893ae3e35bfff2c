package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/store"
)

const writeTimeout = 5 * time.Second

// AsyncWriter persists entries on a single background goroutine, in the order they were
// recorded. Record never blocks: when the buffer is full, or the writer is closed, the entry
// is dropped with a warning. Persistence errors are logged and swallowed.
type AsyncWriter struct {
	store   Store
	entries chan Entry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncWriter(s Store, buffer int) *AsyncWriter {
	w := &AsyncWriter{
		store:   s,
		entries: make(chan Entry, buffer),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) Record(e Entry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		log.Warn().Str("group_id", e.GroupID).Str("operation", string(e.Operation)).Msg("ledger closed, dropping entry")
		return
	}
	select {
	case w.entries <- e:
	default:
		log.Warn().Str("group_id", e.GroupID).Str("operation", string(e.Operation)).Msg("ledger buffer full, dropping entry")
	}
}

// Close stops accepting entries and waits for the buffered ones to be written, or for ctx.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ledger drain interrupted: %w", ctx.Err())
	}
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for e := range w.entries {
		if err := w.write(e); err != nil {
			log.Error().Err(err).
				Str("group_id", e.GroupID).
				Str("operation", string(e.Operation)).
				Float64("cost", e.Cost).
				Msg("failed to save operation cost")
		}
	}
}

func (w *AsyncWriter) write(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := w.store.EnsureGroup(ctx, e.GroupID, e.UserQuestion, e.SimilarityScore); err != nil {
		return err
	}
	item := &store.TransactionItem{
		GroupID:      e.GroupID,
		Operation:    e.Operation,
		Model:        e.Model,
		TokensInput:  e.InputTokens,
		TokensOutput: e.OutputTokens,
		Cost:         e.Cost,
	}
	if err := w.store.RecordItem(ctx, item); err != nil {
		return err
	}
	if e.GroupOperation != "" {
		if err := w.store.SetGroupOperation(ctx, e.GroupID, e.GroupOperation); err != nil {
			return err
		}
	}
	log.Debug().Str("group_id", e.GroupID).Str("operation", string(e.Operation)).Float64("cost", e.Cost).Msg("operation cost saved")
	return nil
}
