// Package knowledge holds the vector-indexed passages the assistant answers from.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/store"
)

// Match is one ranked search hit.
type Match struct {
	PassageID int64
	Text      string
	Score     float64
}

// PassageSource is the persistence the index loads from.
type PassageSource interface {
	GetPassages(ctx context.Context, collection string) ([]store.Passage, error)
}

// Index is an in-memory cosine-similarity index over one collection. It is read-mostly:
// searches share a read lock and Reload swaps the passage set atomically.
type Index struct {
	source     PassageSource
	collection string

	mu       sync.RWMutex
	passages []store.Passage
}

func NewIndex(source PassageSource, collection string) *Index {
	return &Index{source: source, collection: collection}
}

// Reload replaces the in-memory passages with the current contents of the collection.
func (ix *Index) Reload(ctx context.Context) error {
	passages, err := ix.source.GetPassages(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("failed to load passages for collection %s: %w", ix.collection, err)
	}
	ix.mu.Lock()
	ix.passages = passages
	ix.mu.Unlock()

	if len(passages) == 0 {
		log.Warn().Str("collection", ix.collection).Msg("knowledge base is empty, every question will miss")
	} else {
		log.Info().Str("collection", ix.collection).Int("passages", len(passages)).Msg("knowledge base loaded")
	}
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.passages)
}

// Search returns up to k passages ranked by descending similarity to vector. Equal scores
// keep insertion order so repeated searches return the same ranking.
func (ix *Index) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := make([]Match, 0, len(ix.passages))
	for _, p := range ix.passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(p.Embedding) == 0 {
			continue
		}
		score, err := CosineSimilarity(vector, p.Embedding)
		if err != nil {
			log.Warn().Err(err).Int64("passage_id", p.ID).Msg("skipping passage during search")
			continue
		}
		matches = append(matches, Match{PassageID: p.ID, Text: p.Content, Score: float64(score)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
