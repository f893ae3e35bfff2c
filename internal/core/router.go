package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"francechallenges.com/sales-assistant/internal/knowledge"
	"francechallenges.com/sales-assistant/internal/ledger"
	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

const (
	// SimilarityThreshold is the minimum top score for the knowledge base to answer alone.
	SimilarityThreshold = 0.6
	// NumNeighbors is how many passages are retrieved per question.
	NumNeighbors = 5
)

type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]knowledge.Match, error)
}

type RetrievedPassage struct {
	Text  string
	Score float64
}

type SimilarityResult struct {
	UseWebSearch  bool
	Context       string
	MaxScore      float64
	EmbeddingCost float64
	Passages      []RetrievedPassage
	Fallback      Fallback
}

// SimilarityRouter decides whether the knowledge base holds enough material to answer.
type SimilarityRouter struct {
	embedder  llm.Embedder
	searcher  Searcher
	meter     *ledger.Meter
	threshold float64
	k         int
}

func NewSimilarityRouter(embedder llm.Embedder, searcher Searcher, meter *ledger.Meter) *SimilarityRouter {
	return &SimilarityRouter{
		embedder:  embedder,
		searcher:  searcher,
		meter:     meter,
		threshold: SimilarityThreshold,
		k:         NumNeighbors,
	}
}

// Route never fails: any provider error yields the web-search decision with the reason set.
func (r *SimilarityRouter) Route(ctx context.Context, turn ledger.Turn, message string) SimilarityResult {
	emb, err := r.embedder.Embed(ctx, message)
	if err != nil {
		log.Error().Err(err).Str("group_id", turn.GroupID).Msg("error creating question embedding, defaulting to web search")
		return degraded(FallbackEmbeddingFailed, err)
	}
	cost := r.meter.Charge(turn, ledger.Charge{
		Operation: store.OperationEmbedding,
		Model:     emb.Model,
		Usage:     llm.Usage{PromptTokens: emb.Usage.PromptTokens, TotalTokens: emb.Usage.PromptTokens},
	})

	matches, err := r.searcher.Search(ctx, emb.Vector, r.k)
	if err != nil {
		log.Error().Err(err).Str("group_id", turn.GroupID).Msg("error searching knowledge base, defaulting to web search")
		res := degraded(FallbackSearchFailed, err)
		res.EmbeddingCost = cost
		return res
	}

	res := SimilarityResult{EmbeddingCost: cost}
	var texts []string
	for i, m := range matches {
		if i == 0 || m.Score > res.MaxScore {
			res.MaxScore = m.Score
		}
		res.Passages = append(res.Passages, RetrievedPassage{Text: m.Text, Score: m.Score})
		if m.Text != "" {
			texts = append(texts, m.Text)
		}
	}
	res.Context = strings.Join(texts, "\n")
	res.UseWebSearch = res.MaxScore < r.threshold

	log.Info().
		Str("group_id", turn.GroupID).
		Int("neighbors", len(matches)).
		Float64("max_score", res.MaxScore).
		Float64("threshold", r.threshold).
		Bool("use_web_search", res.UseWebSearch).
		Msg("similarity routed")
	return res
}

func degraded(reason FallbackReason, err error) SimilarityResult {
	return SimilarityResult{UseWebSearch: true, Fallback: Fallback{Reason: reason, Err: err}}
}
