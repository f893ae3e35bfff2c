package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"francechallenges.com/sales-assistant/internal/llm"
	"francechallenges.com/sales-assistant/internal/store"
)

// PassageWriter is the persistence the ingester writes to.
type PassageWriter interface {
	CreatePassage(ctx context.Context, p *store.Passage) error
	ClearCollection(ctx context.Context, collection string) (int64, error)
}

type Ingester struct {
	writer     PassageWriter
	embedder   llm.Embedder
	collection string
	limiter    *rate.Limiter
}

// NewIngester paces embedding calls with limiter; a nil limiter means no pacing.
func NewIngester(writer PassageWriter, embedder llm.Embedder, collection string, limiter *rate.Limiter) *Ingester {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Ingester{writer: writer, embedder: embedder, collection: collection, limiter: limiter}
}

// Ingest embeds and stores every passage, optionally clearing the collection first.
// Passages that fail to embed or store are logged and skipped.
func (in *Ingester) Ingest(ctx context.Context, passages []string, replace bool) (int, error) {
	if len(passages) == 0 {
		log.Warn().Msg("no passages to ingest")
		return 0, nil
	}
	if replace {
		removed, err := in.writer.ClearCollection(ctx, in.collection)
		if err != nil {
			return 0, fmt.Errorf("failed to clear existing passages: %w", err)
		}
		log.Info().Int64("removed", removed).Str("collection", in.collection).Msg("cleared collection")
	}

	count := 0
	for i, text := range passages {
		if err := in.limiter.Wait(ctx); err != nil {
			return count, err
		}
		emb, err := in.embedder.Embed(ctx, text)
		if err != nil {
			log.Warn().Err(err).Int("passage", i+1).Str("text", truncate(text, 50)).Msg("failed to embed passage, skipping")
			continue
		}
		p := store.Passage{Collection: in.collection, Content: text, Embedding: emb.Vector}
		if err := in.writer.CreatePassage(ctx, &p); err != nil {
			log.Warn().Err(err).Int("passage", i+1).Msg("failed to store passage, skipping")
			continue
		}
		count++
		if count%10 == 0 || count == len(passages) {
			log.Info().Msgf("Ingested %d/%d passages...", count, len(passages))
		}
	}
	return count, nil
}

// ParsePassages extracts passages from a markdown table (first column of each body row) or,
// when the text holds no table, from its non-empty lines.
func ParsePassages(content string) []string {
	lines := strings.Split(content, "\n")
	isTable := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			isTable = true
			break
		}
	}

	var passages []string
	headerSeen := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !isTable {
			passages = append(passages, trimmed)
			continue
		}
		if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			log.Debug().Str("line", truncate(trimmed, 50)).Msg("skipping line not matching table row format")
			continue
		}
		if isSeparatorRow(trimmed) {
			continue
		}
		if !headerSeen {
			// The first row of a markdown table is its header.
			headerSeen = true
			continue
		}
		parts := strings.Split(trimmed, "|")
		if len(parts) < 3 {
			continue
		}
		if cell := strings.TrimSpace(parts[1]); cell != "" {
			passages = append(passages, cell)
		}
	}
	return passages
}

func isSeparatorRow(row string) bool {
	return strings.Trim(row, "|-: \t") == ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
