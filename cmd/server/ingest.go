package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"francechallenges.com/sales-assistant/internal/knowledge"
)

var (
	ingestReplace bool
	ingestEvery   time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Embed a markdown table or a one-passage-per-line file into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "delete the collection before ingesting")
	ingestCmd.Flags().DurationVar(&ingestEvery, "every", 40*time.Millisecond, "minimum delay between embedding calls")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	passages := knowledge.ParsePassages(string(content))
	if len(passages) == 0 {
		return fmt.Errorf("no passages found in %s", args[0])
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	ingester := knowledge.NewIngester(a.kb, a.gemini, cfg.KnowledgeBaseCollection, rate.NewLimiter(rate.Every(ingestEvery), 1))
	n, err := ingester.Ingest(ctx, passages, ingestReplace)
	if err != nil {
		return err
	}
	log.Info().Int("ingested", n).Int("found", len(passages)).Str("collection", cfg.KnowledgeBaseCollection).Msg("data ingestion complete")
	return nil
}
