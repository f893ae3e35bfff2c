package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"francechallenges.com/sales-assistant/internal/core"
	"francechallenges.com/sales-assistant/internal/ledger"
)

var scoreCmd = &cobra.Command{
	Use:   "score <question>",
	Short: "Print the nearest passages and the routing decision for a question",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	index, err := a.index(ctx)
	if err != nil {
		return err
	}
	question := args[0]
	router := core.NewSimilarityRouter(a.gemini, index, a.meter)
	res := router.Route(ctx, ledger.Turn{GroupID: uuid.NewString(), Question: question}, question)

	out := cmd.OutOrStdout()
	if res.Fallback.Triggered() {
		fmt.Fprintf(out, "routing degraded (%s): %v\n", res.Fallback.Reason, res.Fallback.Err)
	}
	for i, p := range res.Passages {
		fmt.Fprintf(out, "%d. %.4f  %s\n", i+1, p.Score, p.Text)
	}
	decision := "knowledge base"
	if res.UseWebSearch {
		decision = "relevance check, then web search"
	}
	fmt.Fprintf(out, "\nmax score %.4f (threshold %.2f): %s\nembedding cost $%.8f\n",
		res.MaxScore, core.SimilarityThreshold, decision, res.EmbeddingCost)
	return nil
}
