package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"francechallenges.com/sales-assistant/internal/core"
	"francechallenges.com/sales-assistant/internal/ledger"
)

var relevanceRuns int

var relevanceCmd = &cobra.Command{
	Use:   "relevance <question>",
	Short: "Run the relevance check several times and print how often the question passes",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelevance,
}

func init() {
	relevanceCmd.Flags().IntVarP(&relevanceRuns, "runs", "n", 10, "number of classifications")
	rootCmd.AddCommand(relevanceCmd)
}

func runRelevance(cmd *cobra.Command, args []string) error {
	if relevanceRuns <= 0 {
		return fmt.Errorf("--runs must be positive, got %d", relevanceRuns)
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	question := args[0]
	classifier := core.NewRelevanceClassifier(a.completer, a.meter, cfg.ClassifierModel)
	out := cmd.OutOrStdout()

	relevant := 0
	for i := 0; i < relevanceRuns; i++ {
		v := classifier.Classify(ctx, ledger.Turn{GroupID: uuid.NewString(), Question: question}, question)
		status := "non"
		if v.IsRelevant {
			relevant++
			status = "oui"
		}
		if v.Fallback.Triggered() {
			status += " (" + string(v.Fallback.Reason) + ")"
		}
		fmt.Fprintf(out, "%2d. %s %s\n", i+1, status, v.Rationale)
	}
	fmt.Fprintf(out, "\n%q relevant %d/%d (%.0f%%) with %s\n",
		question, relevant, relevanceRuns, 100*float64(relevant)/float64(relevanceRuns), classifier.Model())
	return nil
}
