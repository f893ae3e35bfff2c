package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"francechallenges.com/sales-assistant/internal/store"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Print every ledger item and the cost totals",
	Args:  cobra.NoArgs,
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := store.NewSQLiteStore(cfg.LedgerDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	defer db.Close()

	items, err := db.ListItems(ctx, "")
	if err != nil {
		return err
	}
	summary, err := db.CostSummary(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No operations recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tGROUP\tOPERATION\tMODEL\tTOKENS IN\tTOKENS OUT\tCOST ($)")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.6f\n",
			it.CreatedAt.Format("2006-01-02 15:04:05"), it.GroupID, it.Operation, it.Model,
			it.TokensInput, it.TokensOutput, it.Cost)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	ops := make([]string, 0, len(summary.ByOperation))
	for op := range summary.ByOperation {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tCOUNT\tCOST ($)")
	for _, op := range ops {
		oc := summary.ByOperation[store.Operation(op)]
		fmt.Fprintf(tw, "%s\t%d\t%.6f\n", op, oc.Count, oc.Cost)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nOperations: %d\nTotal cost: $%.6f\nAverage cost per operation: $%.6f\n",
		summary.Operations, summary.TotalCost, summary.AverageCost)
	return nil
}
