package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/policygate/internal/audit"
	"github.com/ppiankov/policygate/internal/model"
)

var historyLimit int

// historyCmd lists recent decisions from the audit database
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent decisions from the audit log",
	Long: `History prints the most recent decisions recorded with --audit, newest
first, followed by counts per decision status.

Example:
  policygate history
  policygate history -n 50 --audit-db ./audit.db`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of decisions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := audit.Open(cfg.Audit.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	counts, err := store.Counts()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No decisions recorded in %s\n", cfg.Audit.DBPath)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tREQUEST\tQUESTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.RequestID, truncate(e.Question, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotals: %s %d, %s %d, %s %d\n",
		model.StatusSafe, counts[model.StatusSafe],
		model.StatusReview, counts[model.StatusReview],
		model.StatusBlock, counts[model.StatusBlock])
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
