package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/pipeline"
	"github.com/ppiankov/policygate/internal/retrieve"
	"github.com/ppiankov/policygate/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer and verify many questions from a file in parallel",
	Long: `Batch answers one question per line concurrently:
- Blank lines and lines starting with # are skipped, duplicates dropped
- Questions share one rate limiter per provider endpoint
- Each question gets a JSON and a Markdown report in the output directory

The exit code reflects the strictest decision in the batch.

Example:
  policygate batch questions.txt
  policygate batch questions.txt --concurrency 8 --output-dir ./reviews`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent questions (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./policygate-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 20*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	opts, err := resolveCredentials(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  policygate Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts.Limiter = pipeline.NewLimiter(cfg)
	p, err := pipeline.NewFromConfig(cfg, opts)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	defer func() { _ = p.Close() }()

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Processing questions with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	writeFailures := 0
	for i, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Question, result.Error)
			continue
		}

		base := reportName(i, result.Question)
		if err := renderer.RenderJSON(result.Report, filepath.Join(outputDir, base+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Question, err)
			writeFailures++
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, filepath.Join(outputDir, base+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Question, err)
			writeFailures++
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", result.Question, result.Status())
	}

	tally := worker.Tally(results)

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:            %d questions\n", len(results))
	fmt.Fprintf(os.Stderr, "  safe_to_use:      %d\n", tally[string(model.StatusSafe)])
	fmt.Fprintf(os.Stderr, "  review_required:  %d\n", tally[string(model.StatusReview)])
	fmt.Fprintf(os.Stderr, "  do_not_use:       %d\n", tally[string(model.StatusBlock)])
	fmt.Fprintf(os.Stderr, "  Failures:         %d\n", tally["error"])
	fmt.Fprintf(os.Stderr, "  Output:           %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return batchExit(tally, writeFailures)
}

// batchExit returns the exit for the strictest outcome; any failure is an error
func batchExit(tally map[string]int, writeFailures int) error {
	if failed := tally["error"] + writeFailures; failed > 0 {
		return &ExitError{Code: CodeError, Err: fmt.Errorf("%d of the questions failed", failed)}
	}
	switch {
	case tally[string(model.StatusBlock)] > 0:
		return StatusError(model.StatusBlock)
	case tally[string(model.StatusReview)] > 0:
		return StatusError(model.StatusReview)
	default:
		return nil
	}
}

// reportName builds a file stem for the i-th question
func reportName(i int, question string) string {
	slug := retrieve.Slugify(question)
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		slug = "question"
	}
	return fmt.Sprintf("%03d-%s", i+1, slug)
}
