package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/pipeline"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile  string
	verbose  bool
	outJSON  string
	outMD    string
	timeout  time.Duration
	noFooter bool
)

// rootCmd answers a single question
var rootCmd = &cobra.Command{
	Use:   "policygate <question>",
	Short: "policygate - verified answers to policy questions",
	Long: `policygate answers natural-language questions from a corpus of policy
documents and decides whether the drafted answer is safe to show without
human review.

Every answer is broken into cited claims. Each claim must be traceable to the
retrieved policy text: cited ids must exist, numbers and key phrases must
appear in the cited text, and one claim must state one rule. Assumptions and
an independent semantic judgment can only make the decision stricter.

Exit codes:
  0   safe_to_use
  2   review_required
  3   do_not_use
  1   error
  64  usage error

The question is a single argument; quote it. A one-word question that names a
subcommand (batch, config, history, version) runs that subcommand, so put "--"
before it to ask it as a question.

Example:
  policygate "How many vacation days do new employees get?"
  policygate -- history
  policygate "Can I carry over unused vacation?" --json answer.json --md answer.md
  policygate "Is remote work allowed?" --provider ollama --model llama3.1:8b`,
	Args:          questionArgs,
	RunE:          runAsk,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of policygate.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "policygate %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.policygate/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.String("provider", "", "LLM provider (openai, anthropic, ollama)")
	pf.String("model", "", "LLM model name")
	pf.String("judge-model", "", "model for the semantic judgment (default: --model)")
	pf.String("backend", "", "retrieval backend (local, weaviate)")
	pf.String("data-dir", "", "policy directory for the local backend")
	pf.Int("top-k", 0, "number of policy excerpts to retrieve")
	pf.Bool("audit", false, "record decisions in the audit database")
	pf.String("audit-db", "", "audit database path")

	bindFlag("verbose", pf.Lookup("verbose"))
	bindFlag("output.verbose", pf.Lookup("verbose"))
	bindFlag("llm.provider", pf.Lookup("provider"))
	bindFlag("llm.model", pf.Lookup("model"))
	bindFlag("llm.judge_model", pf.Lookup("judge-model"))
	bindFlag("retrieval.backend", pf.Lookup("backend"))
	bindFlag("retrieval.data_dir", pf.Lookup("data-dir"))
	bindFlag("retrieval.top_k", pf.Lookup("top-k"))
	bindFlag("audit.enabled", pf.Lookup("audit"))
	bindFlag("audit.db_path", pf.Lookup("audit-db"))

	// Question flags
	rootCmd.Flags().StringVar(&outJSON, "json", "", "write the full report as JSON")
	rootCmd.Flags().StringVar(&outMD, "md", "", "write a Markdown review report")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall timeout for the question")
	rootCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: CodeUsage, Err: err}
	})

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

func bindFlag(key string, flag *pflag.Flag) {
	_ = viper.BindPFlag(key, flag)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setupLogging(verbose)

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.policygate")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match POLICYGATE_*, e.g. POLICYGATE_LLM_MODEL
	viper.SetEnvPrefix("POLICYGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	registerDefaults(viper.GetViper(), model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// questionArgs accepts at most one positional argument; a missing question is
// reported by runAsk together with the usage text
func questionArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return &ExitError{Code: CodeUsage, Err: fmt.Errorf("expected one quoted question, got %d arguments", len(args))}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	var question string
	if len(args) == 1 {
		question = strings.TrimSpace(args[0])
	}
	if question == "" {
		_ = cmd.Usage()
		return &ExitError{Code: CodeUsage, Err: errors.New("a question is required")}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	opts, err := resolveCredentials(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Question: %s\n", question)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Retrieval: %s (top %d)\n", cfg.Retrieval.Backend, cfg.Retrieval.TopK)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewFromConfig(cfg, opts)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	defer func() { _ = p.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Retrieving, drafting and verifying...\n")
	}

	report, err := p.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Retrieved %d excerpts\n", len(report.Retrieved))
		fmt.Fprintf(os.Stderr, "✓ Checked %d claims\n", len(report.Claims))
		fmt.Fprintf(os.Stderr, "✓ Request id: %s\n", report.RequestID)
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.RenderSummary(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	return StatusError(report.Decision.Status)
}
