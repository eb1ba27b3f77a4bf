package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trendsift/internal/config"
	"trendsift/internal/ingest"
	"trendsift/internal/pipeline"
	"trendsift/internal/provider"
)

var (
	// Global flags
	verbose    bool
	configPath string
	inputPath  string
	outputPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trendsift",
	Short: "trendsift - verify and score collected trend items with LLM fallback tiers",
	Long: `trendsift takes collected content items (JSON from the collection stage),
verifies their claims through a tiered LLM fallback chain, scores them on
relevance, authenticity, recency, and engagement potential, and emits a
ranked top-N set for the synthesis stage.

Provider tiers are tried in fixed priority order: the claude CLI
(subscription), the Anthropic API, then Gemini. With no tier configured,
only fully-offline runs (both stages skipped) are possible.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd executes the full pipeline over one input set
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Verify, score, and rank collected items",
	Long: `Reads collected items as JSON (collector envelope, bare array, or a
single item) from --input or stdin, runs verification and scoring, and
writes the ranked items as JSON to --output or stdout.`,
	RunE: runPipeline,
}

// tiersCmd reports provider tier availability
var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Show which provider tiers are configured and available",
	RunE:  showTiers,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input JSON file (default: stdin)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file (default: stdout)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tiersCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// Best-effort .env load; credentials may come from the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := readInput()
	if err != nil {
		return err
	}
	items, err := ingest.Decode(data)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	logger.Info("input decoded", zap.Int("items", len(items)))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scored, err := pipeline.Run(ctx, cfg, logger, items)
	if err != nil {
		return err
	}

	return writeOutput(scored)
}

func showTiers(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tiers := provider.TiersFromConfig(cmd.Context(), cfg.Providers, logger)
	if len(tiers) == 0 {
		fmt.Println("No provider tiers configured.")
		fmt.Println("Set ANTHROPIC_API_KEY or GEMINI_API_KEY, or install the claude CLI.")
		return nil
	}

	for i, t := range tiers {
		status := "ready"
		if t.Available != nil && !t.Available() {
			status = "unavailable"
		}
		fmt.Printf("%d. %-12s %s\n", i+1, t.Name, status)
	}
	return nil
}

func readInput() ([]byte, error) {
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read input %s: %w", inputPath, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

func writeOutput(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		logger.Info("output written", zap.String("path", outputPath))
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
