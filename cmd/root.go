package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oliveapp/olive/internal/config"
	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/intent"
	"github.com/oliveapp/olive/internal/pipeline"
	"github.com/oliveapp/olive/internal/provider"
	"github.com/oliveapp/olive/internal/router"
	"github.com/oliveapp/olive/internal/store"
)

var (
	cfgFile      string
	dbFlag       string
	providerFlag string
	modelFlag    string
	logLevelFlag string
	jsonFlag     bool
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd := &cobra.Command{
		Use:           "olive",
		Short:         "Message understanding core for the Olive life organizer",
		Long:          "olive builds token-bounded prompt context, classifies user messages into intents and routes them to a model tier.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/olive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "sqlite database path (default ~/.local/share/olive/olive.db)")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override classifier provider (gemini, openai, anthropic, none)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override classifier model")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print JSON output (default when stdout is not a terminal)")

	// Subcommands
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newRouteCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newEvalIntentsCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Classifier.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Classifier.Model = modelFlag
	}
	if dbFlag != "" {
		cfg.Database.Path = dbFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays machine readable.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// buildGenerator creates the classifier backend. A nil generator with a nil
// error means "keyword fallback only".
func buildGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.StructuredGenerator, error) {
	name := cfg.Classifier.Provider
	if name == "none" {
		return nil, nil
	}
	pc := cfg.ClassifierProvider()
	if pc.APIKey == "" {
		logger.Warn("no API key for classifier provider; using keyword fallback",
			"provider", name,
			"hint", fmt.Sprintf("set providers.%s.api_key or the vendor API key environment variable", name),
		)
		return nil, nil
	}
	return provider.New(ctx, name, pc)
}

// app bundles what most subcommands need.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.SQLiteStore
	gen      provider.StructuredGenerator
	pipeline *pipeline.Pipeline
	costs    *router.CostTracker
}

// newApp wires config, store and pipeline. withLLM=false skips the
// classifier backend entirely.
func newApp(ctx context.Context, withLLM bool) (*app, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	path, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: st, costs: router.NewCostTracker(cfg.Routing.Pricing)}

	var classifier pipeline.Classifier
	if withLLM {
		gen, err := buildGenerator(ctx, cfg, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
		a.gen = gen
		// A nil gen still yields a classifier; it logs and defers to the fallback.
		classifier = intent.NewClassifier(gen, cfg.ClassifierOptions(), logger)
	}

	builder := contextmgr.NewBuilder(cfg.Context, cfg.SystemPrompt, logger)
	a.pipeline = pipeline.New(classifier, builder, pipeline.Options{
		Tiers:       cfg.Routing.Tiers,
		AutoExecute: cfg.Pipeline.AutoExecuteConfidence,
		Costs:       a.costs,
	}, logger)
	return a, nil
}

func (a *app) Close() {
	if c, ok := a.gen.(io.Closer); ok {
		c.Close()
	}
	a.store.Close()
}

// wantJSON reports whether output should be JSON.
func wantJSON() bool {
	return jsonFlag || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
