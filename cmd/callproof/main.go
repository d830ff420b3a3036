package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"callproof/internal/config"
	"callproof/internal/crawler"
	"callproof/internal/extractor"
	"callproof/internal/graph"
	"callproof/internal/index"
	"callproof/internal/resolver"
	"callproof/internal/storage"
	"callproof/internal/telemetry"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "callproof",
		Short:         "Verify claims about a codebase's call graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.DBPath = dbPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}

			logger, err = newLogger(cfg)
			if err != nil {
				return err
			}

			if emitMetrics {
				shutdownMetrics, err = telemetry.SetupStdout(os.Stderr, version)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cfgPath     string
	dbPath      string
	logLevel    string
	emitMetrics bool

	cfg             *config.Config
	logger          = zap.NewNop()
	shutdownMetrics telemetry.ShutdownFunc
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code. Metrics
// are flushed and the logger synced whether or not the command failed.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer shutdown()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func shutdown() {
	if shutdownMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(ctx); err != nil {
			logger.Warn("failed to flush metrics", zap.Error(err))
		}
		shutdownMetrics = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "callproof.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the SQLite store (overrides storage.db_path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&emitMetrics, "metrics", false, "Print OpenTelemetry metrics to stderr on exit")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// initStore opens the SQLite store named by the configuration.
func initStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DBPath, err)
	}
	return store, nil
}

// buildGraph scans root with the configured languages.
func buildGraph(root string) (*graph.Graph, error) {
	var langs []string
	if cfg.Project.Language != "" {
		langs = []string{cfg.Project.Language}
	}
	exts, err := extractor.NewExtractors(langs...)
	if err != nil {
		return nil, err
	}
	c := crawler.NewCrawler(exts, crawler.WithLogger(logger))
	return index.NewIndexer(c, logger).BuildGraph(root)
}

// loadGraph builds the graph from source when given, otherwise reads the
// last scanned graph from the store.
func loadGraph(ctx context.Context, source string) (*graph.Graph, error) {
	if source != "" {
		return buildGraph(source)
	}
	store, err := initStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.LoadGraph(ctx)
}

func resolverOptions() resolver.Options {
	return resolver.Options{
		MinConfidence:   cfg.Resolver.MinConfidence,
		FuzzyThreshold:  cfg.Resolver.FuzzyThreshold,
		PartialRatio:    cfg.Resolver.PartialRatio,
		AcceptThreshold: cfg.Resolver.AcceptThreshold,
		Aliases:         resolver.NewAliasTable(cfg.Resolver.Aliases),
	}
}
