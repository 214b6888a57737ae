package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hokejlab/hokejnews/internal/api"
	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/fetcher"
	"github.com/hokejlab/hokejnews/internal/schedule"
	"github.com/hokejlab/hokejnews/internal/scraper"
	"github.com/hokejlab/hokejnews/internal/storage"
)

var (
	cfgFile      string
	verbose      bool
	dryRun       bool
	exportPath   string
	exportFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hokejnews",
		Short: "hokejnews — polite scraper and read API for hockeyslovakia.sk news",
		Long: `hokejnews scrapes news articles from hockeyslovakia.sk, stores them in
MongoDB keyed by origin URL, and serves them over a small read-only API.

Commands:
  scrape   run one scrape pass over the configured category listings
  serve    start the read-only HTTP API
  cron     run scrape passes on a fixed interval
  export   dump stored articles to a JSON or CSV file`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(cronCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a single scrape pass",
		Long:  "Fetch the configured category listings, scrape article pages, and upsert them into storage.",
		RunE:  runScrape,
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scrape into an in-memory store instead of MongoDB")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	runner, err := buildRunner(cfg, store, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape run: %w", err)
	}

	fmt.Printf("Scrape complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Scanned:   %d\n", summary.Scanned)
	fmt.Printf("  Inserted:  %d\n", summary.Inserted)
	fmt.Printf("  Updated:   %d\n", summary.Updated)
	fmt.Printf("  Unchanged: %d\n", summary.Unchanged)
	fmt.Printf("  Errors:    %d\n", summary.Errors)

	return nil
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only HTTP API",
		RunE:  runServe,
	}
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewMongoStore(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer store.Close(context.Background())

	srv := api.NewServer(cfg.API, store, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cronCmd creates the "cron" subcommand.
func cronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "Run scrape passes on a fixed interval",
		Long:  "Run an immediate scrape pass, then repeat at the configured interval until interrupted.",
		RunE:  runCron,
	}
}

// runCron executes the cron command.
func runCron(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewMongoStore(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer store.Close(context.Background())

	runner, err := buildRunner(cfg, store, logger)
	if err != nil {
		return err
	}

	sched := schedule.New(cfg.Cron.Interval(), runner.Run, logger)
	return sched.Start(ctx)
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored articles to a file",
		RunE:  runExport,
	}

	cmd.Flags().StringVarP(&exportPath, "output", "o", "./articles.json", "output file path")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json, csv")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewMongoStore(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer store.Close(context.Background())

	exporter := storage.NewExporter(store, logger)
	count, err := exporter.Export(ctx, exportPath, exportFormat)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fmt.Printf("Exported %d articles to %s\n", count, exportPath)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hokejnews %s\n", config.Version)
		},
	}
}

// setup loads the config and creates the logger shared by all commands.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// openStore picks the backing store for a scrape run.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ArticleStore, error) {
	if dryRun {
		logger.Info("dry run: using in-memory store")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewMongoStore(ctx, cfg.Mongo, logger)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}
	return store, nil
}

// buildRunner wires the fetcher and scrape runner for a store.
func buildRunner(cfg *config.Config, store storage.ArticleStore, logger *slog.Logger) (*scraper.Runner, error) {
	f, err := fetcher.NewPoliteFetcher(&cfg.Scrape, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	runner, err := scraper.NewRunner(&cfg.Scrape, f, store, logger)
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}
	return runner, nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
