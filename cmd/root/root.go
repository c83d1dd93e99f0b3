// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/catalog"
	"fintrack/internal/categorize"
	"fintrack/internal/config"
	"fintrack/internal/logging"
	"fintrack/internal/rules"
	"fintrack/internal/storage"
)

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cfg is the loaded application configuration
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "fintrack",
		Short: "A CLI tool to ingest, deduplicate and categorize bank transactions.",
		Long: `fintrack ingests bank statement CSV exports, deduplicates transactions by a
content hash, groups recurring merchants and categorizes transactions with
learned rules and an optional AI classifier.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to fintrack!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
)

// App bundles the wired components commands operate on.
type App struct {
	Store       storage.Store
	Matcher     *rules.Matcher
	Catalog     *catalog.Catalog
	Single      *categorize.Categorizer
	Categorizer *categorize.BatchCategorizer

	pg         *storage.PostgresStore
	cache      *storage.CachedStore
	classifier *categorize.GeminiClassifier
}

// OpenApp connects to the database and wires the matcher, catalog and
// categorizer from the loaded configuration.
func OpenApp(ctx context.Context) (*App, error) {
	if Cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	if Cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pg, err := storage.Connect(ctx, Cfg.Database.URL, Log)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	cache, err := storage.NewCachedStore(pg)
	if err != nil {
		pg.Close()
		return nil, err
	}

	app := &App{Store: cache, pg: pg, cache: cache}

	app.Matcher = rules.NewMatcher(cache, Log)
	app.Matcher.SetMatchTimeout(Cfg.RuleMatchTimeout())

	app.Catalog, err = catalog.Load(Cfg.Categories.File, Log)
	if err != nil {
		app.Close()
		return nil, err
	}

	var classifier categorize.Classifier
	if Cfg.AI.Enabled {
		gemini, err := categorize.NewGeminiClassifier(ctx, Cfg.AI.APIKey, Cfg.AI.Model, Cfg.AITimeout(), Log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.classifier = gemini
		classifier = gemini
	}

	app.Single = categorize.New(app.Matcher, classifier, app.Catalog.Names(), Log)
	app.Categorizer = categorize.NewBatchCategorizer(app.Single, Log)
	return app, nil
}

// Close releases the database pool, cache and classifier.
func (a *App) Close() {
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			Log.WithError(err).Warn("Failed to close classifier")
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
}
