package bootstrap

import (
	"context"
	"fmt"

	"github.com/samakshmehra/document-processing-system/internal/adapters/export/xlsx"
	"github.com/samakshmehra/document-processing-system/internal/config"
	"github.com/samakshmehra/document-processing-system/internal/core/agents"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
	"github.com/samakshmehra/document-processing-system/internal/core/usecase"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/loader"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/queue/nats"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/repository/memory"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/repository/postgres"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/repository/redis"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/repository/sqlite"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/resilience"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/rulesfile"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Rules  agents.Rules

	Store     ports.RecordStore
	Router    *usecase.DocumentRouter
	History   *usecase.HistoryService
	Exporter  *xlsx.Exporter
	Queue     *nats.Queue
	Submitter ports.SubmissionIngestor
	Processor ports.SubmissionProcessor

	closers []func()
}

// Options selects optional wiring. The API and worker need the queue; the
// CLI and MCP server route synchronously.
type Options struct {
	WithQueue bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg, Exporter: xlsx.NewExporter()}

	rules, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}
	app.Rules = rules

	store, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	app.Router = usecase.NewDocumentRouter(
		store,
		agents.NewClassifier(store, rules),
		agents.NewEmailAgent(store, rules),
		agents.NewJSONAgent(store, rules),
	)
	app.History = usecase.NewHistoryService(store, app.Router)

	if opts.WithQueue && cfg.SubmissionQueueEnabled {
		if err := app.openQueue(); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (a *App) openStore(ctx context.Context) (ports.RecordStore, error) {
	switch a.Config.HistoryBackend {
	case "", config.BackendMemory:
		return memory.NewRecordStore(), nil
	case config.BackendSQLite:
		store, err := sqlite.NewRecordStore(ctx, a.Config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		if err := store.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		db, err := postgres.OpenDB(a.Config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		repo := postgres.NewRecordRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil
	case config.BackendRedis:
		store, err := redis.New(ctx, redis.Options{
			URL:                a.Config.RedisURL,
			KeyPrefix:          a.Config.RedisKeyPrefix,
			ResilienceExecutor: resilience.NewExecutor(a.redisResilienceConfig()),
		})
		if err != nil {
			return nil, fmt.Errorf("open redis history: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", a.Config.HistoryBackend)
	}
}

func (a *App) openQueue() error {
	storage, err := localfs.New(a.Config.StoragePath)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(a.Config.NATSURL, a.Config.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(a.resilienceConfig(a.Config.ResilienceRetryMax)),
	})
	if err != nil {
		return fmt.Errorf("init submission queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)

	a.Queue = queue
	a.Submitter = usecase.NewSubmitDocumentUseCase(storage, queue)
	a.Processor = usecase.NewProcessSubmissionUseCase(loader.New(storage, a.Config.MaxUploadBytes), a.Router)
	return nil
}

func (a *App) resilienceConfig(retryMax int) resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = a.Config.ResilienceBreakerEnabled
	if retryMax > 0 {
		cfg.RetryMaxAttempts = retryMax
	}
	return cfg
}

func (a *App) redisResilienceConfig() resilience.Config {
	cfg := resilience.ConflictConfig()
	cfg.BreakerEnabled = a.Config.ResilienceBreakerEnabled
	return cfg
}

// loadRules prefers the rules file. Without one the environment overrides
// the built-in heuristics.
func loadRules(cfg config.Config) (agents.Rules, error) {
	if cfg.ClassifierRulesFile != "" {
		rules, err := rulesfile.Load(cfg.ClassifierRulesFile)
		if err != nil {
			return agents.Rules{}, fmt.Errorf("load classifier rules: %w", err)
		}
		return rules, nil
	}
	rules := agents.DefaultRules()
	rules.HeaderScanLines = cfg.HeaderScanLines
	rules.SnippetChars = cfg.SnippetChars
	rules.RequiredJSONFields = cfg.JSONRequiredFields
	return rules.Normalize(), nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
