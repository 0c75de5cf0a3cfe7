package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/observability/metrics"
	"bingads-extractor/shared/storage"
	"bingads-extractor/shared/storage/types"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/extractor"
	"bingads-extractor/workers/extractor/internal/settings"
	"bingads-extractor/workers/extractor/internal/state"
)

func main() {
	dataDir := flag.String("data-dir", "", "host data directory (overrides KBC_DATADIR)")
	flag.Parse()

	cfg, doc := loadConfiguration(*dataDir)

	deps := initializeDependencies(cfg, doc)

	app := buildApplication(cfg, deps)

	os.Exit(startApplication(app, doc))
}

// Dependencies holds all initialized infrastructure components
type Dependencies struct {
	obs        *observability.DefaultProvider
	storage    types.ObjectStorage
	state      state.Store
	closeState func() error
	pusher     *metrics.Pusher
	logger     observability.Logger
}

// Application holds the complete application stack
type Application struct {
	extractor *extractor.Extractor
	deps      *Dependencies
	logger    observability.Logger
	metrics   observability.Metrics
}

// loadConfiguration reads the runtime environment and the job document.
func loadConfiguration(dataDir string) (*config.Config, *settings.Document) {
	if dataDir != "" {
		if err := os.Setenv("KBC_DATADIR", dataDir); err != nil {
			log.Fatalf("Failed to set data directory: %v", err)
		}
	}

	cfgProvider := config.GetProvider()
	if err := cfgProvider.Load(); err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(2)
	}
	cfg := cfgProvider.MustGet()

	doc, err := settings.Load(cfg.ConfigFile())
	if err != nil {
		log.Printf("Failed to load %s: %v", cfg.ConfigFile(), err)
		os.Exit(domain.ExitCode(err))
	}
	if doc.Parameters.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, doc
}

// initializeDependencies sets up all infrastructure dependencies
func initializeDependencies(cfg *config.Config, doc *settings.Document) *Dependencies {
	registry := prometheus.NewRegistry()
	obs := initializeObservability(cfg, doc, registry)
	logger := obs.Logger("main")

	logStartup(cfg, doc, logger)

	ctx := context.Background()
	objectStorage := initializeStorage(ctx, cfg, obs)
	store, closeState := initializeState(ctx, cfg, obs)

	grouping := map[string]string{"action": doc.Action}
	if cfg.ConfigID != "" {
		grouping["config_id"] = cfg.ConfigID
	}

	return &Dependencies{
		obs:        obs,
		storage:    objectStorage,
		state:      store,
		closeState: closeState,
		pusher:     metrics.NewPusher(cfg.Metrics.PushgatewayURL, cfg.ServiceName, registry, grouping),
		logger:     logger,
	}
}

// initializeObservability sets up logging and metrics. Sync actions print
// their result on stdout, so their logs go to stderr.
func initializeObservability(cfg *config.Config, doc *settings.Document, registry *prometheus.Registry) *observability.DefaultProvider {
	var output io.Writer = os.Stdout
	if doc.Action != settings.ActionRun {
		output = os.Stderr
	}

	return observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		LogOutput:   output,
		AdditionalFields: observability.Fields{
			"version":   cfg.Version,
			"config_id": cfg.ConfigID,
		},
	}, observability.WithRegisterer(registry))
}

// logStartup logs application startup information
func logStartup(cfg *config.Config, doc *settings.Document, logger observability.Logger) {
	logger.Info(context.Background(), "Starting extractor", observability.Fields{
		"service":     cfg.ServiceName,
		"version":     cfg.Version,
		"environment": cfg.Environment,
		"action":      doc.Action,
		"data_dir":    cfg.DataDir,
	})
}

// initializeStorage sets up the output table storage
func initializeStorage(ctx context.Context, cfg *config.Config, obs observability.Provider) types.ObjectStorage {
	logger, m := obs.Logger("storage"), obs.Metrics("storage")

	provider := storage.GetProvider()
	if err := provider.Initialize(ctx, cfg, logger, m); err != nil {
		logger.Error(ctx, "Failed to initialize storage", err, nil)
		os.Exit(2)
	}
	return provider.MustGetStorage()
}

// initializeState opens the persisted state backend
func initializeState(ctx context.Context, cfg *config.Config, obs observability.Provider) (state.Store, func() error) {
	logger := obs.Logger("state")

	store, closeFn, err := state.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize state backend", err, observability.Fields{
			"backend": cfg.State.Backend,
		})
		os.Exit(2)
	}
	return store, closeFn
}

// buildApplication assembles the application layers
func buildApplication(cfg *config.Config, deps *Dependencies) *Application {
	e, err := extractor.New(cfg, deps.state, deps.storage, deps.obs)
	if err != nil {
		deps.logger.Error(context.Background(), "Failed to build extractor", err, nil)
		os.Exit(2)
	}

	return &Application{
		extractor: e,
		deps:      deps,
		logger:    deps.logger,
		metrics:   deps.obs.Metrics("main"),
	}
}

// startApplication runs the configured action and returns the exit code.
func startApplication(app *Application, doc *settings.Document) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.metrics.StartOperation("run")
	err := app.extractor.Execute(ctx, doc)
	app.metrics.EndOperation("run")

	code := domain.ExitCode(err)
	if err != nil {
		app.logger.Info(ctx, "Extractor stopped", observability.Fields{"exit_code": code})
	} else {
		app.logger.Info(ctx, "Extractor finished", nil)
	}

	shutdown(app)
	return code
}

// shutdown pushes metrics and releases connections.
func shutdown(app *Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.deps.pusher.Push(ctx); err != nil {
		app.logger.Warn(ctx, "Failed to push metrics", observability.Fields{"error": err.Error()})
	}
	if err := app.deps.closeState(); err != nil {
		app.logger.Warn(ctx, "Failed to close state backend", observability.Fields{"error": err.Error()})
	}
	if err := app.deps.obs.Close(); err != nil {
		log.Printf("Failed to close log output: %v", err)
	}
}
