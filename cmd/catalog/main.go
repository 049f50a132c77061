// Package main is the entry point for the library catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/jsamuelsen/library-catalog/internal/adapters/cli"
	"github.com/jsamuelsen/library-catalog/internal/adapters/interactionlog"
	"github.com/jsamuelsen/library-catalog/internal/adapters/storage"
	"github.com/jsamuelsen/library-catalog/internal/app"
	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/platform/config"
	"github.com/jsamuelsen/library-catalog/internal/platform/logging"
	"github.com/jsamuelsen/library-catalog/internal/platform/telemetry"
	"github.com/jsamuelsen/library-catalog/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the catalog.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run wires the catalog together and drives the menu until the user exits,
// input ends or ctx is canceled. Only configuration problems are returned.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	algorithms, err := sortAlgorithms(&cfg.Catalog.Sort)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging; stdout belongs to the menu
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Level:      cfg.Log.File.Level,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, stderr)
	logging.SetDefault(logger)

	ctx = logging.WithSessionID(logging.WithContext(ctx, logger), uuid.NewString())

	logger.Info("starting catalog",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("build_time", BuildTime),
		slog.String("environment", cfg.App.Environment),
		slog.String("snapshot_path", cfg.Catalog.SnapshotPath),
		slog.String("seed_path", cfg.Catalog.SeedPath),
	)

	// 4. Initialize usage metrics (noop if disabled)
	metrics, err := telemetry.New(&telemetry.Config{
		Enabled:      cfg.Telemetry.MetricsEnabled,
		TextfilePath: cfg.Telemetry.TextfilePath,
		Service:      cfg.App.Name,
		Version:      cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := metrics.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create storage adapters and check them
	snapshots := storage.NewJSONSnapshotStore(storage.SnapshotConfig{
		Path:   cfg.Catalog.SnapshotPath,
		Logger: logger,
	})
	seed := storage.NewFileSeedSource(cfg.Catalog.SeedPath)

	healthRegistry := ports.NewHealthRegistry()
	for _, checker := range []ports.HealthChecker{snapshots, seed} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering health check: %w", err)
		}
	}
	logHealth(ctx, logger, healthRegistry.CheckAll(ctx))

	// 6. Create the interaction log (optional)
	var recorder ports.InteractionRecorder
	if cfg.InteractionLog.Enabled {
		fileRecorder := interactionlog.New(interactionlog.Config{
			Path:       cfg.InteractionLog.Path,
			MaxSizeMB:  cfg.InteractionLog.MaxSizeMB,
			MaxBackups: cfg.InteractionLog.MaxBackups,
			MaxAgeDays: cfg.InteractionLog.MaxAgeDays,
			Compress:   cfg.InteractionLog.Compress,
			Logger:     logger,
		})
		defer func() { _ = fileRecorder.Close() }()
		recorder = fileRecorder
	}

	// 7. Create catalog and library service (application layer)
	service := app.NewLibraryService(app.LibraryServiceConfig{
		Catalog:    app.NewCatalog(&app.CatalogConfig{Logger: logger}),
		Snapshots:  snapshots,
		Seed:       seed,
		Recorder:   recorder,
		Metrics:    metrics,
		Algorithms: algorithms,
		Logger:     logger,
	})

	menu := cli.NewMenu(service, cli.Config{
		In:     stdin,
		Out:    stdout,
		Color:  cfg.UI.Color,
		Logger: logger,
	})

	// 8. Populate the catalog
	result, _ := service.Bootstrap(ctx)
	menu.Announce(result, service.Catalog().Len())

	// 9. Run the menu until exit
	if err := menu.Run(ctx); err != nil {
		logger.Error("menu stopped", slog.Any("error", err))
	}

	logger.Info("catalog stopped", slog.Int("books", service.Catalog().Len()))

	return nil
}

// sortAlgorithms turns the configured algorithm names into the service's field map.
func sortAlgorithms(cfg *config.SortConfig) (map[domain.SortField]domain.Algorithm, error) {
	names := map[domain.SortField]string{
		domain.FieldTitle:  cfg.Title,
		domain.FieldAuthor: cfg.Author,
		domain.FieldYear:   cfg.Year,
	}

	algorithms := make(map[domain.SortField]domain.Algorithm, len(names))
	for field, name := range names {
		alg, err := domain.ParseAlgorithm(name)
		if err != nil {
			return nil, fmt.Errorf("catalog.sort.%s: %w", field, err)
		}
		algorithms[field] = alg
	}

	return algorithms, nil
}

func logHealth(ctx context.Context, logger *slog.Logger, result *ports.HealthResult) {
	for _, check := range result.Checks {
		attrs := []any{
			slog.String("check", check.Name),
			slog.String("status", string(check.Status)),
			slog.Duration("duration", check.Duration),
		}

		if check.Status != ports.HealthStatusHealthy {
			logger.WarnContext(ctx, "startup check failed", append(attrs, slog.String("message", check.Message))...)
			continue
		}

		logger.DebugContext(ctx, "startup check passed", attrs...)
	}
}
