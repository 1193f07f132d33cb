package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"FeedHarvester/internal/config"
	"FeedHarvester/internal/dedupe"
	"FeedHarvester/internal/infrastructure/catalog"
	"FeedHarvester/internal/infrastructure/feed"
	"FeedHarvester/internal/infrastructure/html"
	"FeedHarvester/internal/infrastructure/status"
	"FeedHarvester/internal/logging"
	"FeedHarvester/internal/ports"
	"FeedHarvester/internal/resilience"
	"FeedHarvester/internal/retry"
	"FeedHarvester/internal/scanner"
	"FeedHarvester/internal/usecase"
)

// Application wires configs to the ingestion pipeline and its adapters.
type Application struct {
	cfg      config.Config
	provider ports.SourceProvider
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. An optional handler receives
// fetched content; nil keeps the run discovery-only.
func New(cfg config.Config, baseLogger *slog.Logger, handler ports.ContentHandler) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	client := newHTTPClient(cfg)
	sink := status.NewSlogSink(baseLogger.With("component", "status"), cfg.Logging.Verbose)

	registry := scanner.NewRegistry()
	registry.Register(feed.NewStrategy(client, sink, baseLogger.With("component", "scanner.feed")))
	registry.Register(html.NewStrategy(client, baseLogger.With("component", "scanner.html")))

	guards := resilience.NewRegistry(resilience.Defaults{
		Breaker: resilience.BreakerConfig{
			FailureThreshold: cfg.Resilience.FailureThreshold,
			SuccessThreshold: cfg.Resilience.SuccessThreshold,
			OpenTimeout:      cfg.Resilience.OpenTimeoutDuration(),
		},
		Limiter: resilience.LimiterConfig{
			Rate:  cfg.Resilience.Rate,
			Burst: cfg.Resilience.Burst,
		},
		Estimator: resilience.EstimatorConfig{
			Floor:   cfg.Resilience.TimeoutFloorDuration(),
			Default: cfg.Resilience.DefaultTimeoutDuration(),
		},
	})

	pipeline := usecase.NewPipeline(
		usecase.IngestConfig{
			WorkersPerSource: cfg.Ingest.WorkersPerSource,
			MaxConcurrency:   cfg.Ingest.MaxConcurrency,
			Retry: retry.Config{
				MaxAttempts: cfg.Ingest.MaxRetries,
				Backoff:     cfg.Ingest.RetryBackoffDuration(),
			},
		},
		usecase.PipelineDeps{
			Scanners: registry,
			Guards:   guards,
			Cache:    dedupe.NewURLCache(),
			Handler:  handler,
			Sink:     sink,
			Logger:   baseLogger.With("component", "pipeline"),
		},
	)

	return &Application{
		cfg:      cfg,
		provider: catalog.NewFileProvider(cfg.Catalog.Path),
		pipeline: pipeline,
	}
}

// Run executes one batch over the configured catalog and reports its result.
func (a *Application) Run(ctx context.Context) (bool, error) {
	sources, err := a.provider.Sources(ctx)
	if err != nil {
		return false, fmt.Errorf("load catalog: %w", err)
	}

	result := a.pipeline.Run(ctx, sources, a.cfg.Ingest.PerSourceCount)
	return result.Succeeded(), nil
}

// newHTTPClient sizes the shared transport from the configured concurrency
// ceiling so the connection pool is never smaller than the worker pool.
func newHTTPClient(cfg config.Config) *http.Client {
	ceiling := cfg.Ingest.MaxConcurrency
	if ceiling <= 0 {
		ceiling = 100
	}

	dialTimeout := cfg.HTTP.DialTimeoutDuration()
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        ceiling,
		MaxIdleConnsPerHost: ceiling,
		MaxConnsPerHost:     0,
		IdleConnTimeout:     90 * time.Second,
	}

	// No client-level timeout: each call's deadline comes from the adaptive
	// estimator through its context.
	return &http.Client{Transport: transport}
}
