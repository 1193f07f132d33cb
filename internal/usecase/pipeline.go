package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"FeedHarvester/internal/dedupe"
	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
	"FeedHarvester/internal/resilience"
	"FeedHarvester/internal/retry"
	"FeedHarvester/internal/scanner"
)

// IngestConfig tunes one pipeline instance. Zero fields fall back to defaults.
type IngestConfig struct {
	WorkersPerSource int // discovery/fetch workers allotted per source
	MaxConcurrency   int // hard ceiling on concurrent outbound connections
	Retry            retry.Config
}

func (c IngestConfig) withDefaults() IngestConfig {
	if c.WorkersPerSource <= 0 {
		c.WorkersPerSource = 2
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 100
	}
	return c
}

// PipelineDeps wires all collaborators into the ingestion pipeline.
type PipelineDeps struct {
	Scanners *scanner.Registry
	Guards   *resilience.Registry
	Cache    *dedupe.URLCache
	Handler  ports.ContentHandler
	Sink     ports.StatusSink
	Logger   *slog.Logger
}

// Pipeline runs one batch of per-source discovery and content fetching over a
// bounded worker pool. Every source operation passes the same gating stack:
// retry wrapper, circuit breaker, rate limiter, adaptive deadline. The guards
// registry and URL cache outlive individual batches.
type Pipeline struct {
	cfg      IngestConfig
	scanners *scanner.Registry
	guards   *resilience.Registry
	cache    *dedupe.URLCache
	handler  ports.ContentHandler
	sink     ports.StatusSink
	logger   *slog.Logger
	sem      *semaphore.Weighted
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg IngestConfig, deps PipelineDeps) *Pipeline {
	cfg = cfg.withDefaults()

	guards := deps.Guards
	if guards == nil {
		guards = resilience.NewRegistry(resilience.Defaults{})
	}
	cache := deps.Cache
	if cache == nil {
		cache = dedupe.NewURLCache()
	}

	return &Pipeline{
		cfg:      cfg,
		scanners: deps.Scanners,
		guards:   guards,
		cache:    cache,
		handler:  deps.Handler,
		sink:     deps.Sink,
		logger:   deps.Logger,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
}

// Run ingests the ordered source list, discovering up to count articles per
// source. Per-source failures degrade to skips; the returned BatchResult is
// a batch-level failure only when every source failed.
func (p *Pipeline) Run(ctx context.Context, sources []domain.SourceDescriptor, count int) domain.BatchResult {
	return p.run(ctx, sources, count, retry.ModeBatch)
}

// RunOne ingests a single source through the identical gating stack, only
// the status wording differs.
func (p *Pipeline) RunOne(ctx context.Context, source domain.SourceDescriptor, count int) domain.BatchResult {
	return p.run(ctx, []domain.SourceDescriptor{source}, count, retry.ModeSingle)
}

func (p *Pipeline) run(ctx context.Context, sources []domain.SourceDescriptor, count int, mode retry.Mode) domain.BatchResult {
	result := domain.BatchResult{ID: uuid.NewString()}

	if len(sources) == 0 {
		p.finish(&result)
		return result
	}

	var (
		mu   sync.Mutex
		g    errgroup.Group
		exec = retry.NewExecutor(p.cfg.Retry, mode, p.sink)
	)
	g.SetLimit(p.poolSize(len(sources)))

	for _, src := range sources {
		src := src
		g.Go(func() error {
			outcome, articles, adapter := p.discoverSource(ctx, src, count, exec)

			mu.Lock()
			if outcome.Succeeded() {
				result.Successful = append(result.Successful, src.ID)
			} else {
				result.Failed = append(result.Failed, domain.SourceFailure{
					SourceID: src.ID,
					Reason:   outcome.Err.Error(),
					Attempts: outcome.Attempts,
				})
			}
			mu.Unlock()

			// Content fetches for a source are scheduled only after its own
			// discovery finished; other sources interleave freely.
			if outcome.Succeeded() && len(articles) > 0 {
				p.fetchArticles(ctx, src, adapter, articles, exec)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.finish(&result)
	return result
}

// poolSize scales workers with the source count, capped at the ceiling.
func (p *Pipeline) poolSize(sources int) int {
	size := p.cfg.WorkersPerSource * sources
	if size > p.cfg.MaxConcurrency {
		size = p.cfg.MaxConcurrency
	}
	return max(size, 1)
}

func (p *Pipeline) finish(result *domain.BatchResult) {
	result.Total = len(result.Successful) + len(result.Failed)
	if p.sink != nil {
		p.sink.BatchFinished(*result)
	}
}

func (p *Pipeline) discoverSource(ctx context.Context, src domain.SourceDescriptor, count int, exec *retry.Executor) (retry.Outcome, []domain.Article, ports.Source) {
	adapter, err := p.scanners.Build(src)
	if err != nil {
		// Misconfiguration never reaches the network or charges the breaker.
		if p.sink != nil {
			p.sink.SourceSkipped(src.ID, 0, err.Error())
		}
		return retry.Outcome{Err: err}, nil, nil
	}

	guard := p.guards.For(src)

	var articles []domain.Article
	outcome := exec.Run(ctx, src.ID, func(ctx context.Context) error {
		return p.gated(ctx, src.ID, guard, func(ctx context.Context) error {
			found, err := adapter.Discover(ctx, count)
			if err != nil {
				return err
			}
			articles = found
			return nil
		})
	})

	p.debug("discovery finished", "source", src.ID, "articles", len(articles), "attempts", outcome.Attempts)
	return outcome, articles, adapter
}

func (p *Pipeline) fetchArticles(ctx context.Context, src domain.SourceDescriptor, adapter ports.Source, articles []domain.Article, exec *retry.Executor) {
	guard := p.guards.For(src)

	var fg errgroup.Group
	fg.SetLimit(max(p.cfg.WorkersPerSource, 1))

	for _, article := range articles {
		if !p.cache.TryClaim(article.URL) {
			p.debug("duplicate url", "source", src.ID, "url", article.URL)
			continue
		}

		article := article
		fg.Go(func() error {
			outcome := exec.Run(ctx, src.ID, func(ctx context.Context) error {
				return p.gated(ctx, src.ID, guard, func(ctx context.Context) error {
					content, err := adapter.Fetch(ctx, article)
					if err != nil {
						return err
					}
					if p.handler == nil {
						return nil
					}
					return p.handler.Handle(ctx, content)
				})
			})
			if !outcome.Succeeded() {
				p.debug("fetch skipped", "source", src.ID, "url", article.URL, "error", outcome.Err)
			}
			return nil
		})
	}
	_ = fg.Wait()
}

// gated runs one network call behind the full protection stack: breaker gate,
// limiter token, global connection ceiling, adaptive deadline. A successful
// call feeds its latency back into the estimator.
func (p *Pipeline) gated(ctx context.Context, sourceID string, guard *resilience.Guard, call func(ctx context.Context) error) error {
	wasOpen := guard.Breaker.State() == resilience.StateOpen

	err := guard.Breaker.Execute(func() error {
		if err := guard.Limiter.Acquire(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("connection ceiling: %w", err)
		}
		defer p.sem.Release(1)

		deadline := guard.Estimator.Estimate().Total
		cctx, cancel := context.WithTimeout(ctx, deadline)
		defer cancel()

		start := time.Now()
		if err := call(cctx); err != nil {
			return err
		}
		guard.Estimator.Record(time.Since(start))
		return nil
	})

	if err != nil && !wasOpen && !errors.Is(err, resilience.ErrCircuitOpen) &&
		guard.Breaker.State() == resilience.StateOpen && p.sink != nil {
		p.sink.CircuitOpened(sourceID, guard.Breaker.Config().FailureThreshold)
	}
	return err
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
