package resilience

import (
	"sync"

	"FeedHarvester/internal/domain"
)

// Guard bundles the per-source protection trio. Each member guards its own
// state; the Guard itself is immutable after creation.
type Guard struct {
	Breaker   *CircuitBreaker
	Limiter   *RateLimiter
	Estimator *TimeoutEstimator
}

// Defaults seeds new guards; per-source descriptor overrides win field by field.
type Defaults struct {
	Breaker   BreakerConfig
	Limiter   LimiterConfig
	Estimator EstimatorConfig
}

// Registry hands out one Guard per source id, created lazily under a lock.
// Guards are process-scoped singletons, safe to reuse across batches.
type Registry struct {
	mu       sync.Mutex
	defaults Defaults
	guards   map[string]*Guard
}

// NewRegistry builds an empty registry with the provided defaults.
func NewRegistry(defaults Defaults) *Registry {
	return &Registry{
		defaults: defaults,
		guards:   make(map[string]*Guard),
	}
}

// For returns the guard for the source, creating it on first access with the
// descriptor's overrides applied. Subsequent calls ignore the overrides.
func (r *Registry) For(src domain.SourceDescriptor) *Guard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.guards[src.ID]; ok {
		return g
	}

	g := &Guard{
		Breaker:   NewCircuitBreaker(r.breakerConfig(src.Overrides)),
		Limiter:   NewRateLimiter(r.limiterConfig(src.Overrides)),
		Estimator: NewTimeoutEstimator(r.estimatorConfig(src.Overrides)),
	}
	r.guards[src.ID] = g
	return g
}

func (r *Registry) breakerConfig(o domain.ResilienceOverrides) BreakerConfig {
	cfg := r.defaults.Breaker
	if o.FailureThreshold > 0 {
		cfg.FailureThreshold = o.FailureThreshold
	}
	if o.SuccessThreshold > 0 {
		cfg.SuccessThreshold = o.SuccessThreshold
	}
	if o.OpenTimeout > 0 {
		cfg.OpenTimeout = o.OpenTimeout
	}
	return cfg
}

func (r *Registry) limiterConfig(o domain.ResilienceOverrides) LimiterConfig {
	cfg := r.defaults.Limiter
	if o.Rate > 0 {
		cfg.Rate = o.Rate
	}
	if o.Burst > 0 {
		cfg.Burst = o.Burst
	}
	return cfg
}

func (r *Registry) estimatorConfig(o domain.ResilienceOverrides) EstimatorConfig {
	cfg := r.defaults.Estimator
	if o.TimeoutFloor > 0 {
		cfg.Floor = o.TimeoutFloor
	}
	return cfg
}

// Size reports how many guards exist, for stats and tests.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.guards)
}
