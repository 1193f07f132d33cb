package scanner

import (
	"fmt"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
)

// Strategy captures a single discovery implementation (feed, HTML listing,
// etc.) able to build a Source adapter for a catalog descriptor.
type Strategy interface {
	Name() string
	Build(src domain.SourceDescriptor) (ports.Source, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Build resolves the descriptor's strategy and constructs its adapter.
func (r *Registry) Build(src domain.SourceDescriptor) (ports.Source, error) {
	strategy, err := r.Resolve(src.Scanner)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}
	return strategy.Build(src)
}
