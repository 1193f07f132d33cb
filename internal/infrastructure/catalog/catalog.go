package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
)

// fileSchema mirrors the on-disk catalog document. The catalog itself is
// owned and edited by external tooling; this adapter only reads it.
type fileSchema struct {
	Sources []sourceSchema `yaml:"sources"`
}

type sourceSchema struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Category     string            `yaml:"category"`
	Scanner      string            `yaml:"scanner"`
	Endpoint     string            `yaml:"endpoint"`
	Fallbacks    []string          `yaml:"fallbacks"`
	AutoDiscover bool              `yaml:"autoDiscover"`
	Selectors    map[string]string `yaml:"selectors"`
	Overrides    overridesSchema   `yaml:"overrides"`
}

type overridesSchema struct {
	FailureThreshold int     `yaml:"failureThreshold"`
	SuccessThreshold int     `yaml:"successThreshold"`
	OpenTimeout      string  `yaml:"openTimeout"`
	Rate             float64 `yaml:"rate"`
	Burst            int     `yaml:"burst"`
	TimeoutFloor     string  `yaml:"timeoutFloor"`
}

// FileProvider implements the source descriptor stream from a YAML catalog.
type FileProvider struct {
	path string
}

var _ ports.SourceProvider = (*FileProvider)(nil)

// NewFileProvider points the provider at a catalog file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Sources reads and parses the catalog, preserving descriptor order.
func (p *FileProvider) Sources(_ context.Context) ([]domain.SourceDescriptor, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a catalog document into ordered descriptors.
func Parse(raw []byte) ([]domain.SourceDescriptor, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	sources := make([]domain.SourceDescriptor, 0, len(doc.Sources))
	seen := map[string]bool{}
	for i, entry := range doc.Sources {
		src, err := entry.toDescriptor()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate source id %s", i, src.ID)
		}
		seen[src.ID] = true
		sources = append(sources, src)
	}
	return sources, nil
}

func (s sourceSchema) toDescriptor() (domain.SourceDescriptor, error) {
	if s.ID == "" {
		return domain.SourceDescriptor{}, fmt.Errorf("missing id")
	}
	if s.Scanner == "" {
		s.Scanner = "feed"
	}

	overrides, err := s.Overrides.toOverrides()
	if err != nil {
		return domain.SourceDescriptor{}, fmt.Errorf("source %s: %w", s.ID, err)
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}

	return domain.SourceDescriptor{
		ID:           s.ID,
		Name:         name,
		Category:     s.Category,
		Scanner:      s.Scanner,
		Endpoint:     s.Endpoint,
		Fallbacks:    s.Fallbacks,
		AutoDiscover: s.AutoDiscover,
		Selectors:    s.Selectors,
		Overrides:    overrides,
	}, nil
}

func (o overridesSchema) toOverrides() (domain.ResilienceOverrides, error) {
	out := domain.ResilienceOverrides{
		FailureThreshold: o.FailureThreshold,
		SuccessThreshold: o.SuccessThreshold,
		Rate:             o.Rate,
		Burst:            o.Burst,
	}

	var err error
	if out.OpenTimeout, err = parseDuration(o.OpenTimeout); err != nil {
		return out, fmt.Errorf("openTimeout: %w", err)
	}
	if out.TimeoutFloor, err = parseDuration(o.TimeoutFloor); err != nil {
		return out, fmt.Errorf("timeoutFloor: %w", err)
	}
	return out, nil
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
