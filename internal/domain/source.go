package domain

import "time"

// ResilienceOverrides tunes the per-source protection stack. Zero values
// mean "use the engine defaults".
type ResilienceOverrides struct {
	FailureThreshold int
	OpenTimeout      time.Duration
	SuccessThreshold int
	Rate             float64
	Burst            int
	TimeoutFloor     time.Duration
}

// SourceDescriptor identifies one remote source and how to reach it.
// Descriptors are owned by an external catalog and never mutated here.
type SourceDescriptor struct {
	ID           string
	Name         string
	Category     string
	Scanner      string
	Endpoint     string
	Fallbacks    []string
	AutoDiscover bool
	Selectors    map[string]string
	Overrides    ResilienceOverrides
}

// Endpoints returns the primary endpoint followed by fallbacks, in order.
func (s SourceDescriptor) Endpoints() []string {
	out := make([]string, 0, 1+len(s.Fallbacks))
	if s.Endpoint != "" {
		out = append(out, s.Endpoint)
	}
	return append(out, s.Fallbacks...)
}
