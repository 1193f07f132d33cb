package status

import (
	"log/slog"

	"FeedHarvester/internal/domain"
	"FeedHarvester/internal/ports"
)

// SlogSink renders pipeline status events through a structured logger.
// Raw failure detail stays at debug level unless verbose is set.
type SlogSink struct {
	logger  *slog.Logger
	verbose bool
}

var _ ports.StatusSink = (*SlogSink)(nil)

// NewSlogSink wires the sink; a nil logger silently drops events.
func NewSlogSink(logger *slog.Logger, verbose bool) *SlogSink {
	return &SlogSink{logger: logger, verbose: verbose}
}

// Connecting fires before any blocking wait so the user never sees a stall.
func (s *SlogSink) Connecting(sourceID string, attempt int) {
	if s.logger == nil {
		return
	}
	s.logger.Info("connecting", "source", sourceID, "attempt", attempt)
}

// CircuitOpened reports a breaker tripping for a source.
func (s *SlogSink) CircuitOpened(sourceID string, failures int) {
	if s.logger == nil {
		return
	}
	s.logger.Warn("circuit opened", "source", sourceID, "failures", failures)
}

// SourceSkipped reports a terminal per-source failure.
func (s *SlogSink) SourceSkipped(sourceID string, attempts int, reason string) {
	if s.logger == nil {
		return
	}
	if s.verbose {
		s.logger.Warn("source skipped", "source", sourceID, "attempts", attempts, "reason", reason)
		return
	}
	s.logger.Warn("source skipped", "source", sourceID, "attempts", attempts)
	s.logger.Debug("skip detail", "source", sourceID, "reason", reason)
}

// FallbackUsed reports discovery succeeding on a non-primary endpoint.
func (s *SlogSink) FallbackUsed(sourceID string, endpoint string) {
	if s.logger == nil {
		return
	}
	s.logger.Info("fallback endpoint used", "source", sourceID, "endpoint", endpoint)
}

// BatchFinished reports the final summary of one pipeline invocation.
func (s *SlogSink) BatchFinished(result domain.BatchResult) {
	if s.logger == nil {
		return
	}
	s.logger.Info("batch finished",
		"batch", result.ID,
		"successful", len(result.Successful),
		"failed", len(result.Failed),
		"total", result.Total,
	)
	for _, failure := range result.Failed {
		s.logger.Warn("batch failure", "source", failure.SourceID, "attempts", failure.Attempts)
		s.logger.Debug("failure detail", "source", failure.SourceID, "reason", failure.Reason)
	}
}
