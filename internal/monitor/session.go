package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/RyanBlaney/cepstral-monitor/internal/extraction"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
)

// DefaultPollInterval is the observation sampling cadence used when none
// is configured
const DefaultPollInterval = 500 * time.Millisecond

// SessionConfig contains configuration for a monitoring session
type SessionConfig struct {
	// Duration bounds the session; zero or negative means run until the
	// context is cancelled
	Duration time.Duration

	// PollInterval is the cadence at which the engine output is sampled;
	// defaults to DefaultPollInterval
	PollInterval time.Duration

	// MaxObservations ends the session early once this many observations
	// were collected; zero means unbounded
	MaxObservations int

	// Engine configures the extraction engine the session drives
	Engine *extraction.EngineConfig
}

// Observation is one sampled engine snapshot
type Observation struct {
	Sequence       uint64                    `json:"sequence"`
	FrameTimestamp time.Time                 `json:"frame_timestamp"`
	ComputedAt     time.Time                 `json:"computed_at"`
	Coefficients   []float64                 `json:"coefficients"`
	Classification *classify.Classification  `json:"classification,omitempty"`
	Diagnostics    *analysis.SpectrumProfile `json:"diagnostics,omitempty"`
}

// SessionSummary is the complete record of one monitoring session
type SessionSummary struct {
	StartTime        time.Time              `json:"start_time"`
	EndTime          time.Time              `json:"end_time"`
	TotalDuration    time.Duration          `json:"total_duration"`
	Source           capture.SourceMetadata `json:"source"`
	FramesProcessed  uint64                 `json:"frames_processed"`
	TicksSkipped     uint64                 `json:"ticks_skipped"`
	ExtractionErrors uint64                 `json:"extraction_errors"`
	ClassifierErrors uint64                 `json:"classifier_errors"`
	LastError        string                 `json:"last_error,omitempty"`
	Observations     []Observation          `json:"observations,omitempty"`
	Metrics          *SessionMetrics        `json:"metrics,omitempty"`
}

// Session coordinates one bounded monitoring run: it starts an extraction
// engine, samples its output on a poll cadence, and distills the collected
// observations into a summary.
type Session struct {
	config  *SessionConfig
	engine  *extraction.Engine
	poll    time.Duration
	logger  logging.Logger
	metrics *MetricsCalculator
}

// NewSession creates a new monitoring session
func NewSession(config *SessionConfig, logger logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	if config == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if config.Engine == nil {
		return nil, fmt.Errorf("session config requires an engine configuration")
	}

	engine, err := extraction.NewEngine(config.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction engine: %w", err)
	}

	poll := config.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	return &Session{
		config:  config,
		engine:  engine,
		poll:    poll,
		logger:  logger,
		metrics: NewMetricsCalculator(logger),
	}, nil
}

// Engine exposes the underlying extraction engine so callers can poll its
// status while Run blocks
func (s *Session) Engine() *extraction.Engine {
	return s.engine
}

// Status reports the current state of the underlying engine
func (s *Session) Status() extraction.Status {
	return s.engine.Status()
}

// Run executes the session until the configured duration elapses, the
// context is cancelled, or the observation cap is reached
func (s *Session) Run(ctx context.Context) (*SessionSummary, error) {
	startTime := time.Now()

	s.logger.Debug("Starting monitoring session", logging.Fields{
		"duration_s":       s.config.Duration.Seconds(),
		"poll_interval_ms": s.poll.Milliseconds(),
		"max_observations": s.config.MaxObservations,
	})

	sessionCtx := ctx
	if s.config.Duration > 0 {
		var cancel context.CancelFunc
		sessionCtx, cancel = context.WithTimeout(ctx, s.config.Duration)
		defer cancel()
	}

	if err := s.engine.Start(sessionCtx); err != nil {
		return nil, fmt.Errorf("failed to start extraction engine: %w", err)
	}

	observations := s.collectObservations(sessionCtx)

	if err := s.engine.Stop(); err != nil {
		s.logger.Error(err, "failed to stop extraction engine cleanly")
	}

	status := s.engine.Status()
	endTime := time.Now()

	summary := &SessionSummary{
		StartTime:        startTime,
		EndTime:          endTime,
		TotalDuration:    endTime.Sub(startTime),
		Source:           status.Source,
		FramesProcessed:  status.FramesProcessed,
		TicksSkipped:     status.TicksSkipped,
		ExtractionErrors: status.ExtractionErrors,
		ClassifierErrors: status.ClassifierErrors,
		LastError:        status.LastError,
		Observations:     observations,
	}
	summary.Metrics = s.metrics.CalculateSessionMetrics(summary)

	s.logger.Debug("Monitoring session completed", logging.Fields{
		"total_duration_s": summary.TotalDuration.Seconds(),
		"observations":     len(summary.Observations),
		"frames_processed": summary.FramesProcessed,
		"ticks_skipped":    summary.TicksSkipped,
	})

	return summary, nil
}

// collectObservations samples the engine until the context ends or the
// observation cap is reached. Polling is deliberately faster than the
// extraction cadence; repeated sightings of the same snapshot are dropped
// by sequence number.
func (s *Session) collectObservations(ctx context.Context) []Observation {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var observations []Observation
	var lastSequence uint64

	for {
		select {
		case <-ctx.Done():
			return observations
		case <-ticker.C:
			snapshot, ok := s.engine.Latest()
			if !ok || snapshot.Sequence == lastSequence {
				continue
			}

			lastSequence = snapshot.Sequence
			observations = append(observations, observationFromSnapshot(snapshot))

			if s.config.MaxObservations > 0 && len(observations) >= s.config.MaxObservations {
				return observations
			}
		}
	}
}

// observationFromSnapshot records a published snapshot. Snapshots are
// immutable after publication, so the slices are shared rather than copied.
func observationFromSnapshot(snapshot *extraction.Snapshot) Observation {
	return Observation{
		Sequence:       snapshot.Sequence,
		FrameTimestamp: snapshot.FrameTimestamp,
		ComputedAt:     snapshot.ComputedAt,
		Coefficients:   snapshot.Coefficients,
		Classification: snapshot.Classification,
		Diagnostics:    snapshot.Diagnostics,
	}
}
