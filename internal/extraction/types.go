package extraction

import (
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/mfcc"
)

// State represents the lifecycle phase of the extraction engine
type State string

const (
	// StateIdle means the engine holds no capture capability and no
	// trigger is live
	StateIdle State = "idle"

	// StateArmed means the capture source was acquired but the periodic
	// trigger has not fired yet
	StateArmed State = "armed"

	// StateRunning means the periodic trigger is live
	StateRunning State = "running"
)

// DefaultInterval is the trigger cadence used when none is configured
const DefaultInterval = 2 * time.Second

// EngineConfig contains configuration for the extraction engine
type EngineConfig struct {
	// Interval between extraction triggers; defaults to DefaultInterval
	Interval time.Duration

	// Params configures the filter bank and cepstrum sizes
	Params mfcc.Params

	// Source supplies spectrum frames once acquired
	Source capture.FrameSource

	// Classifier is optional; when set every extracted vector is
	// classified and the result attached to the snapshot
	Classifier classify.Classifier

	// EnableDiagnostics attaches per-frame spectral diagnostics to
	// snapshots
	EnableDiagnostics bool

	Logger logging.Logger
}

// Snapshot is one published extraction result. A snapshot is immutable
// after publication; the engine replaces the whole pointer on every
// successful tick.
type Snapshot struct {
	Coefficients   []float64                 `json:"coefficients"`
	Bands          []float64                 `json:"bands"`
	Sequence       uint64                    `json:"sequence"`
	FrameTimestamp time.Time                 `json:"frame_timestamp"`
	ComputedAt     time.Time                 `json:"computed_at"`
	Classification *classify.Classification  `json:"classification,omitempty"`
	Diagnostics    *analysis.SpectrumProfile `json:"diagnostics,omitempty"`
}

// Status describes the engine to callers polling it
type Status struct {
	State            State                  `json:"state"`
	Message          string                 `json:"message"`
	Interval         time.Duration          `json:"interval"`
	StartedAt        time.Time              `json:"started_at"`
	FramesProcessed  uint64                 `json:"frames_processed"`
	TicksSkipped     uint64                 `json:"ticks_skipped"`
	ExtractionErrors uint64                 `json:"extraction_errors"`
	ClassifierErrors uint64                 `json:"classifier_errors"`
	LastSequence     uint64                 `json:"last_sequence"`
	LastComputedAt   time.Time              `json:"last_computed_at"`
	LastLabel        string                 `json:"last_label,omitempty"`
	LastConfidence   float64                `json:"last_confidence,omitempty"`
	LastError        string                 `json:"last_error,omitempty"`
	Source           capture.SourceMetadata `json:"source"`
}
