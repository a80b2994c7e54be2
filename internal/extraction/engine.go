package extraction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/analysis"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/capture"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/classify"
	"github.com/RyanBlaney/cepstral-monitor/pkg/audio/mfcc"
)

// Engine drives periodic cepstral extraction over a capture source. One
// goroutine owns the ticker and the extractor; everything shared with
// readers goes through the mutex-guarded latest snapshot.
type Engine struct {
	interval    time.Duration
	extractor   *mfcc.Extractor
	source      capture.FrameSource
	classifier  classify.Classifier
	diagnostics bool
	logger      logging.Logger

	// diag is only touched by the run goroutine
	diag *analysis.FrameDiagnostics

	mu               sync.Mutex
	state            State
	latest           *Snapshot
	startedAt        time.Time
	framesProcessed  uint64
	ticksSkipped     uint64
	extractionErrors uint64
	classifierErrors uint64
	lastError        string
	cancel           context.CancelFunc
	done             chan struct{}
}

// NewEngine creates an extraction engine. Parameter validation happens
// here, before any capture capability is touched.
func NewEngine(config *EngineConfig) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("engine config is required")
	}
	if config.Source == nil {
		return nil, fmt.Errorf("engine requires a frame source")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	interval := config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	extractor, err := mfcc.NewExtractor(config.Params)
	if err != nil {
		return nil, err
	}

	return &Engine{
		interval:    interval,
		extractor:   extractor,
		source:      config.Source,
		classifier:  config.Classifier,
		diagnostics: config.EnableDiagnostics,
		logger: logger.WithFields(logging.Fields{
			"component": "extraction_engine",
			"interval":  interval.String(),
		}),
		state: StateIdle,
	}, nil
}

// Start acquires the capture source and launches the trigger goroutine.
// When acquisition fails the engine stays idle and remains startable; the
// failure is kept visible through Status.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("engine cannot start from state %s", state)
	}
	e.mu.Unlock()

	if err := e.source.Acquire(ctx); err != nil {
		e.mu.Lock()
		e.lastError = err.Error()
		e.mu.Unlock()

		e.logger.Error(err, "Capture acquisition failed", logging.Fields{
			"source_type": string(e.source.Metadata().Type),
		})
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	e.state = StateArmed
	e.startedAt = time.Now()
	e.lastError = ""
	e.framesProcessed = 0
	e.ticksSkipped = 0
	e.extractionErrors = 0
	e.classifierErrors = 0
	e.latest = nil
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	e.logger.Debug("Capture source armed", logging.Fields{
		"source": e.source.Metadata(),
	})

	go e.run(runCtx, done)

	return nil
}

// run owns the ticker. It is the only goroutine that touches the
// extractor, so extraction itself needs no locking.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Debug("Extraction trigger live", nil)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick pulls the freshest frame and publishes a new snapshot. A missing
// frame is not an error; the source may simply not have produced one yet.
func (e *Engine) tick() {
	frame, ok := e.source.Latest()
	if !ok {
		e.mu.Lock()
		e.ticksSkipped++
		e.mu.Unlock()
		return
	}

	result, err := e.extractor.Compute(frame.Magnitudes)
	if err != nil {
		e.mu.Lock()
		e.extractionErrors++
		e.lastError = err.Error()
		e.mu.Unlock()

		e.logger.Error(err, "Extraction failed", logging.Fields{
			"sequence": frame.Sequence,
		})
		return
	}

	snapshot := &Snapshot{
		Coefficients:   result.Coefficients,
		Bands:          result.BandEnergies,
		Sequence:       frame.Sequence,
		FrameTimestamp: frame.Timestamp,
		ComputedAt:     time.Now(),
	}

	if e.diagnostics {
		if e.diag == nil {
			e.diag = analysis.NewFrameDiagnostics(frame.SampleRate)
		}
		snapshot.Diagnostics = e.diag.Analyze(frame.Magnitudes)
	}

	if e.classifier != nil {
		classification, err := e.classifier.Classify(result.Coefficients)
		if err != nil {
			e.mu.Lock()
			e.classifierErrors++
			e.lastError = err.Error()
			e.mu.Unlock()

			e.logger.Error(err, "Classification failed", logging.Fields{
				"sequence": frame.Sequence,
			})
		} else {
			snapshot.Classification = classification
		}
	}

	e.mu.Lock()
	e.latest = snapshot
	e.framesProcessed++
	e.mu.Unlock()
}

// Stop cancels the trigger goroutine, waits for it to drain and releases
// the capture source. Safe to call repeatedly; after the first return no
// further extraction fires.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return nil
	}
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	err := e.source.Release()

	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()

	e.logger.Debug("Extraction engine stopped", nil)
	return err
}

// Latest returns the most recent snapshot. Snapshots are immutable, so
// callers may hold the pointer without copying.
func (e *Engine) Latest() (*Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.latest == nil {
		return nil, false
	}
	return e.latest, true
}

// Current returns a copy of the latest coefficient vector, or nil before
// the first extraction
func (e *Engine) Current() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.latest == nil {
		return nil
	}
	return append([]float64(nil), e.latest.Coefficients...)
}

// State reports the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Status reports a structured view of the engine for display and
// serialization
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status{
		State:            e.state,
		Interval:         e.interval,
		StartedAt:        e.startedAt,
		FramesProcessed:  e.framesProcessed,
		TicksSkipped:     e.ticksSkipped,
		ExtractionErrors: e.extractionErrors,
		ClassifierErrors: e.classifierErrors,
		LastError:        e.lastError,
		Source:           e.source.Metadata(),
	}

	if e.latest != nil {
		status.LastSequence = e.latest.Sequence
		status.LastComputedAt = e.latest.ComputedAt
		if e.latest.Classification != nil {
			status.LastLabel = e.latest.Classification.Label
			status.LastConfidence = e.latest.Classification.Confidence
		}
	}

	status.Message = e.statusMessage()
	return status
}

// statusMessage builds the human-readable status line. Callers hold e.mu.
func (e *Engine) statusMessage() string {
	switch e.state {
	case StateIdle:
		if e.lastError != "" {
			return fmt.Sprintf("idle; last error: %s", e.lastError)
		}
		return "idle; not yet started"
	case StateArmed:
		return "armed; waiting for first trigger"
	case StateRunning:
		if e.latest == nil {
			if e.lastError != "" {
				return fmt.Sprintf("running; no output yet; last error: %s", e.lastError)
			}
			return "running; no frames observed yet"
		}
		if e.latest.Classification != nil {
			return fmt.Sprintf("running; frame %d classified as %s (%.1f%%)",
				e.latest.Sequence,
				e.latest.Classification.Label,
				e.latest.Classification.Confidence*100)
		}
		return fmt.Sprintf("running; producing coefficients (frame %d)", e.latest.Sequence)
	default:
		return string(e.state)
	}
}
