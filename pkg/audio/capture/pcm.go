package capture

import (
	"context"
	"os"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// PCMSource produces frames from a headerless PCM file. The sample rate
// and encoding cannot be read from the file, so both come from the
// configuration; FormatAuto probes the byte layout instead.
type PCMSource struct {
	path   string
	config *SourceConfig
	framer *framer
	meta   SourceMetadata
	mu     sync.Mutex
	logger logging.Logger
}

// NewPCMSource creates a frame source backed by a raw PCM file. A nil
// config uses the defaults.
func NewPCMSource(path string, config *SourceConfig) *PCMSource {
	if config == nil {
		config = DefaultSourceConfig()
	}

	return &PCMSource{
		path:   path,
		config: config,
		meta: SourceMetadata{
			Path:       path,
			Type:       SourceTypePCM,
			SampleRate: config.SampleRate,
			Channels:   1,
			FFTSize:    config.FFTSize,
			HopSize:    config.HopSize,
		},
		logger: logging.WithFields(logging.Fields{
			"component": "pcm_source",
			"path":      path,
		}),
	}
}

// Acquire reads and converts the file and prepares the frame cursor
func (s *PCMSource) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewCaptureError(SourceTypePCM, s.path, ErrCodeAcquire,
			"context cancelled before acquisition", err)
	}

	if s.config.SampleRate <= 0 {
		return NewCaptureError(SourceTypePCM, s.path, ErrCodeInvalidConfig,
			"raw PCM sources require a positive sample rate", nil)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return NewCaptureError(SourceTypePCM, s.path, ErrCodeAcquire,
			"failed to read PCM file", err)
	}

	samples, err := ConvertPCMBytes(data, s.config.Format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.framer = newFramer(samples, s.config.SampleRate, s.config.FFTSize, s.config.HopSize, s.config.Window)

	s.logger.Debug("PCM source acquired", logging.Fields{
		"sample_rate": s.config.SampleRate,
		"format":      string(s.config.Format),
		"bytes":       len(data),
		"samples":     len(samples),
		"frames":      s.framer.remaining(),
	})

	return nil
}

// Latest returns the frame at the current cursor and advances one hop.
// The second return is false once the file is exhausted.
func (s *PCMSource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.framer.next()
}

// Release drops the converted samples
func (s *PCMSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.framer = nil
	return nil
}

// Metadata retrieves metadata about the source
func (s *PCMSource) Metadata() SourceMetadata {
	return s.meta
}
