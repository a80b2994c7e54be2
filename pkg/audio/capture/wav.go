package capture

import (
	"context"
	"io"
	"os"
	"sync"

	wav "github.com/youpy/go-wav"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// WAVSource produces frames from a RIFF/WAVE file. The whole file is
// decoded during Acquire and framed with the configured FFT and hop
// sizes; multichannel files are averaged down to mono before framing.
type WAVSource struct {
	path   string
	config *SourceConfig
	framer *framer
	meta   SourceMetadata
	mu     sync.Mutex
	logger logging.Logger
}

// NewWAVSource creates a frame source backed by a WAV file. A nil config
// uses the defaults.
func NewWAVSource(path string, config *SourceConfig) *WAVSource {
	if config == nil {
		config = DefaultSourceConfig()
	}

	return &WAVSource{
		path:   path,
		config: config,
		meta: SourceMetadata{
			Path:    path,
			Type:    SourceTypeWAV,
			FFTSize: config.FFTSize,
			HopSize: config.HopSize,
		},
		logger: logging.WithFields(logging.Fields{
			"component": "wav_source",
			"path":      path,
		}),
	}
}

// Acquire decodes the file and prepares the frame cursor
func (s *WAVSource) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewCaptureError(SourceTypeWAV, s.path, ErrCodeAcquire,
			"context cancelled before acquisition", err)
	}

	file, err := os.Open(s.path)
	if err != nil {
		return NewCaptureError(SourceTypeWAV, s.path, ErrCodeAcquire,
			"failed to open WAV file", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		return NewCaptureError(SourceTypeWAV, s.path, ErrCodeInvalidFormat,
			"failed to read WAV header", err)
	}

	if format.AudioFormat != 1 {
		return NewCaptureErrorWithFields(SourceTypeWAV, s.path, ErrCodeInvalidFormat,
			"only PCM encoded WAV files are supported", nil,
			logging.Fields{"audio_format": format.AudioFormat})
	}
	if format.BitsPerSample != 8 && format.BitsPerSample != 16 {
		return NewCaptureErrorWithFields(SourceTypeWAV, s.path, ErrCodeInvalidFormat,
			"unsupported WAV bit depth", nil,
			logging.Fields{"bits_per_sample": format.BitsPerSample})
	}

	channels := int(format.NumChannels)
	if channels <= 0 {
		return NewCaptureError(SourceTypeWAV, s.path, ErrCodeInvalidFormat,
			"WAV header reports zero channels", nil)
	}

	var samples []float64
	for {
		block, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return NewCaptureError(SourceTypeWAV, s.path, ErrCodeInvalidFormat,
				"failed to decode WAV samples", err)
		}
		for _, sample := range block {
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += reader.FloatValue(sample, uint(c))
			}
			samples = append(samples, sum/float64(channels))
		}
	}

	sampleRate := int(format.SampleRate)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.framer = newFramer(samples, sampleRate, s.config.FFTSize, s.config.HopSize, s.config.Window)
	s.meta.SampleRate = sampleRate
	s.meta.Channels = channels

	s.logger.Debug("WAV source acquired", logging.Fields{
		"sample_rate":      sampleRate,
		"channels":         channels,
		"bits_per_sample":  format.BitsPerSample,
		"samples":          len(samples),
		"duration_seconds": float64(len(samples)) / float64(sampleRate),
		"frames":           s.framer.remaining(),
	})

	return nil
}

// Latest returns the frame at the current cursor and advances one hop.
// The second return is false once the file is exhausted.
func (s *WAVSource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.framer.next()
}

// Release drops the decoded samples
func (s *WAVSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.framer = nil
	return nil
}

// Metadata retrieves metadata about the source
func (s *WAVSource) Metadata() SourceMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.meta
}
