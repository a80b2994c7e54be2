package capture

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// SampleFormat identifies the raw PCM encoding of a byte buffer
type SampleFormat string

const (
	FormatS16LE SampleFormat = "s16le"
	FormatS32LE SampleFormat = "s32le"
	FormatF32LE SampleFormat = "f32le"
	FormatU8    SampleFormat = "u8"
	FormatAuto  SampleFormat = "auto"
)

// ConvertPCMBytes converts a raw PCM byte buffer to float64 samples in
// [-1.0, 1.0]. FormatAuto probes the encodings in order of likelihood.
func ConvertPCMBytes(buffer []byte, format SampleFormat) ([]float64, error) {
	if len(buffer) == 0 {
		return nil, NewCaptureError(SourceTypePCM, "",
			ErrCodeInvalidFormat, "empty audio buffer", nil)
	}

	switch format {
	case FormatS16LE:
		return convertS16(buffer)
	case FormatS32LE:
		return convertS32(buffer)
	case FormatF32LE:
		return convertFloat32(buffer)
	case FormatU8:
		return convertU8(buffer), nil
	case FormatAuto:
		return convertWithFormatProbe(buffer)
	default:
		return nil, NewCaptureErrorWithFields(SourceTypePCM, "",
			ErrCodeInvalidConfig,
			fmt.Sprintf("unknown sample format: %s", format), nil,
			logging.Fields{"format": string(format)})
	}
}

// convertS16 converts buffer as 16-bit signed little-endian PCM
func convertS16(buffer []byte) ([]float64, error) {
	if len(buffer)%2 != 0 {
		return nil, NewCaptureErrorWithFields(SourceTypePCM, "",
			ErrCodeInvalidFormat, "buffer size not aligned for 16-bit samples", nil,
			logging.Fields{"buffer_size": len(buffer)})
	}

	sampleCount := len(buffer) / 2
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		// Read 16-bit little-endian signed integer
		sample := int16(buffer[i*2]) | int16(buffer[i*2+1])<<8
		samples[i] = float64(sample) / 32768.0
	}

	return samples, nil
}

// convertS32 converts buffer as 32-bit signed little-endian PCM
func convertS32(buffer []byte) ([]float64, error) {
	if len(buffer)%4 != 0 {
		return nil, NewCaptureErrorWithFields(SourceTypePCM, "",
			ErrCodeInvalidFormat, "buffer size not aligned for 32-bit samples", nil,
			logging.Fields{"buffer_size": len(buffer)})
	}

	sampleCount := len(buffer) / 4
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		sample := int32(buffer[i*4]) | int32(buffer[i*4+1])<<8 |
			int32(buffer[i*4+2])<<16 | int32(buffer[i*4+3])<<24
		samples[i] = float64(sample) / 2147483648.0
	}

	return samples, nil
}

// convertFloat32 converts buffer as 32-bit little-endian float PCM
func convertFloat32(buffer []byte) ([]float64, error) {
	if len(buffer)%4 != 0 {
		return nil, NewCaptureErrorWithFields(SourceTypePCM, "",
			ErrCodeInvalidFormat, "buffer size not aligned for 32-bit samples", nil,
			logging.Fields{"buffer_size": len(buffer)})
	}

	sampleCount := len(buffer) / 4
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := uint32(buffer[i*4]) | uint32(buffer[i*4+1])<<8 |
			uint32(buffer[i*4+2])<<16 | uint32(buffer[i*4+3])<<24
		samples[i] = float64(math.Float32frombits(bits))
	}

	return samples, nil
}

// convertU8 converts buffer as 8-bit unsigned PCM, centered at 128
func convertU8(buffer []byte) []float64 {
	samples := make([]float64, len(buffer))

	for i := range buffer {
		samples[i] = (float64(buffer[i]) - 128.0) / 128.0
	}

	return samples
}

// convertWithFormatProbe tries the encodings in order of likelihood. Float32
// wins only when the decoded values look like normalized audio.
func convertWithFormatProbe(buffer []byte) ([]float64, error) {
	if len(buffer)%4 == 0 {
		if samples, err := convertFloat32(buffer); err == nil && looksLikeAudio(samples) {
			return samples, nil
		}
	}

	if len(buffer)%2 == 0 {
		if samples, err := convertS16(buffer); err == nil {
			return samples, nil
		}
	}

	if len(buffer)%4 == 0 {
		if samples, err := convertS32(buffer); err == nil {
			return samples, nil
		}
	}

	return convertU8(buffer), nil
}

// looksLikeAudio checks that at least 80% of the samples fall in a plausible
// normalized range, which separates real float32 audio from reinterpreted
// integer PCM
func looksLikeAudio(samples []float64) bool {
	if len(samples) == 0 {
		return false
	}

	valid := 0
	for _, sample := range samples {
		if sample >= -2.0 && sample <= 2.0 && !math.IsNaN(sample) && !math.IsInf(sample, 0) {
			valid++
		}
	}

	return float64(valid)/float64(len(samples)) >= 0.8
}
