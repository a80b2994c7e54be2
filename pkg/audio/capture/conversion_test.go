package capture

import (
	"errors"
	"math"
	"testing"
)

// TestConvertS16 checks signed 16-bit little-endian conversion against
// known byte patterns.
func TestConvertS16(t *testing.T) {
	buffer := []byte{
		0x00, 0x00, // 0
		0x00, 0x40, // 16384
		0x00, 0xC0, // -16384
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
	}

	samples, err := ConvertPCMBytes(buffer, FormatS16LE)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(s16le): unexpected error: %v", err)
	}

	expected := []float64{0, 0.5, -0.5, 32767.0 / 32768.0, -1.0}
	if len(samples) != len(expected) {
		t.Fatalf("ConvertPCMBytes(s16le): want %d samples, got %d", len(expected), len(samples))
	}
	for i, want := range expected {
		if math.Abs(samples[i]-want) > 1e-12 {
			t.Errorf("sample %d: want %v, got %v", i, want, samples[i])
		}
	}
}

// TestConvertS16Misaligned checks that odd-length buffers are rejected.
func TestConvertS16Misaligned(t *testing.T) {
	_, err := ConvertPCMBytes([]byte{0x00, 0x01, 0x02}, FormatS16LE)
	if err == nil {
		t.Fatal("ConvertPCMBytes(s16le, 3 bytes): expected error, got nil")
	}

	var captureErr *CaptureError
	if !errors.As(err, &captureErr) || captureErr.Code != ErrCodeInvalidFormat {
		t.Errorf("want code %s, got %v", ErrCodeInvalidFormat, err)
	}
}

// TestConvertS32 checks signed 32-bit little-endian conversion.
func TestConvertS32(t *testing.T) {
	buffer := []byte{
		0x00, 0x00, 0x00, 0x00, // 0
		0x00, 0x00, 0x00, 0x40, // 2^30
		0x00, 0x00, 0x00, 0x80, // -2^31
	}

	samples, err := ConvertPCMBytes(buffer, FormatS32LE)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(s32le): unexpected error: %v", err)
	}

	expected := []float64{0, 0.5, -1.0}
	for i, want := range expected {
		if math.Abs(samples[i]-want) > 1e-12 {
			t.Errorf("sample %d: want %v, got %v", i, want, samples[i])
		}
	}
}

// TestConvertF32 checks float32 little-endian conversion using encoded bits.
func TestConvertF32(t *testing.T) {
	values := []float32{0, 0.25, -0.75, 1.0}
	buffer := make([]byte, 0, len(values)*4)
	for _, v := range values {
		bits := math.Float32bits(v)
		buffer = append(buffer,
			byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}

	samples, err := ConvertPCMBytes(buffer, FormatF32LE)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(f32le): unexpected error: %v", err)
	}

	for i, v := range values {
		if math.Abs(samples[i]-float64(v)) > 1e-12 {
			t.Errorf("sample %d: want %v, got %v", i, v, samples[i])
		}
	}
}

// TestConvertU8 checks unsigned 8-bit conversion centered at 128.
func TestConvertU8(t *testing.T) {
	samples, err := ConvertPCMBytes([]byte{128, 255, 0, 192}, FormatU8)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(u8): unexpected error: %v", err)
	}

	expected := []float64{0, 127.0 / 128.0, -1.0, 0.5}
	for i, want := range expected {
		if math.Abs(samples[i]-want) > 1e-12 {
			t.Errorf("sample %d: want %v, got %v", i, want, samples[i])
		}
	}
}

// TestConvertEmptyBuffer checks that empty input is rejected for every format.
func TestConvertEmptyBuffer(t *testing.T) {
	for _, format := range []SampleFormat{FormatS16LE, FormatS32LE, FormatF32LE, FormatU8, FormatAuto} {
		if _, err := ConvertPCMBytes(nil, format); err == nil {
			t.Errorf("ConvertPCMBytes(%s, empty): expected error, got nil", format)
		}
	}
}

// TestConvertUnknownFormat checks the error for unrecognized format names.
func TestConvertUnknownFormat(t *testing.T) {
	_, err := ConvertPCMBytes([]byte{0, 0}, SampleFormat("mu-law"))
	if err == nil {
		t.Fatal("ConvertPCMBytes(mu-law): expected error, got nil")
	}

	var captureErr *CaptureError
	if !errors.As(err, &captureErr) || captureErr.Code != ErrCodeInvalidConfig {
		t.Errorf("want code %s, got %v", ErrCodeInvalidConfig, err)
	}
}

// TestFormatProbeFloat32 checks that genuine float32 audio is recognized
// by the probe.
func TestFormatProbeFloat32(t *testing.T) {
	values := make([]float32, 64)
	for i := range values {
		values[i] = 0.5 * float32(math.Sin(2*math.Pi*float64(i)/16))
	}

	buffer := make([]byte, 0, len(values)*4)
	for _, v := range values {
		bits := math.Float32bits(v)
		buffer = append(buffer,
			byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}

	samples, err := ConvertPCMBytes(buffer, FormatAuto)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(auto): unexpected error: %v", err)
	}

	if len(samples) != len(values) {
		t.Fatalf("probe picked the wrong width: want %d samples, got %d", len(values), len(samples))
	}
	for i, v := range values {
		if math.Abs(samples[i]-float64(v)) > 1e-6 {
			t.Errorf("sample %d: want %v, got %v", i, v, samples[i])
		}
	}
}

// TestFormatProbeS16Fallback checks that integer PCM whose float32
// reinterpretation is non-finite falls back to 16-bit decoding.
func TestFormatProbeS16Fallback(t *testing.T) {
	// Each 4-byte group reads as 0x7F800000 (+Inf) when treated as
	// float32, so the probe has to reject the float interpretation.
	pair := []byte{0x00, 0x00, 0x80, 0x7F}
	buffer := make([]byte, 0, len(pair)*8)
	for range 8 {
		buffer = append(buffer, pair...)
	}

	samples, err := ConvertPCMBytes(buffer, FormatAuto)
	if err != nil {
		t.Fatalf("ConvertPCMBytes(auto): unexpected error: %v", err)
	}

	if len(samples) != len(buffer)/2 {
		t.Fatalf("probe picked the wrong width: want %d samples, got %d", len(buffer)/2, len(samples))
	}

	want := float64(0x7F80) / 32768.0
	for i := 0; i < len(samples); i += 2 {
		if samples[i] != 0 {
			t.Errorf("sample %d: want 0, got %v", i, samples[i])
		}
		if math.Abs(samples[i+1]-want) > 1e-12 {
			t.Errorf("sample %d: want %v, got %v", i+1, want, samples[i+1])
		}
	}
}
