// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"io"
	"math"
	"sync"
)

// MockSource is a test helper that generates audio data for testing.
// It implements the audio.Source interface (without importing it to avoid cycles).
// All methods are safe for concurrent use so tests can inspect the cursor
// while a render goroutine owns the source.
type MockSource struct {
	mu           sync.Mutex
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32
	reads        int
	seeks        int
	closed       bool
}

// NewMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
// waveform is a function that generates sample values given sample index and channel.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		generated:    0,
		waveform:     waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return 0.0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return value
	})
}

// NewRampSource creates a mock source whose sample value is its frame index,
// which makes the read cursor visible in the mixed output.
func NewRampSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return float32(sample)
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Frames() int64   { return int64(m.totalSamples) }

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Position returns the current read cursor in frames.
func (m *MockSource) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.generated
}

// Reads returns how many times ReadSamples was called.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads
}

// Seeks returns how many times Seek was called.
func (m *MockSource) Seeks() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.seeks
}

// Reset resets the generated sample counter to allow re-reading
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generated = 0
}

func (m *MockSource) Seek(frame int64, whence int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seeks++

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = frame
	case io.SeekCurrent:
		pos = int64(m.generated) + frame
	case io.SeekEnd:
		pos = int64(m.totalSamples) + frame
	}
	pos = max(0, min(pos, int64(m.totalSamples)))
	m.generated = int(pos)

	return pos, nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++

	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	// Calculate how many frames we can write
	framesRequested := len(dst) / m.channels
	framesAvailable := m.totalSamples - m.generated
	framesToWrite := min(framesRequested, framesAvailable)

	// Generate samples
	for frame := range framesToWrite {
		sampleIndex := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(sampleIndex, ch)
		}
	}

	m.generated += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.generated >= m.totalSamples {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}
