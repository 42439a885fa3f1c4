// SPDX-License-Identifier: EPL-2.0

package device

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func TestFormat_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"stereo", Format{Channels: 2, SampleRate: 44100, FramesPerBuffer: 64}, false},
		{"mono", Format{Channels: 1, SampleRate: 8000, FramesPerBuffer: 1}, false},
		{"surround", Format{Channels: 6, SampleRate: 44100, FramesPerBuffer: 64}, true},
		{"no rate", Format{Channels: 2, FramesPerBuffer: 64}, true},
		{"no frames", Format{Channels: 2, SampleRate: 44100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Validate() error = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

// counter renders buffers whose samples are the buffer's sequence number.
func counter(limit int) (Callback, *int) {
	calls := 0
	return func(out []float32) bool {
		if calls == limit {
			return false
		}
		calls++
		for i := range out {
			out[i] = float32(calls)
		}
		return true
	}, &calls
}

func TestPCMReader_SplitsBuffers(t *testing.T) {
	t.Parallel()

	cb, calls := counter(-1)
	r := newPCMReader(Format{Channels: 2, SampleRate: 48000, FramesPerBuffer: 4}, cb)

	// One buffer is 8 samples = 32 bytes; read 3 samples at a time.
	p := make([]byte, 12)
	var got []float32
	for len(got) < 24 {
		n, err := r.Read(p)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		for i := 0; i < n; i += 4 {
			got = append(got, math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
		}
	}

	for i, s := range got {
		if want := float32(i/8 + 1); s != want {
			t.Fatalf("sample %d = %v, want %v", i, s, want)
		}
	}
	if *calls != 3 {
		t.Errorf("callback ran %d times, want 3", *calls)
	}
}

func TestPCMReader_StopsWhenCallbackDoes(t *testing.T) {
	t.Parallel()

	cb, _ := counter(1)
	r := newPCMReader(Format{Channels: 1, SampleRate: 8000, FramesPerBuffer: 2}, cb)

	p := make([]byte, 64)
	n, err := r.Read(p)
	if n != 8 || err != nil {
		t.Fatalf("Read() = (%d, %v), want (8, nil)", n, err)
	}
	if _, err := r.Read(p); !errors.Is(err, io.EOF) {
		t.Errorf("Read() after stop error = %v, want EOF", err)
	}
}

func TestPCMReader_Close(t *testing.T) {
	t.Parallel()

	cb, calls := counter(-1)
	r := newPCMReader(Format{Channels: 1, SampleRate: 8000, FramesPerBuffer: 2}, cb)
	r.close()

	if _, err := r.Read(make([]byte, 8)); !errors.Is(err, io.EOF) {
		t.Errorf("Read() after close error = %v, want EOF", err)
	}
	if *calls != 0 {
		t.Errorf("callback ran %d times after close", *calls)
	}
}

func TestManual_Pull(t *testing.T) {
	t.Parallel()

	m := NewManual()
	cb, _ := counter(2)
	s, err := m.Open(Format{Channels: 2, SampleRate: 44100, FramesPerBuffer: 3}, cb)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, ok := m.Pull(); ok {
		t.Error("Pull() before Start rendered")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	buf, ok := m.Pull()
	if !ok || len(buf) != 6 || buf[0] != 1 {
		t.Fatalf("Pull() = (%v, %v), want six samples of 1", buf, ok)
	}
	m.Pull()
	if _, ok := m.Pull(); ok {
		t.Error("Pull() after callback stop = true")
	}

	ms := m.Streams()[0]
	if !ms.Stopped() || ms.Pulls() != 3 {
		t.Errorf("Stopped() = %v, Pulls() = %d; want true, 3", ms.Stopped(), ms.Pulls())
	}
}

func TestManual_Live(t *testing.T) {
	t.Parallel()

	m := NewManual()
	f := Format{Channels: 1, SampleRate: 8000, FramesPerBuffer: 8}
	cb, _ := counter(-1)

	first, _ := m.Open(f, cb)
	second, _ := m.Open(f, cb)

	if m.Live() != second {
		t.Error("Live() is not the newest stream")
	}
	_ = second.Close()
	if m.Live() != first {
		t.Error("Live() did not fall back to the remaining open stream")
	}
	_ = first.Close()
	if m.Live() != nil {
		t.Error("Live() returned a closed stream")
	}
	if _, ok := m.Pull(); ok {
		t.Error("Pull() with no live stream = true")
	}
	if err := first.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
}

func TestManual_OpenErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("no output device")
	m := &Manual{OpenErr: boom}
	cb, _ := counter(-1)

	if _, err := m.Open(Format{Channels: 2, SampleRate: 44100, FramesPerBuffer: 64}, cb); !errors.Is(err, boom) {
		t.Errorf("Open() error = %v, want %v", err, boom)
	}

	m.OpenErr = nil
	if _, err := m.Open(Format{Channels: 3, SampleRate: 44100, FramesPerBuffer: 64}, cb); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Open() error = %v, want ErrInvalidFormat", err)
	}
}
