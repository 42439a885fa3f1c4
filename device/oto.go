// SPDX-License-Identifier: EPL-2.0

package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process; every stream shares it.
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat Format
)

func otoContext(f Format, bufferSize time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.Channels != f.Channels || otoFormat.SampleRate != f.SampleRate {
			return nil, fmt.Errorf("%w: open %d Hz %d ch, want %d Hz %d ch", ErrFormatInUse,
				otoFormat.SampleRate, otoFormat.Channels, f.SampleRate, f.Channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	otoCtx = ctx
	otoFormat = f
	return ctx, nil
}

// Oto plays through the system output using github.com/ebitengine/oto/v3.
//
// The first Open fixes the process-wide sample rate and channel count.
// Later streams must use the same values, but may differ in
// FramesPerBuffer. Several streams can be open at once; oto mixes them.
type Oto struct {
	// BufferSize is the OS-side buffer. Zero lets oto decide.
	BufferSize time.Duration
}

func (d Oto) Open(f Format, cb Callback) (Stream, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ctx, err := otoContext(f, d.BufferSize)
	if err != nil {
		return nil, err
	}

	s := &otoStream{
		format: f,
		reader: newPCMReader(f, cb),
	}
	s.player = ctx.NewPlayer(s.reader)
	// One render buffer is enough headroom for the mux.
	s.player.SetBufferSize(f.Samples() * 4 * 2)

	return s, nil
}

type otoStream struct {
	format Format
	reader *pcmReader
	player *oto.Player
	once   sync.Once
}

func (s *otoStream) Format() Format { return s.format }

func (s *otoStream) Start() error {
	if s.reader.closed.Load() {
		return ErrClosed
	}
	s.player.Play()
	return s.player.Err()
}

func (s *otoStream) Close() error {
	var err error
	s.once.Do(func() {
		s.reader.close()
		err = s.player.Close()
	})
	return err
}

// pcmReader turns callback buffers into the little-endian float32 bytes
// oto pulls. Buffers are rendered whole; leftovers wait for the next Read.
type pcmReader struct {
	mu      sync.Mutex
	cb      Callback
	buf     []float32
	bytes   []byte
	pending []byte
	stopped bool
	closed  atomic.Bool
}

func newPCMReader(f Format, cb Callback) *pcmReader {
	return &pcmReader{
		cb:    cb,
		buf:   make([]float32, f.Samples()),
		bytes: make([]byte, f.Samples()*4),
	}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			if r.stopped || r.closed.Load() {
				break
			}
			if !r.cb(r.buf) {
				r.stopped = true
				break
			}
			for i, s := range r.buf {
				binary.LittleEndian.PutUint32(r.bytes[i*4:], math.Float32bits(s))
			}
			r.pending = r.bytes
		}

		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// close waits for an in-flight Read, after which the callback is never
// invoked again.
func (r *pcmReader) close() {
	r.closed.Store(true)
	r.mu.Lock()
	r.mu.Unlock()
}
