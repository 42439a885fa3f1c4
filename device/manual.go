// SPDX-License-Identifier: EPL-2.0

package device

import (
	"slices"
	"sync"
)

// Manual is a device driven by the caller: nothing is rendered until Pull
// is called on one of its streams. It backs tests and offline rendering.
type Manual struct {
	// OpenErr, when set, is returned by every Open.
	OpenErr error

	mu      sync.Mutex
	streams []*ManualStream
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Open(f Format, cb Callback) (Stream, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s := &ManualStream{format: f, cb: cb, buf: make([]float32, f.Samples())}

	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()

	return s, nil
}

// Streams returns every stream opened so far, oldest first.
func (m *Manual) Streams() []*ManualStream {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.streams)
}

// Live returns the most recently opened stream that is not closed, or nil.
func (m *Manual) Live() *ManualStream {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.streams) - 1; i >= 0; i-- {
		if !m.streams[i].Closed() {
			return m.streams[i]
		}
	}
	return nil
}

// Pull renders one buffer on the live stream. See ManualStream.Pull.
func (m *Manual) Pull() ([]float32, bool) {
	s := m.Live()
	if s == nil {
		return nil, false
	}
	return s.Pull()
}

type ManualStream struct {
	format Format
	cb     Callback

	mu      sync.Mutex
	buf     []float32
	started bool
	stopped bool
	closed  bool
	pulls   int
}

func (s *ManualStream) Format() Format { return s.format }

func (s *ManualStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.started = true
	return nil
}

func (s *ManualStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Pull invokes the callback once and returns the rendered buffer, valid
// until the next Pull. It reports false, without rendering, when the stream
// is not started, was closed, or the callback asked to stop.
func (s *ManualStream) Pull() ([]float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.closed || s.stopped {
		return nil, false
	}

	s.pulls++
	if !s.cb(s.buf) {
		s.stopped = true
		return s.buf, false
	}
	return s.buf, true
}

// Pulls counts callback invocations.
func (s *ManualStream) Pulls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pulls
}

func (s *ManualStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Stopped reports whether the callback returned false.
func (s *ManualStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopped
}
