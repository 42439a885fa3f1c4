// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/gamemix/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	SetPosition(pos int64) error
	Position() int64
	Length() int64
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	frameBuf   []float32 // buffer for reading frames from decoder
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.frameBuf) }

func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n <= 0 {
		return -1
	}
	return n
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	framesRequested := len(dst) / s.channels
	if framesRequested == 0 {
		return 0, nil
	}

	want := framesRequested * s.channels
	if cap(s.frameBuf) < want {
		s.frameBuf = make([]float32, want)
	}
	s.frameBuf = s.frameBuf[:want]

	// oggvorbis reads whole frames and reports interleaved samples.
	n, err := s.dec.Read(s.frameBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	copy(dst, s.frameBuf[:n])
	return n, err
}

func (s *source) Seek(frame int64, whence int) (int64, error) {
	pos, err := audio.ResolveSeek(s.dec.Position(), s.Frames(), frame, whence)
	if err != nil {
		return 0, err
	}

	if err := s.dec.SetPosition(pos); err != nil {
		return 0, fmt.Errorf("%w: %w", audio.ErrNotSeekable, err)
	}

	return pos, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec oggReader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		frameBuf:   make([]float32, 4096),
	}
}
