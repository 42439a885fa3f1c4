// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/utils"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = channels * 2
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	carry      int // bytes of a partially read frame held at the head of buf
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 } // return sample capacity, not bytes

func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / bytesPerFrame
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	// Each sample is 2 bytes, so we need len(dst) * 2 bytes
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		grown := make([]byte, bytesNeeded)
		copy(grown, s.buf[:s.carry])
		s.buf = grown
	}
	s.buf = s.buf[:bytesNeeded]

	if bytesNeeded <= s.carry {
		return 0, nil
	}

	n, err := s.dec.Read(s.buf[s.carry:])
	n += s.carry
	if n < 2 {
		s.carry = n
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := range samples {
		low := uint16(s.buf[2*i])
		high := uint16(s.buf[2*i+1])
		dst[i] = utils.Int16ToFloat32(int16(low | (high << 8)))
	}

	// An odd trailing byte belongs to the next sample.
	s.carry = n % 2
	if s.carry == 1 {
		s.buf[0] = s.buf[n-1]
	}

	return samples, err
}

func (s *source) Seek(frame int64, whence int) (int64, error) {
	cur, err := s.dec.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, audio.ErrNotSeekable
	}

	pos, err := audio.ResolveSeek(cur/bytesPerFrame, s.Frames(), frame, whence)
	if err != nil {
		return 0, err
	}

	if _, err := s.dec.Seek(pos*bytesPerFrame, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	s.carry = 0

	return pos, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}
}
