// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/utils"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.Source
type source struct {
	dec        aiffReader
	reopen     func() (aiffReader, error) // fresh decoder at the first frame
	sampleRate int
	channels   int
	frames     int64
	pos        int64
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Frames() int64   { return s.frames }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) fill(n int) (int, error) {
	if s.intBuf == nil || cap(s.intBuf.Data) < n {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, n),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:n]
	}

	got, err := s.dec.PCMBuffer(s.intBuf)
	s.pos += int64(got / s.channels)
	return got, err
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.fill(len(dst))
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	// Only 16-bit input is accepted by Decode.
	for i := range n {
		dst[i] = utils.Int16ToFloat32(int16(s.intBuf.Data[i]))
	}

	// If we got fewer samples than requested and no error, we're at EOF
	if n < len(dst) && err == nil {
		return n, io.EOF
	}

	return n, err
}

// Seek rewinds to the first frame by reopening the decoder, then decodes
// forward to the target. go-audio/aiff has no random access.
func (s *source) Seek(frame int64, whence int) (int64, error) {
	if s.reopen == nil {
		return 0, audio.ErrNotSeekable
	}

	pos, err := audio.ResolveSeek(s.pos, s.frames, frame, whence)
	if err != nil {
		return 0, err
	}

	if pos < s.pos {
		dec, err := s.reopen()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", audio.ErrNotSeekable, err)
		}
		s.dec = dec
		s.pos = 0
	}

	chunk := s.BufSize() / s.channels * s.channels
	for s.pos < pos {
		want := min(int64(chunk), (pos-s.pos)*int64(s.channels))
		n, err := s.fill(int(want))
		if n == 0 || err != nil {
			break
		}
	}

	return s.pos, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// If not a ReadSeeker, we need to read all data into memory
		// This is a limitation of go-audio
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = &readSeeker{data: data, offset: 0}
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec, err := openDecoder(rs)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	return &source{
		dec: dec,
		reopen: func() (aiffReader, error) {
			if _, err := rs.Seek(start, io.SeekStart); err != nil {
				return nil, err
			}
			return openDecoder(rs)
		},
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		frames:     int64(dec.NumSampleFrames),
	}, nil
}

func openDecoder(rs io.ReadSeeker) (*aiff.Decoder, error) {
	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	// Read file info
	dec.ReadInfo()

	// Check bit depth - only support 16-bit for now
	if dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	return dec, nil
}

// readSeeker implements io.ReadSeeker for in-memory data
type readSeeker struct {
	data   []byte
	offset int64
}

func (rs *readSeeker) Read(p []byte) (n int, err error) {
	if rs.offset >= int64(len(rs.data)) {
		return 0, io.EOF
	}
	n = copy(p, rs.data[rs.offset:])
	rs.offset += int64(n)
	return n, nil
}

func (rs *readSeeker) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = rs.offset + offset
	case io.SeekEnd:
		newOffset = int64(len(rs.data)) + offset
	default:
		return 0, audio.ErrInvalidSeekWhence
	}

	if newOffset < 0 {
		return 0, audio.ErrNegativeSeekPosition
	}

	rs.offset = newOffset
	return newOffset, nil
}
