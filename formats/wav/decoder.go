// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/utils"
)

type wavSource struct {
	r          io.Reader
	sampleRate int
	channels   int
	dataStart  int64 // byte offset of the first PCM frame
	frames     int64 // total frames in the data chunk
	pos        int64 // current frame
	// assume PCM 16-bit
	buf []byte
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Frames() int64   { return s.frames }
func (s *wavSource) BufSize() int    { return cap(s.buf) / 2 }
func (s *wavSource) Close() error    { return nil }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	remaining := (s.frames - s.pos) * int64(s.channels)
	if remaining <= 0 {
		return 0, io.EOF
	}
	want := min(int64(len(dst)), remaining)

	if int64(cap(s.buf)) < want*2 {
		s.buf = make([]byte, want*2)
	}
	s.buf = s.buf[:want*2]

	n, err := io.ReadFull(s.r, s.buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w", err)
	}

	samples := n / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i : 2*i+2]))
		dst[i] = utils.Int16ToFloat32(v)
	}
	s.pos += int64(samples / s.channels)

	if samples == 0 {
		// Data chunk shorter than its header claimed.
		s.frames = s.pos
		return 0, io.EOF
	}
	if s.pos >= s.frames {
		return samples, io.EOF
	}
	return samples, nil
}

func (s *wavSource) Seek(frame int64, whence int) (int64, error) {
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return 0, audio.ErrNotSeekable
	}

	pos, err := audio.ResolveSeek(s.pos, s.frames, frame, whence)
	if err != nil {
		return 0, err
	}

	offset := s.dataStart + pos*int64(s.channels)*2
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	s.pos = pos

	return pos, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// RIFF/WAVE header, then walk chunks until "data", skipping unknown ones.
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWavFile
	}

	var (
		offset     int64 = 12
		haveFmt    bool
		channels   int
		sampleRate int
		chunk      = make([]byte, 8)
	)

	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, ErrUnsupportedWavChunks
		}
		offset += 8

		id := string(chunk[:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrUnsupportedWavLayout
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, ErrUnsupportedWavLayout
			}
			offset += int64(len(body))

			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample := binary.LittleEndian.Uint16(body[14:16])

			if audioFormat != 1 || bitsPerSample != 16 {
				return nil, ErrOnlyPCM16bitSupported
			}
			if channels <= 0 {
				return nil, ErrUnsupportedWavLayout
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, ErrMissingFmtChunk
			}
			return &wavSource{
				r:          r,
				sampleRate: sampleRate,
				channels:   channels,
				dataStart:  offset,
				frames:     size / int64(channels*2),
				buf:        make([]byte, 8192),
			}, nil

		default:
			// Chunks are word aligned.
			skip := size + size%2
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, ErrUnsupportedWavChunks
			}
			offset += skip
		}
	}
}
