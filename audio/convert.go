// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
)

// Converter reads frames from a Source and accumulates them into an
// interleaved output buffer with a different (or equal) channel count.
// The strategy is picked once, when the converter is created.
type Converter struct {
	src       Source
	srcCh     int
	dstCh     int
	maxFrames int
	scratch   []float32
	mix       func(dst, in []float32, volume float32)
}

// NewConverter binds src to an output layout of outChannels. maxFrames sizes
// the internal read buffer; Mix calls larger than that are served in chunks.
func NewConverter(src Source, outChannels, maxFrames int) (*Converter, error) {
	srcCh := src.Channels()

	var mix func(dst, in []float32, volume float32)
	switch {
	case srcCh == 2 && outChannels == 1:
		mix = mixStereoToMono
	case srcCh == 1 && outChannels == 2:
		mix = mixMonoToStereo
	case srcCh == outChannels && (srcCh == 1 || srcCh == 2):
		mix = mixDirect
	default:
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnsupportedChannels, srcCh, outChannels)
	}

	if maxFrames <= 0 {
		maxFrames = src.BufSize() / srcCh
	}
	if maxFrames <= 0 {
		maxFrames = 1024
	}

	return &Converter{
		src:       src,
		srcCh:     srcCh,
		dstCh:     outChannels,
		maxFrames: maxFrames,
		scratch:   make([]float32, maxFrames*srcCh),
		mix:       mix,
	}, nil
}

// Source returns the wrapped source.
func (c *Converter) Source() Source { return c.src }

// Mix reads up to len(dst)/outChannels frames and adds them to dst scaled by
// volume. It returns the number of frames read; 0 means end of stream.
// Read errors end the stream.
func (c *Converter) Mix(dst []float32, volume float32) int {
	frames := len(dst) / c.dstCh
	got := 0

	for got < frames {
		want := min(frames-got, c.maxFrames)
		n, err := c.src.ReadSamples(c.scratch[:want*c.srcCh])
		nf := n / c.srcCh
		if nf > 0 {
			c.mix(dst[got*c.dstCh:], c.scratch[:nf*c.srcCh], volume)
			got += nf
		}
		if err != nil || nf == 0 {
			break
		}
	}

	return got
}

func mixStereoToMono(dst, in []float32, volume float32) {
	for f := range len(in) >> 1 {
		idx := f << 1
		dst[f] += (in[idx] + in[idx+1]) * 0.5 * volume
	}
}

func mixMonoToStereo(dst, in []float32, volume float32) {
	for f, s := range in {
		v := s * volume
		dst[f<<1] += v
		dst[f<<1+1] += v
	}
}

func mixDirect(dst, in []float32, volume float32) {
	for i, s := range in {
		dst[i] += s * volume
	}
}
