// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding and channel conversion primitives the
// mixer is built on.
//
// # Source Interface
//
// Every decoder produces a Source: a pull-based stream of interleaved
// float32 samples in [-1, 1] that can be repositioned by frame.
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Seek(frame int64, whence int) (int64, error)
//	    Frames() int64
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns a count of float32 values, not frames. A zero count
// with io.EOF marks the end of the stream.
//
// # Channel Conversion
//
// A Converter adapts a mono or stereo source to a mono or stereo output and
// accumulates into the destination, so several sources can be mixed into the
// same buffer:
//
//	conv, err := audio.NewConverter(src, 2, 512)
//	clear(out)
//	frames := conv.Mix(out, 0.8)
//
// Stereo to mono averages the pair. Mono to stereo writes the sample to both
// channels. Equal layouts are scaled and added. Other channel counts are
// rejected with ErrUnsupportedChannels.
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	src, err := registry.Open("sounds/door.wav")
//
// Open wraps failures in ErrNotFound, ErrUnsupportedFormat or ErrCorrupt,
// and the returned Source closes the file along with the decoder.
package audio
