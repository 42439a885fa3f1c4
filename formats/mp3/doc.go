// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files. The
// decoder always yields interleaved stereo at the stream's native rate. When
// the input is an io.ReadSeeker the source seeks by frame, which go-mp3
// serves by re-decoding from the nearest MPEG frame.
//
//	f, _ := os.Open("theme.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package mp3
