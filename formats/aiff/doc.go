// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF files into an audio.Source using
// github.com/go-audio/aiff.
//
// Samples are normalized to [-1.0, 1.0] and keep the file's channel layout
// and sample rate. The frame count comes from the COMM chunk.
//
// go-audio/aiff only reads forward, so Seek rewinds the input to where the
// file started and decodes up to the requested frame. Backward seeks on a
// long file cost a partial re-decode. Inputs that are not an io.ReadSeeker
// are buffered in memory.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrOnlyPCM16bitSupported) {
//	    // 8, 24 and 32-bit files are rejected
//	}
package aiff
