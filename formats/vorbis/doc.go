// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis. Sources opened from an
// io.ReadSeeker know their length and seek by sample position, which is how
// game ambience loops are rewound without reopening the file.
//
//	f, _ := os.Open("wind.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//	src.Seek(0, io.SeekStart)
package vorbis
