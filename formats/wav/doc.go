// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// The decoder reads PCM 16-bit files, mono or stereo, at any sample rate.
// Unknown chunks before "data" are skipped. When the input also implements
// io.Seeker the returned source supports frame-accurate Seek, which the mixer
// uses to rewind short effects and loop music.
//
//	f, _ := os.Open("shoot.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // ErrNotWavFile, ErrOnlyPCM16bitSupported, ...
//	}
//	src.Seek(0, io.SeekStart)
//
// # Writing WAV Files
//
// WriteWAV16 writes a complete file from int16 samples in one call. Writer
// streams float32 frames to an io.WriteSeeker through github.com/go-audio/wav
// and patches the header sizes on Close:
//
//	out, _ := os.Create("render.wav")
//	w := wav.NewWriter(out, 44100, 2)
//	w.Write(buf)
//	w.Close()
package wav
