// SPDX-License-Identifier: EPL-2.0

// Package utils holds sample format conversions shared by the decoders,
// the WAV writer and the device backends.
package utils

// Int16ToFloat32 maps a signed 16-bit PCM sample to [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 inside int16
	return int16(x * 32767.0)
}

// Clamp limits every sample of buf to [-1, 1] in place and returns how many
// samples were out of range.
func Clamp(buf []float32) int {
	clipped := 0
	for i, s := range buf {
		switch {
		case s > 1:
			buf[i] = 1
			clipped++
		case s < -1:
			buf[i] = -1
			clipped++
		}
	}
	return clipped
}
