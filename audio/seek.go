// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// ResolveSeek computes the absolute frame position for a Seek call given the
// current position and the stream length (-1 when unknown).
func ResolveSeek(current, length, frame int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = frame
	case io.SeekCurrent:
		pos = current + frame
	case io.SeekEnd:
		if length < 0 {
			return 0, ErrNotSeekable
		}
		pos = length + frame
	default:
		return 0, ErrInvalidSeekWhence
	}

	if pos < 0 {
		return 0, ErrNegativeSeekPosition
	}
	if length >= 0 && pos > length {
		pos = length
	}

	return pos, nil
}
