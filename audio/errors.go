// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrNotFound             = errors.New("audio file not found")
	ErrUnsupportedFormat    = errors.New("unsupported audio format")
	ErrCorrupt              = errors.New("corrupt audio file")
	ErrUnsupportedChannels  = errors.New("unsupported channel count")
	ErrNotSeekable          = errors.New("source is not seekable")
	ErrInvalidSeekWhence    = errors.New("invalid seek whence")
	ErrNegativeSeekPosition = errors.New("negative seek position")
)
