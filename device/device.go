// SPDX-License-Identifier: EPL-2.0

// Package device connects a render callback to an audio output.
//
// Devices are pull-based: the stream calls the callback whenever it needs
// another buffer of FramesPerBuffer interleaved float32 frames and waits for
// it to return. Returning false stops the stream.
package device

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFormat = errors.New("device: invalid format")
	ErrFormatInUse   = errors.New("device: output already open with a different format")
	ErrClosed        = errors.New("device: stream closed")
)

// Format describes the interleaved float32 buffers a stream asks for.
type Format struct {
	Channels        int
	SampleRate      int
	FramesPerBuffer int
}

func (f Format) Validate() error {
	var errs []error
	if f.Channels != 1 && f.Channels != 2 {
		errs = append(errs, fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrInvalidFormat, f.Channels))
	}
	if f.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidFormat, f.SampleRate))
	}
	if f.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("%w: frames per buffer must be positive, got %d", ErrInvalidFormat, f.FramesPerBuffer))
	}
	return errors.Join(errs...)
}

// Samples is the length of one buffer in float32 values.
func (f Format) Samples() int { return f.Channels * f.FramesPerBuffer }

// Callback fills out with the next buffer. out is zeroed or reused; the
// callback must overwrite all of it.
type Callback func(out []float32) bool

// Stream is an open output.
type Stream interface {
	Format() Format
	// Start begins invoking the callback.
	Start() error
	// Close stops the stream. No callback is running or will run once Close
	// returns.
	Close() error
}

// Device opens streams.
type Device interface {
	Open(f Format, cb Callback) (Stream, error)
}
