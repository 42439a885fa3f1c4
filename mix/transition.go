// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"fmt"
	"time"
)

// TransitionKind says how the current track gives way to a new one.
type TransitionKind uint8

const (
	// TransitionInstant cuts the old track and starts the new one at once.
	TransitionInstant TransitionKind = iota
	// TransitionSmooth fades the old track out, then starts the new one.
	TransitionSmooth
	// TransitionOverlap fades the old track out while the new one fades in.
	TransitionOverlap
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionInstant:
		return "instant"
	case TransitionSmooth:
		return "smooth"
	case TransitionOverlap:
		return "overlap"
	default:
		return fmt.Sprintf("TransitionKind(%d)", uint8(k))
	}
}

// Transition is the music transition policy. Duration is ignored for
// TransitionInstant.
type Transition struct {
	Kind     TransitionKind
	Duration time.Duration
}

// Instant switches tracks on the next tick without a fade.
func Instant() Transition { return Transition{Kind: TransitionInstant} }

// Smooth fades the old track out over d, then starts the new one.
func Smooth(d time.Duration) Transition { return Transition{Kind: TransitionSmooth, Duration: d} }

// Overlap fades the old track out while the new one fades in, both over d.
func Overlap(d time.Duration) Transition { return Transition{Kind: TransitionOverlap, Duration: d} }

// IsInstant reports whether t switches without a fade.
func (t Transition) IsInstant() bool { return t.Kind == TransitionInstant }

// Equal reports whether t and o behave the same. The duration of an instant
// transition is ignored.
func (t Transition) Equal(o Transition) bool { return t.normalize() == o.normalize() }

func (t Transition) normalize() Transition {
	if t.Kind == TransitionInstant {
		return Instant()
	}
	return t
}

func (t Transition) String() string {
	if t.Kind == TransitionInstant {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Duration)
}

// Frames converts the fade duration to frames at sampleRate. Fades are at
// least one frame long.
func (t Transition) Frames(sampleRate int) int64 {
	if t.Kind == TransitionInstant {
		return 0
	}
	rate := int64(sampleRate)
	n := int64(t.Duration/time.Second)*rate + int64(t.Duration%time.Second)*rate/int64(time.Second)
	return max(n, 1)
}
