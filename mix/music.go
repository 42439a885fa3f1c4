// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"io"

	"github.com/ik5/gamemix/audio"
)

// Music is the render-side music voice: a current track and, while a
// transition runs, the outgoing track fading out.
//
// Gains are constant within a tick and derived from the elapsed fade time
// as it stood when the tick began.
type Music struct {
	current       *audio.Converter
	currentSerial uint64
	transitional  *audio.Converter

	transition Transition
	fadeFrames int64
	elapsed    int64

	volume  float32
	looping bool
	paused  bool
}

// Playing reports whether a current track exists.
func (m *Music) Playing() bool { return m.current != nil }

// Fading reports whether an outgoing track is still fading.
func (m *Music) Fading() bool { return m.transitional != nil }

func (m *Music) Paused() bool { return m.paused }

func (m *Music) Transition() Transition { return m.transition }

func (m *Music) play(e *Engine, voice *audio.Converter, serial uint64) {
	if voice == nil {
		return
	}

	switch {
	case m.transition.IsInstant() || m.current == nil:
		m.dropTransitional(e)
		m.dropCurrent(e)
	default:
		// A fade already running is cut short by the new one.
		m.dropTransitional(e)
		m.transitional = m.current
		m.elapsed = 0
	}

	m.current = voice
	m.currentSerial = serial
	m.paused = false
}

func (m *Music) stop(e *Engine) {
	m.dropTransitional(e)
	m.dropCurrent(e)
	m.paused = false
}

func (m *Music) setTransition(e *Engine, t Transition) {
	m.transition = t
	m.fadeFrames = t.Frames(e.sampleRate)
	// A fade already past the new length is over.
	if t.IsInstant() || m.elapsed >= m.fadeFrames {
		m.dropTransitional(e)
	}
}

func (m *Music) dropTransitional(e *Engine) {
	if m.transitional != nil {
		e.retire(m.transitional.Source())
		m.transitional = nil
	}
	m.elapsed = 0
}

func (m *Music) dropCurrent(e *Engine) {
	if m.current != nil {
		e.retire(m.current.Source())
		m.current = nil
	}
}

// finish ends the current track after it ran out of frames.
func (m *Music) finish(e *Engine) {
	serial := m.currentSerial
	m.dropCurrent(e)
	m.paused = false
	e.emit(Event{Kind: EventMusicStopped, Serial: serial})
}

func (m *Music) fill(e *Engine, out []float32) {
	frames := len(out) / e.channels
	elapsed := m.elapsed
	fading := m.transitional != nil

	if fading {
		if m.transition.IsInstant() {
			panic("mix: transitional music voice present under instant transition")
		}

		gain := m.volume * (1 - fadeRatio(elapsed, m.fadeFrames))
		n := m.transitional.Mix(out, gain)
		m.elapsed += int64(n)
		if m.elapsed >= m.fadeFrames || n < frames {
			m.dropTransitional(e)
		}
	}

	if m.current == nil || m.paused {
		return
	}

	gain := m.volume
	if fading {
		switch m.transition.Kind {
		case TransitionSmooth:
			if m.transitional != nil {
				return
			}
		case TransitionOverlap:
			gain = m.volume * fadeRatio(elapsed, m.fadeFrames)
		}
	}

	got := 0
	rewound := false
	for got < frames {
		n := m.current.Mix(out[got*e.channels:], gain)
		got += n
		if got >= frames {
			break
		}

		if !m.looping || (rewound && n == 0) {
			m.finish(e)
			return
		}
		if _, err := m.current.Source().Seek(0, io.SeekStart); err != nil {
			m.finish(e)
			return
		}
		rewound = true
	}
}

// fadeRatio is the completed fraction of a fade, clamped to [0, 1].
func fadeRatio(elapsed, frames int64) float32 {
	return min(max(float32(elapsed)/float32(frames), 0), 1)
}
