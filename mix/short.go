// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"io"

	"github.com/ik5/gamemix/audio"
)

// ShortPool is a fixed set of voices opened on the same file. Each play
// takes a free voice; when none is free the voice playing the longest is
// restarted for the new play.
type ShortPool struct {
	slots []shortSlot
	seq   uint64
}

type shortSlot struct {
	voice  *audio.Converter
	volume float32
	active bool
	seq    uint64
}

// NewShortPool builds a pool with one slot per voice. Each voice must have
// its own read cursor.
func NewShortPool(voices ...*audio.Converter) *ShortPool {
	p := &ShortPool{slots: make([]shortSlot, len(voices))}
	for i, v := range voices {
		p.slots[i].voice = v
	}
	return p
}

// Capacity is the number of voices.
func (p *ShortPool) Capacity() int { return len(p.slots) }

// Active counts voices currently playing.
func (p *ShortPool) Active() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].active {
			n++
		}
	}
	return n
}

// play starts a voice at volume and reports whether it had to steal one.
func (p *ShortPool) play(volume float32) bool {
	if len(p.slots) == 0 {
		return false
	}

	idx, oldest := -1, 0
	for i := range p.slots {
		if !p.slots[i].active {
			idx = i
			break
		}
		if p.slots[i].seq < p.slots[oldest].seq {
			oldest = i
		}
	}

	stolen := idx < 0
	if stolen {
		idx = oldest
	}

	p.seq++
	s := &p.slots[idx]
	_, _ = s.voice.Source().Seek(0, io.SeekStart)
	s.volume = volume
	s.active = true
	s.seq = p.seq

	return stolen
}

func (p *ShortPool) stopAll() {
	for i := range p.slots {
		p.slots[i].active = false
	}
}

func (p *ShortPool) fill(e *Engine, out []float32) {
	frames := len(out) / e.channels
	for i := range p.slots {
		s := &p.slots[i]
		if !s.active {
			continue
		}
		if s.voice.Mix(out, s.volume) < frames {
			s.active = false
		}
	}
}
