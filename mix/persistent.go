// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"io"

	"github.com/ik5/gamemix/audio"
)

// Persistent is an ambient loop that never stops. Its gain is computed by
// the control side; at gain 0 the decoder is not read at all, so the loop
// resumes from where it was when the gain comes back.
type Persistent struct {
	voice  *audio.Converter
	volume float32
}

// NewPersistent wraps voice as a persistent effect at volume 0.
func NewPersistent(voice *audio.Converter) *Persistent {
	return &Persistent{voice: voice}
}

func (p *Persistent) Volume() float32 { return p.volume }

func (p *Persistent) fill(e *Engine, out []float32) {
	if p.volume == 0 {
		return
	}

	frames := len(out) / e.channels
	got := 0
	rewound := false
	for got < frames {
		n := p.voice.Mix(out[got*e.channels:], p.volume)
		got += n
		if got >= frames || (rewound && n == 0) {
			return
		}
		if _, err := p.voice.Source().Seek(0, io.SeekStart); err != nil {
			return
		}
		rewound = true
	}
}
