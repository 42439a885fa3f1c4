// SPDX-License-Identifier: EPL-2.0

package gamemix

import (
	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/formats/aiff"
	"github.com/ik5/gamemix/formats/mp3"
	"github.com/ik5/gamemix/formats/vorbis"
	"github.com/ik5/gamemix/formats/wav"
)

// DefaultRegistry returns a registry with every bundled decoder, keyed by
// file extension.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}
