// SPDX-License-Identifier: EPL-2.0

// Package config defines the YAML settings a mixing session is built from.
//
// A minimal file:
//
//	channels: 2
//	sample_rate: 44100
//	effect_dir: assets/effects
//	distance_model: [pow2, 10, 110]
//	music_transition: [overlap, 2s]
//	short_effects:
//	  - [explosion.ogg, 4]
//	  - click.wav
//	persistent_effects: [wind.ogg]
//	musics: [village.ogg]
//
// Omitted fields keep the values from [Default].
package config

import (
	"path/filepath"

	"github.com/ik5/gamemix/mix"
	"github.com/ik5/gamemix/spatial"
)

// CheckLevel selects how eagerly catalog files are validated.
type CheckLevel string

const (
	// CheckAlways opens every catalog file before the session starts.
	CheckAlways CheckLevel = "always"
	// CheckNever skips the eager check. Music files are still checked when
	// played, and effects when their voices are opened.
	CheckNever CheckLevel = "never"
)

// IsValid reports whether l is a known level. The empty string means
// CheckAlways.
func (l CheckLevel) IsValid() bool {
	switch l {
	case "", CheckAlways, CheckNever:
		return true
	}
	return false
}

// Config is the complete session configuration.
type Config struct {
	CheckLevel      CheckLevel `yaml:"check_level"`
	Channels        int        `yaml:"channels"`
	SampleRate      int        `yaml:"sample_rate"`
	FramesPerBuffer int        `yaml:"frames_per_buffer"`

	EffectDir string `yaml:"effect_dir"`
	MusicDir  string `yaml:"music_dir"`

	GlobalVolume float32 `yaml:"global_volume"`
	MusicVolume  float32 `yaml:"music_volume"`
	EffectVolume float32 `yaml:"effect_volume"`

	DistanceModel   DistanceModel `yaml:"distance_model"`
	MusicLoop       bool          `yaml:"music_loop"`
	MusicTransition Transition    `yaml:"music_transition"`

	ShortEffects      []ShortEffect `yaml:"short_effects"`
	PersistentEffects []string      `yaml:"persistent_effects"`
	Musics            []string      `yaml:"musics"`

	// QueueCapacity bounds pending render commands. Zero means
	// mix.DefaultQueueCapacity.
	QueueCapacity int `yaml:"queue_capacity"`
}

// ShortEffect is a short effect file and how many copies of it may play at
// the same time.
type ShortEffect struct {
	Path   string `yaml:"path"`
	Voices int    `yaml:"voices"`
}

// Default returns a stereo 44.1 kHz configuration with empty catalogs.
func Default() *Config {
	return &Config{
		CheckLevel:      CheckAlways,
		Channels:        2,
		SampleRate:      44100,
		FramesPerBuffer: 64,
		GlobalVolume:    1,
		MusicVolume:     1,
		EffectVolume:    1,
		DistanceModel:   DistanceModel{Model: spatial.Model{Kind: spatial.Linear, Min: 1, Max: 100}},
		MusicTransition: Transition{Transition: mix.Instant()},
	}
}

// MusicPath resolves music i against MusicDir.
func (c *Config) MusicPath(i int) string { return join(c.MusicDir, c.Musics[i]) }

// ShortEffectPath resolves short effect i against EffectDir.
func (c *Config) ShortEffectPath(i int) string { return join(c.EffectDir, c.ShortEffects[i].Path) }

// PersistentEffectPath resolves persistent effect i against EffectDir.
func (c *Config) PersistentEffectPath(i int) string { return join(c.EffectDir, c.PersistentEffects[i]) }

func join(dir, p string) string {
	if dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
