// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"io"

	"github.com/ik5/gamemix/audio"
)

// Command is a request applied by the render goroutine at the start of a
// tick. The set of commands is closed; build them with the types below.
type Command interface {
	// Kind names the command for logs and metrics.
	Kind() string

	apply(e *Engine)
}

// PlayMusic starts Voice as the current track using the engine's transition
// policy. Serial identifies this play in EventMusicStopped.
type PlayMusic struct {
	Voice  *audio.Converter
	Serial uint64
}

// StopMusic drops the current and fading tracks.
type StopMusic struct{}

// PauseMusic freezes the current track. A fade-out in progress completes.
type PauseMusic struct{}

// ResumeMusic continues a paused track.
type ResumeMusic struct{}

// SeekMusic moves the current track to an absolute frame.
type SeekMusic struct {
	Frame int64
}

// SetMusicVolume sets the effective music gain.
type SetMusicVolume struct {
	Volume float32
}

// SetMusicLoop selects whether the current track restarts when it runs out.
type SetMusicLoop struct {
	Loop bool
}

// SetTransition replaces the transition policy. Switching to instant ends
// any fade in progress.
type SetTransition struct {
	Transition Transition
}

// PlayShort starts one voice of short effect Effect at Volume.
type PlayShort struct {
	Effect int
	Volume float32
}

// StopShorts silences every short effect voice.
type StopShorts struct{}

// SetPersistentVolume sets the gain of one persistent effect.
type SetPersistentVolume struct {
	Effect int
	Volume float32
}

// SetPersistentVolumes sets the gain of every persistent effect at once.
// Volumes is indexed by effect; extra entries are ignored.
type SetPersistentVolumes struct {
	Volumes []float32
}

// MutePersistent silences every persistent effect without changing its volume.
type MutePersistent struct{}

// UnmutePersistent undoes MutePersistent.
type UnmutePersistent struct{}

func (PlayMusic) Kind() string            { return "play_music" }
func (StopMusic) Kind() string            { return "stop_music" }
func (PauseMusic) Kind() string           { return "pause_music" }
func (ResumeMusic) Kind() string          { return "resume_music" }
func (SeekMusic) Kind() string            { return "seek_music" }
func (SetMusicVolume) Kind() string       { return "set_music_volume" }
func (SetMusicLoop) Kind() string         { return "set_music_loop" }
func (SetTransition) Kind() string        { return "set_transition" }
func (PlayShort) Kind() string            { return "play_short" }
func (StopShorts) Kind() string           { return "stop_shorts" }
func (SetPersistentVolume) Kind() string  { return "set_persistent_volume" }
func (SetPersistentVolumes) Kind() string { return "set_persistent_volumes" }
func (MutePersistent) Kind() string       { return "mute_persistent" }
func (UnmutePersistent) Kind() string     { return "unmute_persistent" }

func (c PlayMusic) apply(e *Engine) { e.music.play(e, c.Voice, c.Serial) }
func (StopMusic) apply(e *Engine)   { e.music.stop(e) }
func (PauseMusic) apply(e *Engine)  { e.music.paused = true }
func (ResumeMusic) apply(e *Engine) { e.music.paused = false }

func (c SeekMusic) apply(e *Engine) {
	if e.music.current == nil {
		return
	}
	_, _ = e.music.current.Source().Seek(c.Frame, io.SeekStart)
}

func (c SetMusicVolume) apply(e *Engine) { e.music.volume = c.Volume }
func (c SetMusicLoop) apply(e *Engine)   { e.music.looping = c.Loop }
func (c SetTransition) apply(e *Engine)  { e.music.setTransition(e, c.Transition) }

func (c PlayShort) apply(e *Engine) {
	if c.Effect < 0 || c.Effect >= len(e.shorts) {
		return
	}
	if e.shorts[c.Effect].play(c.Volume) {
		e.steals.Add(1)
	}
}

func (StopShorts) apply(e *Engine) {
	for _, p := range e.shorts {
		p.stopAll()
	}
}

func (c SetPersistentVolume) apply(e *Engine) {
	if c.Effect < 0 || c.Effect >= len(e.persistents) {
		return
	}
	e.persistents[c.Effect].volume = c.Volume
}

func (c SetPersistentVolumes) apply(e *Engine) {
	for i, p := range e.persistents {
		if i >= len(c.Volumes) {
			break
		}
		p.volume = c.Volumes[i]
	}
}

func (MutePersistent) apply(e *Engine)   { e.muted = true }
func (UnmutePersistent) apply(e *Engine) { e.muted = false }
