// SPDX-License-Identifier: EPL-2.0

package gamemix

import (
	"fmt"
	"time"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/config"
	"github.com/ik5/gamemix/mix"
)

// MusicStatus is the last known state of the music voice.
type MusicStatus uint8

const (
	MusicStopped MusicStatus = iota
	MusicPlaying
	MusicPaused
)

func (s MusicStatus) String() string {
	switch s {
	case MusicStopped:
		return "stopped"
	case MusicPlaying:
		return "playing"
	case MusicPaused:
		return "paused"
	}
	return fmt.Sprintf("MusicStatus(%d)", uint8(s))
}

// PlayMusic opens music id and starts it with the current transition.
func (s *Session) PlayMusic(id int) error {
	return s.update(func(st *state) error {
		return s.playMusic(st, id)
	})
}

// PlayOrContinueMusic plays id unless it is already the playing or paused
// track.
func (s *Session) PlayOrContinueMusic(id int) error {
	return s.update(func(st *state) error {
		if st.music.status != MusicStopped && st.music.index == id {
			return nil
		}
		return s.playMusic(st, id)
	})
}

func (s *Session) playMusic(st *state, id int) error {
	if id < 0 || id >= len(st.cfg.Musics) {
		return fmt.Errorf("%w: %d", ErrUnknownMusic, id)
	}

	path := st.cfg.MusicPath(id)
	src, err := st.registry.Open(path)
	if err != nil {
		return fmt.Errorf("%w: musics[%d]: %w", ErrConfig, id, err)
	}
	if err := config.CheckSource(src, st.cfg.SampleRate); err != nil {
		_ = src.Close()
		return fmt.Errorf("%w: musics[%d] %q: %w", ErrConfig, id, path, err)
	}
	voice, err := audio.NewConverter(src, st.cfg.Channels, st.cfg.FramesPerBuffer)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("%w: musics[%d]: %w", ErrConfig, id, err)
	}

	serial := st.serial + 1
	if err := s.send(st, mix.PlayMusic{Voice: voice, Serial: serial}); err != nil {
		_ = src.Close()
		return err
	}

	st.serial = serial
	st.music.index = id
	st.music.status = MusicPlaying
	st.music.serial = serial
	return nil
}

// StopMusic drops the current track and any track fading out.
func (s *Session) StopMusic() error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.StopMusic{}); err != nil {
			return err
		}
		st.music.index = -1
		st.music.status = MusicStopped
		return nil
	})
}

// PauseMusic freezes the current track. A fade out in progress still
// completes.
func (s *Session) PauseMusic() error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.PauseMusic{}); err != nil {
			return err
		}
		if st.music.status == MusicPlaying {
			st.music.status = MusicPaused
		}
		return nil
	})
}

// ResumeMusic continues a paused track.
func (s *Session) ResumeMusic() error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.ResumeMusic{}); err != nil {
			return err
		}
		if st.music.status == MusicPaused {
			st.music.status = MusicPlaying
		}
		return nil
	})
}

// SeekMusic moves the current track to pos from its start. Negative
// positions seek to the start; positions past the end clamp to it.
func (s *Session) SeekMusic(pos time.Duration) error {
	return s.update(func(st *state) error {
		pos = max(pos, 0)
		rate := int64(st.cfg.SampleRate)
		frame := int64(pos/time.Second)*rate + int64(pos%time.Second)*rate/int64(time.Second)
		return s.send(st, mix.SeekMusic{Frame: frame})
	})
}

// SetMusicVolume sets the music volume. The track plays at the global
// volume times this one.
func (s *Session) SetMusicVolume(v float32) error {
	if err := config.ValidateVolume(v); err != nil {
		return fmt.Errorf("music volume: %w", err)
	}
	return s.update(func(st *state) error {
		if err := s.send(st, mix.SetMusicVolume{Volume: st.globalVolume * v}); err != nil {
			return err
		}
		st.musicVolume = v
		return nil
	})
}

func (s *Session) MusicVolume() float32 {
	var v float32
	s.view(func(st *state) { v = st.musicVolume })
	return v
}

// SetMusicLoop selects whether a track restarts when it runs out.
func (s *Session) SetMusicLoop(loop bool) error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.SetMusicLoop{Loop: loop}); err != nil {
			return err
		}
		st.music.looping = loop
		return nil
	})
}

func (s *Session) MusicLooping() bool {
	var loop bool
	s.view(func(st *state) { loop = st.music.looping })
	return loop
}

// SetMusicTransition sets how the next PlayMusic replaces the current
// track. Switching to Instant cuts any fade in progress.
func (s *Session) SetMusicTransition(t mix.Transition) error {
	if !t.IsInstant() && t.Duration < 0 {
		return fmt.Errorf("music transition duration must not be negative, got %s", t.Duration)
	}
	return s.update(func(st *state) error {
		if err := s.send(st, mix.SetTransition{Transition: t}); err != nil {
			return err
		}
		st.transition = t
		return nil
	})
}

func (s *Session) MusicTransition() mix.Transition {
	var t mix.Transition
	s.view(func(st *state) { t = st.transition })
	return t
}

// MusicIndex returns the catalog index of the playing or paused track.
func (s *Session) MusicIndex() (int, bool) {
	idx := -1
	s.view(func(st *state) { idx = st.music.index })
	return idx, idx >= 0
}

func (s *Session) MusicStatus() MusicStatus {
	status := MusicStopped
	s.view(func(st *state) { status = st.music.status })
	return status
}
