// SPDX-License-Identifier: EPL-2.0

package gamemix

import (
	"fmt"
	"slices"

	"github.com/ik5/gamemix/config"
	"github.com/ik5/gamemix/mix"
	"github.com/ik5/gamemix/spatial"
)

// SetGlobalVolume scales music and effects. The music gain and every
// persistent effect volume are sent again; short effects already playing
// keep their volume.
func (s *Session) SetGlobalVolume(v float32) error {
	if err := config.ValidateVolume(v); err != nil {
		return fmt.Errorf("global volume: %w", err)
	}
	return s.update(func(st *state) error {
		cmds := []mix.Command{mix.SetMusicVolume{Volume: v * st.musicVolume}}
		if volumes := st.persistentVolumes(v, st.effectVolume); volumes != nil {
			cmds = append(cmds, mix.SetPersistentVolumes{Volumes: volumes})
		}
		if err := s.sendAll(st, cmds...); err != nil {
			return err
		}
		st.globalVolume = v
		return nil
	})
}

func (s *Session) GlobalVolume() float32 {
	var v float32
	s.view(func(st *state) { v = st.globalVolume })
	return v
}

// SetEffectVolume sets the volume of effects played from now on and
// recomputes persistent effect volumes.
func (s *Session) SetEffectVolume(v float32) error {
	if err := config.ValidateVolume(v); err != nil {
		return fmt.Errorf("effect volume: %w", err)
	}
	return s.update(func(st *state) error {
		if volumes := st.persistentVolumes(st.globalVolume, v); volumes != nil {
			if err := s.send(st, mix.SetPersistentVolumes{Volumes: volumes}); err != nil {
				return err
			}
		}
		st.effectVolume = v
		return nil
	})
}

func (s *Session) EffectVolume() float32 {
	var v float32
	s.view(func(st *state) { v = st.effectVolume })
	return v
}

// SetListener moves the listener. Persistent effects pick it up on the next
// UpdatePersistentVolume or UpdateAllPersistentVolumes.
func (s *Session) SetListener(pos spatial.Vec3) error {
	return s.update(func(st *state) error {
		st.listener = pos
		return nil
	})
}

func (s *Session) Listener() spatial.Vec3 {
	var pos spatial.Vec3
	s.view(func(st *state) { pos = st.listener })
	return pos
}

// SetDistanceModel replaces the attenuation model used for effects played
// from now on.
func (s *Session) SetDistanceModel(m spatial.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.update(func(st *state) error {
		st.model = m
		return nil
	})
}

func (s *Session) DistanceModel() spatial.Model {
	var m spatial.Model
	s.view(func(st *state) { m = st.model })
	return m
}

// PlayEffect plays short effect id heard from pos. An effect that would be
// inaudible is not played and does not take a voice.
func (s *Session) PlayEffect(id int, pos spatial.Vec3) error {
	return s.update(func(st *state) error {
		return s.playEffect(st, id, st.model.Attenuation(pos, st.listener))
	})
}

// PlayEffectOnListener plays short effect id without attenuation.
func (s *Session) PlayEffectOnListener(id int) error {
	return s.update(func(st *state) error {
		return s.playEffect(st, id, 1)
	})
}

func (s *Session) playEffect(st *state, id int, attenuation float32) error {
	if id < 0 || id >= len(st.cfg.ShortEffects) {
		return fmt.Errorf("%w: short effect %d", ErrUnknownEffect, id)
	}

	v := st.globalVolume * st.effectVolume * attenuation
	if v == 0 {
		return nil
	}
	return s.send(st, mix.PlayShort{Effect: id, Volume: v})
}

// StopEffects silences every short effect.
func (s *Session) StopEffects() error {
	return s.update(func(st *state) error {
		return s.send(st, mix.StopShorts{})
	})
}

// MuteEffects silences persistent effects without touching their volumes
// or positions.
func (s *Session) MuteEffects() error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.MutePersistent{}); err != nil {
			return err
		}
		st.muted = true
		return nil
	})
}

func (s *Session) UnmuteEffects() error {
	return s.update(func(st *state) error {
		if err := s.send(st, mix.UnmutePersistent{}); err != nil {
			return err
		}
		st.muted = false
		return nil
	})
}

func (s *Session) EffectsMuted() bool {
	var muted bool
	s.view(func(st *state) { muted = st.muted })
	return muted
}

// AddPersistentPosition registers one more source of persistent effect id.
// Volumes change on the next update call.
func (s *Session) AddPersistentPosition(id int, pos spatial.Vec3) error {
	return s.AddPersistentPositions(id, pos)
}

func (s *Session) AddPersistentPositions(id int, pos ...spatial.Vec3) error {
	return s.update(func(st *state) error {
		if err := checkPersistent(st, id); err != nil {
			return err
		}
		st.positions[id] = append(st.positions[id], pos...)
		return nil
	})
}

// AddPersistentPositionsForAll registers sources for several persistent
// effects at once. Nothing is added if any id is unknown.
func (s *Session) AddPersistentPositionsForAll(all map[int][]spatial.Vec3) error {
	return s.update(func(st *state) error {
		for id := range all {
			if err := checkPersistent(st, id); err != nil {
				return err
			}
		}
		for id, pos := range all {
			st.positions[id] = append(st.positions[id], pos...)
		}
		return nil
	})
}

func (s *Session) ClearPersistentPositions(id int) error {
	return s.update(func(st *state) error {
		if err := checkPersistent(st, id); err != nil {
			return err
		}
		st.positions[id] = st.positions[id][:0]
		return nil
	})
}

func (s *Session) ClearAllPersistentPositions() error {
	return s.update(func(st *state) error {
		for i := range st.positions {
			st.positions[i] = st.positions[i][:0]
		}
		return nil
	})
}

// PersistentPositions returns a copy of the sources registered for id.
func (s *Session) PersistentPositions(id int) []spatial.Vec3 {
	var pos []spatial.Vec3
	s.view(func(st *state) {
		if id >= 0 && id < len(st.positions) {
			pos = slices.Clone(st.positions[id])
		}
	})
	return pos
}

// UpdatePersistentVolume recomputes the volume of persistent effect id from
// its sources and the listener, and sends it to the render engine.
func (s *Session) UpdatePersistentVolume(id int) error {
	return s.update(func(st *state) error {
		if err := checkPersistent(st, id); err != nil {
			return err
		}
		return s.send(st, mix.SetPersistentVolume{Effect: id, Volume: st.persistentVolume(id)})
	})
}

// UpdateAllPersistentVolumes is UpdatePersistentVolume for every effect, as
// a single command.
func (s *Session) UpdateAllPersistentVolumes() error {
	return s.update(func(st *state) error {
		return s.sendPersistentVolumes(st)
	})
}

func (s *Session) sendPersistentVolumes(st *state) error {
	volumes := st.persistentVolumes(st.globalVolume, st.effectVolume)
	if volumes == nil {
		return nil
	}
	return s.send(st, mix.SetPersistentVolumes{Volumes: volumes})
}

func (st *state) persistentVolume(id int) float32 {
	return st.globalVolume * st.effectVolume * st.model.Sum(st.positions[id], st.listener)
}

// persistentVolumes computes every persistent effect volume for the given
// global and effect volumes, or nil when there are no persistent effects.
func (st *state) persistentVolumes(global, effect float32) []float32 {
	if len(st.positions) == 0 {
		return nil
	}

	volumes := make([]float32, len(st.positions))
	for i := range volumes {
		volumes[i] = global * effect * st.model.Sum(st.positions[i], st.listener)
	}
	return volumes
}

func checkPersistent(st *state, id int) error {
	if id < 0 || id >= len(st.positions) {
		return fmt.Errorf("%w: persistent effect %d", ErrUnknownEffect, id)
	}
	return nil
}
