// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ik5/gamemix/mix"
	"github.com/ik5/gamemix/spatial"
)

// DistanceModel decodes either `[pow2, 10, 110]` or
// `{kind: pow2, min: 10, max: 110}`.
type DistanceModel struct {
	spatial.Model
}

type distanceModelMap struct {
	Kind string  `yaml:"kind"`
	Min  float32 `yaml:"min"`
	Max  float32 `yaml:"max"`
}

func (d *DistanceModel) UnmarshalYAML(value *yaml.Node) error {
	var raw distanceModelMap

	switch value.Kind {
	case yaml.SequenceNode:
		if len(value.Content) != 3 {
			return fmt.Errorf("line %d: distance_model wants [kind, min, max], got %d items", value.Line, len(value.Content))
		}
		raw.Kind = value.Content[0].Value
		if err := value.Content[1].Decode(&raw.Min); err != nil {
			return err
		}
		if err := value.Content[2].Decode(&raw.Max); err != nil {
			return err
		}
	case yaml.MappingNode:
		if err := value.Decode(&raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: distance_model must be a sequence or a mapping", value.Line)
	}

	kind, err := spatial.ParseKind(raw.Kind)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	d.Model = spatial.Model{Kind: kind, Min: raw.Min, Max: raw.Max}
	return nil
}

func (d DistanceModel) MarshalYAML() (any, error) {
	return []any{d.Kind.String(), d.Min, d.Max}, nil
}

// Transition decodes `instant`, `[smooth, 2s]` or
// `{kind: overlap, duration: 1.5s}`. A bare number is read as seconds.
type Transition struct {
	mix.Transition
}

type transitionMap struct {
	Kind     string `yaml:"kind"`
	Duration string `yaml:"duration"`
}

func (t *Transition) UnmarshalYAML(value *yaml.Node) error {
	var raw transitionMap

	switch value.Kind {
	case yaml.ScalarNode:
		raw.Kind = value.Value
	case yaml.SequenceNode:
		if len(value.Content) != 2 {
			return fmt.Errorf("line %d: music_transition wants [kind, duration], got %d items", value.Line, len(value.Content))
		}
		raw.Kind = value.Content[0].Value
		raw.Duration = value.Content[1].Value
	case yaml.MappingNode:
		if err := value.Decode(&raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: music_transition must be a scalar, sequence or mapping", value.Line)
	}

	var kind mix.TransitionKind
	switch raw.Kind {
	case "instant", "Instant":
		t.Transition = mix.Instant()
		return nil
	case "smooth", "Smooth":
		kind = mix.TransitionSmooth
	case "overlap", "Overlap":
		kind = mix.TransitionOverlap
	default:
		return fmt.Errorf("line %d: unknown music transition %q", value.Line, raw.Kind)
	}

	d, err := parseDuration(raw.Duration)
	if err != nil {
		return fmt.Errorf("line %d: music_transition duration: %w", value.Line, err)
	}

	t.Transition = mix.Transition{Kind: kind, Duration: d}
	return nil
}

func (t Transition) MarshalYAML() (any, error) {
	if t.IsInstant() {
		return t.Kind.String(), nil
	}
	return []any{t.Kind.String(), t.Duration.String()}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("missing duration")
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

type shortEffectMap ShortEffect

// UnmarshalYAML accepts `file.ogg` (one voice), `[file.ogg, 4]` or
// `{path: file.ogg, voices: 4}`.
func (s *ShortEffect) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = ShortEffect{Path: value.Value, Voices: 1}
	case yaml.SequenceNode:
		if len(value.Content) != 2 {
			return fmt.Errorf("line %d: short effect wants [path, voices], got %d items", value.Line, len(value.Content))
		}
		s.Path = value.Content[0].Value
		if err := value.Content[1].Decode(&s.Voices); err != nil {
			return err
		}
	case yaml.MappingNode:
		raw := shortEffectMap{Voices: 1}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*s = ShortEffect(raw)
	default:
		return fmt.Errorf("line %d: short effect must be a path, a sequence or a mapping", value.Line)
	}
	return nil
}
