// SPDX-License-Identifier: EPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ik5/gamemix/audio"
)

// ErrSampleRateMismatch is returned for a file whose sample rate differs
// from the configured one. No resampling is done.
var ErrSampleRateMismatch = errors.New("config: sample rate mismatch")

// checkConcurrency bounds the files decoded at once by CheckFiles.
const checkConcurrency = 8

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over [Default] and validates the
// result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.CheckLevel.IsValid() {
		errs = append(errs, fmt.Errorf("check_level %q is invalid; valid values: always, never", cfg.CheckLevel))
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", cfg.Channels))
	}
	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", cfg.SampleRate))
	}
	if cfg.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("frames_per_buffer must be positive, got %d", cfg.FramesPerBuffer))
	}
	if cfg.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("queue_capacity must not be negative, got %d", cfg.QueueCapacity))
	}

	for _, v := range []struct {
		name  string
		value float32
	}{
		{"global_volume", cfg.GlobalVolume},
		{"music_volume", cfg.MusicVolume},
		{"effect_volume", cfg.EffectVolume},
	} {
		if err := ValidateVolume(v.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
		}
	}

	if err := cfg.DistanceModel.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("distance_model: %w", err))
	}
	if !cfg.MusicTransition.IsInstant() && cfg.MusicTransition.Duration < 0 {
		errs = append(errs, fmt.Errorf("music_transition duration must not be negative, got %s", cfg.MusicTransition.Duration))
	}

	for i, e := range cfg.ShortEffects {
		if e.Path == "" {
			errs = append(errs, fmt.Errorf("short_effects[%d]: path is required", i))
		}
		if e.Voices < 1 {
			errs = append(errs, fmt.Errorf("short_effects[%d] %q: voices must be at least 1, got %d", i, e.Path, e.Voices))
		}
	}
	for i, p := range cfg.PersistentEffects {
		if p == "" {
			errs = append(errs, fmt.Errorf("persistent_effects[%d]: path is required", i))
		}
	}
	for i, p := range cfg.Musics {
		if p == "" {
			errs = append(errs, fmt.Errorf("musics[%d]: path is required", i))
		}
	}

	return errors.Join(errs...)
}

// Warnings lists what is legal in cfg but probably a mistake. The caller
// decides where to log them.
func Warnings(cfg *Config) []string {
	var warns []string
	if len(cfg.ShortEffects) == 0 && len(cfg.PersistentEffects) == 0 && len(cfg.Musics) == 0 {
		warns = append(warns, "config has no musics and no effects; the session will only render silence")
	}
	return warns
}

// ValidateVolume rejects volumes outside [0, 1].
func ValidateVolume(v float32) error {
	if math.IsNaN(float64(v)) || v < 0 || v > 1 {
		return fmt.Errorf("volume must be in [0, 1], got %v", v)
	}
	return nil
}

// CheckSource verifies that src can be mixed into output of the given
// sample rate.
func CheckSource(src audio.Source, sampleRate int) error {
	if ch := src.Channels(); ch != 1 && ch != 2 {
		return fmt.Errorf("%w: %d", audio.ErrUnsupportedChannels, ch)
	}
	if sr := src.SampleRate(); sr != sampleRate {
		return fmt.Errorf("%w: file is %d Hz, output is %d Hz", ErrSampleRateMismatch, sr, sampleRate)
	}
	return nil
}

// CheckFiles opens every catalog file through reg and checks it with
// CheckSource. Files are decoded concurrently; all failures are joined.
func CheckFiles(ctx context.Context, cfg *Config, reg *audio.Registry) error {
	var paths []string
	for i := range cfg.ShortEffects {
		paths = append(paths, cfg.ShortEffectPath(i))
	}
	for i := range cfg.PersistentEffects {
		paths = append(paths, cfg.PersistentEffectPath(i))
	}
	for i := range cfg.Musics {
		paths = append(paths, cfg.MusicPath(i))
	}

	errs := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = checkFile(reg, p, cfg.SampleRate)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func checkFile(reg *audio.Registry, path string, sampleRate int) error {
	src, err := reg.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := CheckSource(src, sampleRate); err != nil {
		return fmt.Errorf("%q: %w", path, err)
	}
	return nil
}
