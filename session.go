// SPDX-License-Identifier: EPL-2.0

package gamemix

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/config"
	"github.com/ik5/gamemix/device"
	"github.com/ik5/gamemix/internal/observe"
	"github.com/ik5/gamemix/mix"
	"github.com/ik5/gamemix/spatial"
)

// Session is one running mixer: its control state, render engine and output
// stream. The zero value is ready for Init. All methods are safe for
// concurrent use.
type Session struct {
	// life serialises Init, Reset and Close. Building a new state happens
	// under life only, so the running one keeps taking commands meanwhile.
	life sync.Mutex

	mu      sync.RWMutex
	opts    options
	metrics *observe.Metrics
	st      *state
}

// state is everything a reset replaces. Fields are guarded by Session.mu.
type state struct {
	cfg      *config.Config
	registry *audio.Registry

	queue       *mix.Queue
	engine      *mix.Engine
	stream      device.Stream
	unobserve   func()
	janitorDone chan struct{}

	globalVolume float32
	musicVolume  float32
	effectVolume float32
	listener     spatial.Vec3
	model        spatial.Model
	transition   mix.Transition
	muted        bool
	positions    [][]spatial.Vec3

	music  musicMirror
	serial uint64
}

// musicMirror is what the control side last asked the music voice to do.
// The janitor clears it when the track it names runs out.
type musicMirror struct {
	index   int
	status  MusicStatus
	looping bool
	serial  uint64
}

// New creates and initialises a session.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	s := &Session{}
	if err := s.Init(ctx, cfg, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Init validates cfg, opens every effect voice and starts the output
// stream. A nil cfg means config.Default(). Calling Init on a running
// session returns ErrDoubleInit; after Close it may be called again.
func (s *Session) Init(ctx context.Context, cfg *config.Config, opts ...Option) error {
	s.life.Lock()
	defer s.life.Unlock()

	s.mu.RLock()
	running := s.st != nil
	s.mu.RUnlock()
	if running {
		return ErrDoubleInit
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}

	m, err := observe.NewMetrics(o.meterProvider)
	if err != nil {
		return fmt.Errorf("gamemix: metrics: %w", err)
	}

	st, err := s.newState(ctx, cfg, o, m)
	if err != nil {
		_ = m.Shutdown()
		return err
	}

	s.mu.Lock()
	s.opts = o
	s.metrics = m
	s.st = st
	s.mu.Unlock()

	m.ActiveSessions.Add(ctx, 1)
	o.logger.Info("mixing session started",
		"channels", st.cfg.Channels,
		"sample_rate", st.cfg.SampleRate,
		"frames_per_buffer", st.cfg.FramesPerBuffer,
		"musics", len(st.cfg.Musics),
		"short_effects", len(st.cfg.ShortEffects),
		"persistent_effects", len(st.cfg.PersistentEffects),
	)
	return nil
}

// Reset replaces the running state with one built from cfg. The new stream
// is started before the old one is torn down, and commands issued after
// Reset returns only reach the new engine. On error the old state keeps
// running untouched.
func (s *Session) Reset(ctx context.Context, cfg *config.Config) error {
	s.life.Lock()
	defer s.life.Unlock()

	s.mu.RLock()
	old, o, m := s.st, s.opts, s.metrics
	s.mu.RUnlock()
	if old == nil {
		return ErrNotInitialized
	}

	st, err := s.newState(ctx, cfg, o, m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	if err := old.teardown(); err != nil {
		o.logger.Warn("releasing previous mixing state", "error", err)
	}

	m.Resets.Add(ctx, 1)
	o.logger.Info("mixing session reset",
		"channels", st.cfg.Channels,
		"sample_rate", st.cfg.SampleRate,
		"frames_per_buffer", st.cfg.FramesPerBuffer,
	)
	return nil
}

// Close stops the stream and releases every decoder. Closing a session
// that is not running is a no-op.
func (s *Session) Close() error {
	s.life.Lock()
	defer s.life.Unlock()

	s.mu.Lock()
	st, m, log := s.st, s.metrics, s.opts.logger
	s.st = nil
	s.mu.Unlock()
	if st == nil {
		return nil
	}

	err := st.teardown()
	m.ActiveSessions.Add(context.Background(), -1)
	err = errors.Join(err, m.Shutdown())

	log.Info("mixing session closed")
	return err
}

// Stats returns the live engine's counters, or zero when not running.
func (s *Session) Stats() mix.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.st == nil {
		return mix.Stats{}
	}
	return s.st.engine.Stats()
}

func (s *Session) newState(ctx context.Context, cfg *config.Config, o options, m *observe.Metrics) (*state, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	for _, w := range config.Warnings(cfg) {
		o.logger.Warn(w)
	}
	if cfg.CheckLevel != config.CheckNever {
		if err := config.CheckFiles(ctx, cfg, o.registry); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	var opened []audio.Source
	fail := func(err error) (*state, error) {
		for _, src := range opened {
			if cerr := src.Close(); cerr != nil {
				o.logger.Warn("closing effect source", "error", cerr)
			}
		}
		return nil, err
	}
	openVoice := func(path string) (*audio.Converter, error) {
		src, err := o.registry.Open(path)
		if err != nil {
			return nil, err
		}
		opened = append(opened, src)
		if err := config.CheckSource(src, cfg.SampleRate); err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		return audio.NewConverter(src, cfg.Channels, cfg.FramesPerBuffer)
	}

	pools := make([]*mix.ShortPool, len(cfg.ShortEffects))
	for i, e := range cfg.ShortEffects {
		voices := make([]*audio.Converter, e.Voices)
		for j := range voices {
			v, err := openVoice(cfg.ShortEffectPath(i))
			if err != nil {
				return fail(fmt.Errorf("%w: short_effects[%d]: %w", ErrConfig, i, err))
			}
			voices[j] = v
		}
		pools[i] = mix.NewShortPool(voices...)
	}

	persistents := make([]*mix.Persistent, len(cfg.PersistentEffects))
	for i := range cfg.PersistentEffects {
		v, err := openVoice(cfg.PersistentEffectPath(i))
		if err != nil {
			return fail(fmt.Errorf("%w: persistent_effects[%d]: %w", ErrConfig, i, err))
		}
		persistents[i] = mix.NewPersistent(v)
	}

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = mix.DefaultQueueCapacity
	}
	q := mix.NewQueue(capacity)

	st := &state{
		cfg:          cfg,
		registry:     o.registry,
		queue:        q,
		globalVolume: cfg.GlobalVolume,
		musicVolume:  cfg.MusicVolume,
		effectVolume: cfg.EffectVolume,
		model:        cfg.DistanceModel.Model,
		transition:   cfg.MusicTransition.Transition,
		positions:    make([][]spatial.Vec3, len(cfg.PersistentEffects)),
		music:        musicMirror{index: -1, looping: cfg.MusicLoop},
	}

	// The engine owns every opened source from here on.
	st.engine = mix.NewEngine(cfg.Channels, cfg.SampleRate, q,
		mix.WithShortPools(pools...),
		mix.WithPersistent(persistents...),
		mix.WithMusicVolume(st.globalVolume*st.musicVolume),
		mix.WithMusicLoop(cfg.MusicLoop),
		mix.WithTransition(st.transition),
	)

	format := device.Format{
		Channels:        cfg.Channels,
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.FramesPerBuffer,
	}
	stream, err := o.device.Open(format, st.engine.Render)
	if err != nil {
		q.Close()
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrDevice, err), st.engine.Release())
	}
	if err := stream.Start(); err != nil {
		q.Close()
		cerr := stream.Close()
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrDevice, err), cerr, st.engine.Release())
	}
	st.stream = stream

	st.janitorDone = make(chan struct{})
	go s.janitor(st, o)
	st.unobserve = m.Observe(st.engine)

	return st, nil
}

// janitor runs on the control side for the lifetime of st. It closes the
// decoders the engine hands back and follows natural music ends.
func (s *Session) janitor(st *state, o options) {
	defer close(st.janitorDone)

	for ev := range st.engine.Events() {
		switch ev.Kind {
		case mix.EventSourceRetired:
			if err := ev.Source.Close(); err != nil {
				o.logger.Warn("closing retired source", "error", err)
			}
		case mix.EventMusicStopped:
			s.mu.Lock()
			if st.music.serial == ev.Serial {
				st.music.index = -1
				st.music.status = MusicStopped
			}
			s.mu.Unlock()
		}
	}
}

// teardown stops rendering and waits for the janitor. It must be called
// without holding Session.mu.
func (st *state) teardown() error {
	st.queue.Close()

	var errs []error
	if err := st.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrDevice, err))
	}
	// The stream no longer calls Render, so the engine can be released.
	if err := st.engine.Release(); err != nil {
		errs = append(errs, err)
	}
	<-st.janitorDone
	st.unobserve()

	return errors.Join(errs...)
}

// update runs fn on the live state under the write lock.
func (s *Session) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return ErrNotInitialized
	}
	return fn(s.st)
}

// view runs fn on the live state under the read lock. It reports false
// when the session is not running.
func (s *Session) view(fn func(st *state)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.st == nil {
		return false
	}
	fn(s.st)
	return true
}

// sendAll queues cmds only if every one of them fits. Callers hold s.mu,
// and the render side only ever frees room.
func (s *Session) sendAll(st *state, cmds ...mix.Command) error {
	if room := st.queue.Cap() - st.queue.Len(); room < len(cmds) {
		s.metrics.CommandRejected(context.Background(), "queue_full")
		s.opts.logger.Warn("command rejected", "kind", cmds[0].Kind(), "error", mix.ErrQueueFull)
		return fmt.Errorf("%s: %w", cmds[0].Kind(), mix.ErrQueueFull)
	}
	for _, c := range cmds {
		if err := s.send(st, c); err != nil {
			return err
		}
	}
	return nil
}

// send queues c for the render engine. Callers hold s.mu.
func (s *Session) send(st *state, c mix.Command) error {
	ctx := context.Background()

	err := st.queue.Send(c)
	switch {
	case err == nil:
		s.metrics.CommandSent(ctx, c.Kind())
		return nil
	case errors.Is(err, mix.ErrQueueClosed):
		s.metrics.CommandRejected(ctx, "closed")
		s.opts.logger.Warn("command rejected", "kind", c.Kind(), "error", err)
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	default:
		s.metrics.CommandRejected(ctx, "queue_full")
		s.opts.logger.Warn("command rejected", "kind", c.Kind(), "error", err)
		return fmt.Errorf("%s: %w", c.Kind(), err)
	}
}
