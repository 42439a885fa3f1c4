// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"errors"
	"testing"
	"time"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/internal/audiotest"
)

const (
	testRate   = 1000
	testFrames = 50
)

func newVoice(t testing.TB, src audio.Source, channels int) *audio.Converter {
	t.Helper()

	c, err := audio.NewConverter(src, channels, testFrames)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	return c
}

func send(t testing.TB, e *Engine, cmds ...Command) {
	t.Helper()

	for _, c := range cmds {
		if err := e.Queue().Send(c); err != nil {
			t.Fatalf("Send(%s) error = %v", c.Kind(), err)
		}
	}
}

func tick(e *Engine) []float32 {
	out := make([]float32, testFrames*e.Channels())
	e.Render(out)
	return out
}

func events(e *Engine) []Event {
	var evs []Event
	for {
		select {
		case ev := <-e.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func assertAll(t testing.TB, out []float32, want float32) {
	t.Helper()

	for i, s := range out {
		if s != want {
			t.Fatalf("out[%d] = %v, want %v", i, s, want)
		}
	}
}

func TestEngine_RenderZeroesBuffer(t *testing.T) {
	t.Parallel()

	e := NewEngine(2, testRate, NewQueue(8))
	out := make([]float32, 2*testFrames)
	for i := range out {
		out[i] = 9
	}

	if !e.Render(out) {
		t.Fatal("Render() = false on a live engine")
	}
	assertAll(t, out, 0)
}

func TestEngine_RenderStopsAfterTeardown(t *testing.T) {
	t.Parallel()

	q := NewQueue(8)
	e := NewEngine(1, testRate, q)
	q.Close()

	out := []float32{1, 1, 1}
	if e.Render(out) {
		t.Error("Render() = true after queue close")
	}
	assertAll(t, out, 0)
}

func TestEngine_MusicInstant(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithMusicVolume(0.5))

	first := audiotest.NewConstantSource(testRate, 1, 1000, 1)
	second := audiotest.NewConstantSource(testRate, 2, 1000, 0.5)

	send(t, e, PlayMusic{Voice: newVoice(t, first, 1), Serial: 1})
	assertAll(t, tick(e), 0.5)

	send(t, e, PlayMusic{Voice: newVoice(t, second, 1), Serial: 2})
	assertAll(t, tick(e), 0.25)

	evs := events(e)
	if len(evs) != 1 || evs[0].Kind != EventSourceRetired || evs[0].Source != first {
		t.Fatalf("events = %+v, want the first track retired", evs)
	}
	if first.Position() != testFrames {
		t.Errorf("retired track position = %d, want %d", first.Position(), testFrames)
	}
}

func TestEngine_MusicOverlapHalfway(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithTransition(Overlap(100*time.Millisecond)))

	outgoing := audiotest.NewConstantSource(testRate, 1, 1000, 1)
	incoming := audiotest.NewConstantSource(testRate, 1, 1000, 0.25)

	send(t, e, PlayMusic{Voice: newVoice(t, outgoing, 1), Serial: 1})
	assertAll(t, tick(e), 1)

	// elapsed = 0: outgoing at full gain, incoming silent.
	send(t, e, PlayMusic{Voice: newVoice(t, incoming, 1), Serial: 2})
	assertAll(t, tick(e), 1)

	// elapsed = D/2: both at half gain.
	assertAll(t, tick(e), 0.5*1+0.5*0.25)

	if e.music.Fading() {
		t.Fatal("outgoing track still fading after D frames")
	}
	assertAll(t, tick(e), 0.25)

	if incoming.Position() != 3*testFrames {
		t.Errorf("incoming position = %d, want %d", incoming.Position(), 3*testFrames)
	}
}

func TestEngine_MusicSmoothIsSequential(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithTransition(Smooth(100*time.Millisecond)))

	outgoing := audiotest.NewConstantSource(testRate, 1, 1000, 1)
	incoming := audiotest.NewRampSource(testRate, 1, 1000)

	send(t, e, PlayMusic{Voice: newVoice(t, outgoing, 1), Serial: 1})
	tick(e)

	send(t, e, PlayMusic{Voice: newVoice(t, incoming, 1), Serial: 2})
	assertAll(t, tick(e), 1)
	if incoming.Position() != 0 {
		t.Fatalf("incoming advanced to %d during fade-out", incoming.Position())
	}

	// Last fade tick: the outgoing track finishes and the incoming one
	// starts from its first frame.
	out := tick(e)
	for i, s := range out {
		if want := 0.5 + float32(i); s != want {
			t.Fatalf("out[%d] = %v, want %v", i, s, want)
		}
	}
	if e.music.Fading() {
		t.Error("transition still running after fade-out")
	}
}

func TestEngine_MusicPauseLetsFadeComplete(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithTransition(Overlap(100*time.Millisecond)))

	outgoing := audiotest.NewConstantSource(testRate, 1, 1000, 1)
	incoming := audiotest.NewConstantSource(testRate, 1, 1000, 1)

	send(t, e, PlayMusic{Voice: newVoice(t, outgoing, 1), Serial: 1})
	tick(e)
	send(t, e, PlayMusic{Voice: newVoice(t, incoming, 1), Serial: 2}, PauseMusic{})
	tick(e)
	tick(e)

	if e.music.Fading() {
		t.Error("fade-out did not complete while paused")
	}
	if incoming.Position() != 0 {
		t.Errorf("paused track advanced to %d", incoming.Position())
	}

	send(t, e, ResumeMusic{})
	assertAll(t, tick(e), 1)
	if incoming.Position() != testFrames {
		t.Errorf("resumed position = %d, want %d", incoming.Position(), testFrames)
	}
}

func TestEngine_MusicEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		loop     bool
		wantStop bool
	}{
		{"stops", false, true},
		{"loops", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewEngine(1, testRate, NewQueue(8), WithMusicLoop(tt.loop))
			src := audiotest.NewRampSource(testRate, 1, 30)
			send(t, e, PlayMusic{Voice: newVoice(t, src, 1), Serial: 7})

			out := tick(e)
			for i := 30; i < testFrames; i++ {
				want := float32(0)
				if tt.loop {
					want = float32(i - 30)
				}
				if out[i] != want {
					t.Fatalf("out[%d] = %v, want %v", i, out[i], want)
				}
			}

			evs := events(e)
			if tt.wantStop {
				if e.music.Playing() {
					t.Error("track still current after end of stream")
				}
				if len(evs) != 2 || evs[0].Source != src || evs[1].Kind != EventMusicStopped || evs[1].Serial != 7 {
					t.Errorf("events = %+v, want retire then stopped(7)", evs)
				}
			} else {
				if !e.music.Playing() || len(evs) != 0 {
					t.Errorf("looping track stopped, events = %+v", evs)
				}
				if src.Position() != 20 {
					t.Errorf("position after wrap = %d, want 20", src.Position())
				}
			}
		})
	}
}

func TestEngine_MusicEmptyLoopDoesNotSpin(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithMusicLoop(true))
	send(t, e, PlayMusic{Voice: newVoice(t, audiotest.NewSilentSource(testRate, 1, 0), 1), Serial: 1})

	tick(e)
	if e.music.Playing() {
		t.Error("empty looping track kept playing")
	}
}

func TestEngine_MusicSeekAndStop(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8))
	src := audiotest.NewRampSource(testRate, 1, 1000)

	send(t, e, PlayMusic{Voice: newVoice(t, src, 1), Serial: 1}, SeekMusic{Frame: 400})
	if out := tick(e); out[0] != 400 {
		t.Errorf("first sample after seek = %v, want 400", out[0])
	}

	send(t, e, StopMusic{})
	assertAll(t, tick(e), 0)
	if e.music.Playing() {
		t.Error("track current after StopMusic")
	}
}

func TestEngine_SetInstantClearsTransitional(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8), WithTransition(Smooth(time.Second)))
	outgoing := audiotest.NewConstantSource(testRate, 1, 5000, 1)
	incoming := audiotest.NewConstantSource(testRate, 1, 5000, 0.5)

	send(t, e, PlayMusic{Voice: newVoice(t, outgoing, 1), Serial: 1})
	tick(e)
	send(t, e, PlayMusic{Voice: newVoice(t, incoming, 1), Serial: 2})
	tick(e)

	send(t, e, SetTransition{Transition: Instant()})
	assertAll(t, tick(e), 0.5)

	if e.music.Fading() {
		t.Error("transitional survived switching to instant")
	}
	if e.music.Transition() != Instant() {
		t.Errorf("Transition() = %v, want instant", e.music.Transition())
	}
}

func TestEngine_ShortenedFadeStaysInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transition func(time.Duration) Transition
		outgoing   float32
		incoming   float32
		ticks      int // rendered at the long duration
		shortened  time.Duration
		want       []float32
	}{
		{
			// elapsed 800 is past the new 100 frames: the fade ends.
			name:       "overlap outgoing past new length",
			transition: Overlap,
			outgoing:   1,
			ticks:      16,
			shortened:  100 * time.Millisecond,
			want:       []float32{0, 0},
		},
		{
			name:       "overlap incoming past new length",
			transition: Overlap,
			incoming:   1,
			ticks:      16,
			shortened:  100 * time.Millisecond,
			want:       []float32{1, 1},
		},
		{
			name:       "smooth past new length",
			transition: Smooth,
			outgoing:   1,
			incoming:   0.5,
			ticks:      16,
			shortened:  100 * time.Millisecond,
			want:       []float32{0.5, 0.5},
		},
		{
			// elapsed 200 of a new 300: the fade continues at 2/3 and 5/6.
			name:       "overlap within new length",
			transition: Overlap,
			outgoing:   1,
			ticks:      4,
			shortened:  300 * time.Millisecond,
			want:       []float32{1.0 / 3, 1.0 / 6, 0},
		},
		{
			name:       "overlap incoming within new length",
			transition: Overlap,
			incoming:   1,
			ticks:      4,
			shortened:  300 * time.Millisecond,
			want:       []float32{2.0 / 3, 5.0 / 6, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewEngine(1, testRate, NewQueue(8), WithTransition(tt.transition(time.Second)))
			outgoing := audiotest.NewConstantSource(testRate, 1, 5000, tt.outgoing)
			incoming := audiotest.NewConstantSource(testRate, 1, 5000, tt.incoming)

			send(t, e, PlayMusic{Voice: newVoice(t, outgoing, 1), Serial: 1})
			tick(e)
			send(t, e, PlayMusic{Voice: newVoice(t, incoming, 1), Serial: 2})
			for range tt.ticks {
				tick(e)
			}

			send(t, e, SetTransition{Transition: tt.transition(tt.shortened)})
			for i, want := range tt.want {
				for j, s := range tick(e) {
					if s < 0 || s > 1 {
						t.Fatalf("tick %d: out[%d] = %v, outside [0, 1]", i, j, s)
					}
					if d := s - want; d > 1e-6 || d < -1e-6 {
						t.Fatalf("tick %d: out[%d] = %v, want %v", i, j, s, want)
					}
				}
			}
			if e.music.Fading() {
				t.Error("fade still running after the shortened length")
			}
		})
	}
}

func TestEngine_TransitionalUnderInstantPanics(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8))
	e.music.current = newVoice(t, audiotest.NewSilentSource(testRate, 1, 100), 1)
	e.music.transitional = newVoice(t, audiotest.NewSilentSource(testRate, 1, 100), 1)

	defer func() {
		if recover() == nil {
			t.Error("Render() did not panic on a transitional voice under instant")
		}
	}()
	tick(e)
}

func TestEngine_ShortPoolSteal(t *testing.T) {
	t.Parallel()

	a := audiotest.NewConstantSource(testRate, 1, 1000, 0.1)
	b := audiotest.NewConstantSource(testRate, 1, 1000, 0.1)
	pool := NewShortPool(newVoice(t, a, 1), newVoice(t, b, 1))
	e := NewEngine(1, testRate, NewQueue(8), WithShortPools(pool))

	send(t, e, PlayShort{Effect: 0, Volume: 1})
	tick(e)
	send(t, e, PlayShort{Effect: 0, Volume: 1})
	tick(e)
	send(t, e, PlayShort{Effect: 0, Volume: 1})
	tick(e)

	if got := pool.Active(); got != pool.Capacity() {
		t.Errorf("Active() = %d, want %d", got, pool.Capacity())
	}
	if got := e.Stats().Steals; got != 1 {
		t.Errorf("Steals = %d, want 1", got)
	}

	// The first voice started was restarted by the third play.
	if a.Seeks() != 2 || b.Seeks() != 1 {
		t.Errorf("seeks = (%d, %d), want (2, 1)", a.Seeks(), b.Seeks())
	}
	if a.Position() != testFrames || b.Position() != 2*testFrames {
		t.Errorf("positions = (%d, %d), want (%d, %d)", a.Position(), b.Position(), testFrames, 2*testFrames)
	}
}

func TestEngine_ShortPoolNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	voices := make([]*audio.Converter, 3)
	for i := range voices {
		voices[i] = newVoice(t, audiotest.NewSilentSource(testRate, 2, 10000), 2)
	}
	pool := NewShortPool(voices...)
	e := NewEngine(2, testRate, NewQueue(64), WithShortPools(pool))

	for i := range 10 {
		send(t, e, PlayShort{Effect: 0, Volume: 1})
		if i%3 == 0 {
			tick(e)
		}
		if got := pool.Active(); got > pool.Capacity() {
			t.Fatalf("Active() = %d, exceeds capacity %d", got, pool.Capacity())
		}
	}
	tick(e)
	if got := pool.Active(); got != 3 {
		t.Errorf("Active() = %d, want 3", got)
	}
}

func TestEngine_ShortMixAndRetire(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(testRate, 1, 20, 1)
	pool := NewShortPool(newVoice(t, src, 2))
	e := NewEngine(2, testRate, NewQueue(8), WithShortPools(pool))

	send(t, e, PlayShort{Effect: 0, Volume: 0.5}, PlayShort{Effect: 3, Volume: 1})
	out := tick(e)
	for i, s := range out {
		want := float32(0)
		if i < 40 {
			want = 0.5
		}
		if s != want {
			t.Fatalf("out[%d] = %v, want %v", i, s, want)
		}
	}
	if pool.Active() != 0 {
		t.Error("finished voice still active")
	}

	send(t, e, PlayShort{Effect: 0, Volume: 1}, StopShorts{})
	assertAll(t, tick(e), 0)
}

func TestEngine_PersistentFrozenAtZeroVolume(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(testRate, 1, 100000)
	e := NewEngine(1, testRate, NewQueue(8), WithPersistent(NewPersistent(newVoice(t, src, 1))))

	for range 5 {
		assertAll(t, tick(e), 0)
	}
	if src.Position() != 0 || src.Reads() != 0 {
		t.Fatalf("decoder read at volume 0: position %d, reads %d", src.Position(), src.Reads())
	}

	send(t, e, SetPersistentVolume{Effect: 0, Volume: 1})
	if out := tick(e); out[0] != 0 || out[testFrames-1] != testFrames-1 {
		t.Errorf("first tick = [%v ... %v], want [0 ... %d]", out[0], out[testFrames-1], testFrames-1)
	}

	send(t, e, SetPersistentVolume{Effect: 0, Volume: 0})
	for range 7 {
		tick(e)
	}

	send(t, e, SetPersistentVolumes{Volumes: []float32{1}})
	if out := tick(e); out[0] != testFrames {
		t.Errorf("resumed at %v, want %d", out[0], testFrames)
	}
}

func TestEngine_PersistentAlwaysLoops(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(testRate, 1, 40)
	p := NewPersistent(newVoice(t, src, 1))
	e := NewEngine(1, testRate, NewQueue(8), WithPersistent(p))

	send(t, e, SetPersistentVolume{Effect: 0, Volume: 1})
	out := tick(e)
	if out[39] != 39 || out[40] != 0 || out[49] != 9 {
		t.Errorf("loop seam = [%v %v %v], want [39 0 9]", out[39], out[40], out[49])
	}
	if p.Volume() != 1 {
		t.Errorf("Volume() = %v, want 1", p.Volume())
	}
}

func TestEngine_MutePersistent(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(testRate, 1, 100000, 1)
	e := NewEngine(1, testRate, NewQueue(8), WithPersistent(NewPersistent(newVoice(t, src, 1))))

	send(t, e, SetPersistentVolume{Effect: 0, Volume: 0.5}, MutePersistent{})
	assertAll(t, tick(e), 0)
	if src.Position() != 0 {
		t.Errorf("muted effect advanced to %d", src.Position())
	}

	send(t, e, UnmutePersistent{})
	assertAll(t, tick(e), 0.5)
}

func TestEngine_Release(t *testing.T) {
	t.Parallel()

	music := audiotest.NewSilentSource(testRate, 1, 1000)
	queued := audiotest.NewSilentSource(testRate, 1, 1000)
	short := audiotest.NewSilentSource(testRate, 1, 1000)
	amb := audiotest.NewSilentSource(testRate, 1, 1000)

	q := NewQueue(8)
	e := NewEngine(1, testRate, q,
		WithShortPools(NewShortPool(newVoice(t, short, 1))),
		WithPersistent(NewPersistent(newVoice(t, amb, 1))),
	)

	send(t, e, PlayMusic{Voice: newVoice(t, music, 1), Serial: 1})
	tick(e)
	send(t, e, PlayMusic{Voice: newVoice(t, queued, 1), Serial: 2})
	q.Close()

	if err := e.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	for name, src := range map[string]*audiotest.MockSource{
		"music": music, "queued": queued, "short": short, "persistent": amb,
	} {
		if !src.Closed() {
			t.Errorf("%s source not closed", name)
		}
	}

	if _, ok := <-e.Events(); ok {
		t.Error("Events() still open after Release")
	}
}

type failingClose struct {
	*audiotest.MockSource
}

func (failingClose) Close() error { return errors.New("close failed") }

func TestEngine_ReleaseJoinsErrors(t *testing.T) {
	t.Parallel()

	src := failingClose{audiotest.NewSilentSource(testRate, 1, 10)}
	e := NewEngine(1, testRate, NewQueue(8), WithPersistent(NewPersistent(newVoice(t, src, 1))))

	if err := e.Release(); err == nil {
		t.Error("Release() error = nil, want close failure")
	}
}

func TestEngine_EventBacklog(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(16), WithEventBuffer(1))

	sources := make([]*audiotest.MockSource, 4)
	for i := range sources {
		sources[i] = audiotest.NewSilentSource(testRate, 1, 1000)
		send(t, e, PlayMusic{Voice: newVoice(t, sources[i], 1), Serial: uint64(i)})
	}
	tick(e)

	// Three retirements with room for one: the rest wait for later ticks.
	var got []Event
	for range 3 {
		got = append(got, events(e)...)
		tick(e)
	}
	if len(got) != 3 {
		t.Fatalf("received %d events, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Source != sources[i] {
			t.Errorf("event %d carries the wrong source", i)
		}
	}
}

func TestEngine_Stats(t *testing.T) {
	t.Parallel()

	e := NewEngine(1, testRate, NewQueue(8))
	send(t, e, StopMusic{}, PauseMusic{}, ResumeMusic{})
	tick(e)
	tick(e)

	st := e.Stats()
	if st.Ticks != 2 || st.Commands != 3 {
		t.Errorf("Stats() = %+v, want 2 ticks and 3 commands", st)
	}
}

func TestEngine_RenderZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	q := NewQueue(8)
	e := NewEngine(2, testRate, q,
		WithMusicLoop(true),
		WithShortPools(NewShortPool(newVoice(t, audiotest.NewSineSource(testRate, 1, 1<<30, 220), 2))),
		WithPersistent(NewPersistent(newVoice(t, audiotest.NewSineSource(testRate, 2, 100, 110), 2))),
	)
	send(t, e,
		PlayMusic{Voice: newVoice(t, audiotest.NewSineSource(testRate, 2, 1<<30, 440), 2), Serial: 1},
		PlayShort{Effect: 0, Volume: 0.5},
		SetPersistentVolume{Effect: 0, Volume: 0.3},
	)

	out := make([]float32, 2*testFrames)
	e.Render(out)

	allocs := testing.AllocsPerRun(100, func() {
		e.Render(out)
	})
	if allocs > 0 {
		t.Errorf("Render() allocated %v times per tick, want 0", allocs)
	}
}

func BenchmarkEngine_Render(b *testing.B) {
	q := NewQueue(8)
	pools := make([]*ShortPool, 4)
	for i := range pools {
		pools[i] = NewShortPool(
			newVoice(b, audiotest.NewSineSource(48000, 1, 1<<30, 330), 2),
			newVoice(b, audiotest.NewSineSource(48000, 1, 1<<30, 330), 2),
		)
	}
	e := NewEngine(2, 48000, q, WithShortPools(pools...))
	for i := range pools {
		_ = q.Send(PlayShort{Effect: i, Volume: 0.2})
	}
	_ = q.Send(PlayMusic{Voice: newVoice(b, audiotest.NewSineSource(48000, 2, 1<<30, 440), 2), Serial: 1})

	out := make([]float32, 2*512)
	b.ReportAllocs()

	for b.Loop() {
		e.Render(out)
	}
}
