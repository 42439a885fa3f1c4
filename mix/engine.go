// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"errors"
	"sync/atomic"

	"github.com/ik5/gamemix/audio"
)

// EventKind tells the control side what an [Event] carries.
type EventKind uint8

const (
	// EventMusicStopped is sent when a non-looping track ran out. Serial is
	// the one given in PlayMusic.
	EventMusicStopped EventKind = iota + 1
	// EventSourceRetired hands a decoder the engine no longer uses back to
	// the control side to be closed.
	EventSourceRetired
)

// Event is a render-to-control notification.
type Event struct {
	Kind   EventKind
	Serial uint64
	Source audio.Source
}

// Stats are counters maintained by the render goroutine.
type Stats struct {
	Ticks    uint64
	Commands uint64
	Steals   uint64
}

// Option configures an [Engine] during construction.
type Option func(*Engine)

// WithShortPools adds short effect pools, indexed in the order given.
func WithShortPools(pools ...*ShortPool) Option {
	return func(e *Engine) {
		e.shorts = append(e.shorts, pools...)
	}
}

// WithPersistent adds persistent effects, indexed in the order given.
func WithPersistent(effects ...*Persistent) Option {
	return func(e *Engine) {
		e.persistents = append(e.persistents, effects...)
	}
}

// WithMusicVolume sets the initial music gain. The default is 1.
func WithMusicVolume(v float32) Option {
	return func(e *Engine) {
		e.music.volume = v
	}
}

func WithMusicLoop(loop bool) Option {
	return func(e *Engine) {
		e.music.looping = loop
	}
}

func WithTransition(t Transition) Option {
	return func(e *Engine) {
		e.music.transition = t
	}
}

// WithEventBuffer sizes the event channel. Events that do not fit are held
// back and retried on the following ticks.
func WithEventBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.eventCap = n
		}
	}
}

// Engine is the render state. Render must only be called from one
// goroutine at a time; everything else reaches the engine through its Queue.
type Engine struct {
	channels   int
	sampleRate int
	queue      *Queue

	music       Music
	shorts      []*ShortPool
	persistents []*Persistent
	muted       bool

	eventCap int
	events   chan Event
	backlog  []Event

	ticks    atomic.Uint64
	commands atomic.Uint64
	steals   atomic.Uint64
}

// NewEngine creates an engine rendering channels-interleaved buffers at
// sampleRate and consuming commands from q.
func NewEngine(channels, sampleRate int, q *Queue, opts ...Option) *Engine {
	e := &Engine{
		channels:   channels,
		sampleRate: sampleRate,
		queue:      q,
		eventCap:   64,
	}
	e.music.volume = 1
	for _, o := range opts {
		o(e)
	}

	e.music.setTransition(e, e.music.transition)

	// Every command in a full queue can retire at most two tracks.
	e.events = make(chan Event, e.eventCap)
	e.backlog = make([]Event, 0, 2*q.Cap()+16)

	return e
}

// Events delivers music-stopped notifications and retired decoders. It is
// closed by Release.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) Queue() *Queue { return e.queue }

func (e *Engine) Channels() int   { return e.channels }
func (e *Engine) SampleRate() int { return e.sampleRate }

// Stats is safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:    e.ticks.Load(),
		Commands: e.commands.Load(),
		Steals:   e.steals.Load(),
	}
}

// Render produces one buffer of interleaved samples into out. It returns
// false once the queue was closed, which tells the device to stop calling.
func (e *Engine) Render(out []float32) bool {
	clear(out)
	if e.queue.closed() {
		return false
	}

	for {
		c, ok := e.queue.tryRecv()
		if !ok {
			break
		}
		c.apply(e)
		e.commands.Add(1)
	}

	e.music.fill(e, out)
	for _, p := range e.shorts {
		p.fill(e, out)
	}
	if !e.muted {
		for _, p := range e.persistents {
			p.fill(e, out)
		}
	}

	e.flush()
	e.ticks.Add(1)

	return true
}

// Release closes every decoder the engine holds, including those inside
// commands still queued, and closes the event channel. Call it only after
// the device stopped invoking Render.
func (e *Engine) Release() error {
	var errs []error
	closeSrc := func(s audio.Source) {
		if s == nil {
			return
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	for {
		c, ok := e.queue.tryRecv()
		if !ok {
			break
		}
		if pm, ok := c.(PlayMusic); ok && pm.Voice != nil {
			closeSrc(pm.Voice.Source())
		}
	}

	if e.music.current != nil {
		closeSrc(e.music.current.Source())
		e.music.current = nil
	}
	if e.music.transitional != nil {
		closeSrc(e.music.transitional.Source())
		e.music.transitional = nil
	}
	for _, p := range e.shorts {
		for i := range p.slots {
			closeSrc(p.slots[i].voice.Source())
			p.slots[i].active = false
		}
	}
	for _, p := range e.persistents {
		closeSrc(p.voice.Source())
	}

	for _, ev := range e.backlog {
		closeSrc(ev.Source)
	}
	e.backlog = e.backlog[:0]
	close(e.events)

	return errors.Join(errs...)
}

func (e *Engine) retire(s audio.Source) {
	e.emit(Event{Kind: EventSourceRetired, Source: s})
}

func (e *Engine) emit(ev Event) {
	if len(e.backlog) == 0 {
		select {
		case e.events <- ev:
			return
		default:
		}
	}

	if len(e.backlog) < cap(e.backlog) {
		e.backlog = append(e.backlog, ev)
		return
	}

	// Backlog exhausted: the control side stopped consuming. Closing here
	// is the only way not to leak the handle.
	if ev.Source != nil {
		_ = ev.Source.Close()
	}
}

func (e *Engine) flush() {
	sent := 0
loop:
	for _, ev := range e.backlog {
		select {
		case e.events <- ev:
			sent++
		default:
			break loop
		}
	}
	if sent > 0 {
		n := copy(e.backlog, e.backlog[sent:])
		clear(e.backlog[n:])
		e.backlog = e.backlog[:n]
	}
}
