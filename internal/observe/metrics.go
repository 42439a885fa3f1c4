// SPDX-License-Identifier: EPL-2.0

// Package observe records gamemix metrics through the OpenTelemetry Metrics
// API. Tests should use [NewMetrics] with their own [metric.MeterProvider].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/gamemix/mix"
)

// meterName is the instrumentation scope name used for all gamemix metrics.
const meterName = "github.com/ik5/gamemix"

// StatsSource is anything publishing render counters, normally a
// [mix.Engine].
type StatsSource interface {
	Stats() mix.Stats
}

// Metrics holds the session instruments. Methods are safe for concurrent
// use.
type Metrics struct {
	// CommandsSent counts commands accepted by the render queue. Attribute:
	//   attribute.String("kind", ...)
	CommandsSent metric.Int64Counter

	// CommandsRejected counts commands that never reached the render side.
	// Attribute: attribute.String("reason", ...)
	CommandsRejected metric.Int64Counter

	// Resets counts successful session resets.
	Resets metric.Int64Counter

	// ActiveSessions tracks initialised sessions.
	ActiveSessions metric.Int64UpDownCounter

	ticks    metric.Int64ObservableCounter
	commands metric.Int64ObservableCounter
	steals   metric.Int64ObservableCounter
	reg      metric.Registration

	mu      sync.Mutex
	next    uint64
	sources map[uint64]StatsSource
	retired mix.Stats
}

// NewMetrics creates a fully initialised [Metrics] using mp. A nil mp uses
// the global provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	met := &Metrics{sources: make(map[uint64]StatsSource)}
	var err error

	if met.CommandsSent, err = m.Int64Counter("gamemix.commands.sent",
		metric.WithDescription("Commands queued for the render engine, by kind."),
	); err != nil {
		return nil, err
	}
	if met.CommandsRejected, err = m.Int64Counter("gamemix.commands.rejected",
		metric.WithDescription("Commands dropped before reaching the render engine, by reason."),
	); err != nil {
		return nil, err
	}
	if met.Resets, err = m.Int64Counter("gamemix.sessions.resets",
		metric.WithDescription("Session resets that swapped in a new engine."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("gamemix.sessions.active",
		metric.WithDescription("Initialised mixing sessions."),
	); err != nil {
		return nil, err
	}

	if met.ticks, err = m.Int64ObservableCounter("gamemix.render.ticks",
		metric.WithDescription("Render callbacks served."),
	); err != nil {
		return nil, err
	}
	if met.commands, err = m.Int64ObservableCounter("gamemix.render.commands",
		metric.WithDescription("Commands applied by render engines."),
	); err != nil {
		return nil, err
	}
	if met.steals, err = m.Int64ObservableCounter("gamemix.render.steals",
		metric.WithDescription("Short effect plays that restarted a busy voice."),
	); err != nil {
		return nil, err
	}

	met.reg, err = m.RegisterCallback(met.observe, met.ticks, met.commands, met.steals)
	if err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) observe(_ context.Context, o metric.Observer) error {
	m.mu.Lock()
	total := m.retired
	for _, s := range m.sources {
		total = add(total, s.Stats())
	}
	m.mu.Unlock()

	o.ObserveInt64(m.ticks, int64(total.Ticks))
	o.ObserveInt64(m.commands, int64(total.Commands))
	o.ObserveInt64(m.steals, int64(total.Steals))
	return nil
}

// Observe starts reporting src's counters. The returned function stops it;
// counts seen so far stay in the totals.
func (m *Metrics) Observe(src StatsSource) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	id := m.next
	m.sources[id] = src

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			if s, ok := m.sources[id]; ok {
				m.retired = add(m.retired, s.Stats())
				delete(m.sources, id)
			}
		})
	}
}

// CommandSent records one accepted command.
func (m *Metrics) CommandSent(ctx context.Context, kind string) {
	m.CommandsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// CommandRejected records one dropped command.
func (m *Metrics) CommandRejected(ctx context.Context, reason string) {
	m.CommandsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Shutdown unregisters the render counter callback.
func (m *Metrics) Shutdown() error {
	return m.reg.Unregister()
}

func add(a, b mix.Stats) mix.Stats {
	return mix.Stats{
		Ticks:    a.Ticks + b.Ticks,
		Commands: a.Commands + b.Commands,
		Steals:   a.Steals + b.Steals,
	}
}
