// SPDX-License-Identifier: EPL-2.0

package gamemix

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/gamemix/audio"
	"github.com/ik5/gamemix/device"
)

// Option configures a [Session] in Init or New. Options are kept across
// resets.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	device        device.Device
	meterProvider metric.MeterProvider
	registry      *audio.Registry
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		device: device.Oto{},
	}
}

// WithLogger sets the logger for session lifecycle and rejected commands.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDevice replaces the oto output device, for example with a
// [device.Manual] to render offline.
func WithDevice(d device.Device) Option {
	return func(o *options) {
		if d != nil {
			o.device = d
		}
	}
}

// WithMeterProvider sets where session metrics are reported. The default is
// the global OpenTelemetry provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithRegistry sets the decoders used to open catalog files. The default is
// [DefaultRegistry].
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
