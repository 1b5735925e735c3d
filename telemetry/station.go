package telemetry

import (
	"context"
	"errors"
	"log/slog"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/adc"
	"github.com/Waldgeist-49/Garden/environment"
)

type ChannelReader interface {
	ReadChannel(ctx context.Context, ch adc.Channel) (int16, error)
}

type EnvironmentSensor interface {
	Sense(ctx context.Context) (environment.Reading, error)
}

// initializer is implemented by sensors that can be brought up again after a failed or
// skipped initialization.
type initializer interface {
	Init(ctx context.Context) error
}

// SensorsPayload is served on /sensors. temp is in °C and press in hPa.
type SensorsPayload struct {
	A0    int16   `json:"A0" yaml:"A0"`
	A1    int16   `json:"A1" yaml:"A1"`
	Temp  float64 `json:"temp" yaml:"temp"`
	Press float64 `json:"press" yaml:"press"`
}

// GardenPayload is the simplified record served on /data.
type GardenPayload struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Pressure    float64 `json:"pressure" yaml:"pressure"`
	Soil0       int16   `json:"soil0" yaml:"soil0"`
	Soil1       int16   `json:"soil1" yaml:"soil1"`
}

type StationOpts struct {
	Channels [2]adc.Channel
}

type StationOpt func(*StationOpts)

// WithChannels selects the ADC inputs exported as A0/soil0 and A1/soil1.
func WithChannels(first, second adc.Channel) StationOpt {
	return func(o *StationOpts) {
		o.Channels = [2]adc.Channel{first, second}
	}
}

// Station samples all sensors on demand. Failures never propagate: the affected fields
// stay zero and the error is logged.
type Station struct {
	adc    ChannelReader
	env    EnvironmentSensor
	config StationOpts
}

// NewStation accepts nil sensors; their fields are then always zero.
func NewStation(reader ChannelReader, env EnvironmentSensor, opts ...StationOpt) *Station {
	config := StationOpts{Channels: [2]adc.Channel{adc.AIN0, adc.AIN1}}
	for _, opt := range opts {
		opt(&config)
	}
	return &Station{adc: reader, env: env, config: config}
}

func (s *Station) Sensors(ctx context.Context) SensorsPayload {
	codes, r := s.sample(ctx)
	return SensorsPayload{A0: codes[0], A1: codes[1], Temp: r.Celsius(), Press: r.HectoPascal()}
}

func (s *Station) Garden(ctx context.Context) GardenPayload {
	codes, r := s.sample(ctx)
	return GardenPayload{Temperature: r.Celsius(), Pressure: r.HectoPascal(), Soil0: codes[0], Soil1: codes[1]}
}

func (s *Station) sample(ctx context.Context) ([2]int16, environment.Reading) {
	var codes [2]int16
	if s.adc != nil {
		for i, ch := range s.config.Channels {
			code, err := s.adc.ReadChannel(ctx, ch)
			if err != nil {
				slog.Warn("adc read failed", "channel", ch.String(), "error", err)
				continue
			}
			codes[i] = code
		}
	}
	return codes, s.sense(ctx)
}

func (s *Station) sense(ctx context.Context) environment.Reading {
	if s.env == nil {
		return environment.Reading{}
	}
	r, err := s.env.Sense(ctx)
	if errors.Is(err, garden.ErrUninitialized) {
		if i, ok := s.env.(initializer); ok {
			slog.Info("initializing environment sensor")
			if err := i.Init(ctx); err != nil {
				slog.Warn("environment sensor init failed", "error", err)
				return environment.Reading{}
			}
			r, err = s.env.Sense(ctx)
		}
	}
	if err != nil {
		slog.Warn("environment read failed", "error", err)
		return environment.Reading{}
	}
	return r
}
