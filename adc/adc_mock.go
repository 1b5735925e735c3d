package adc

import (
	"context"
)

// ChannelBehaviorFunc defines the function signature for a channel read behavior.
// It returns the raw conversion code or an error.
type ChannelBehaviorFunc func(ctx context.Context, ch Channel) (int16, error)

// MockChannelReader is a mock implementation of a multi-channel ADC that uses a behavior
// function to produce results without requiring any hardware.
type MockChannelReader struct {
	behavior ChannelBehaviorFunc
}

// NewMockChannelReader creates a new mock ADC with the given behavior function.
//
// Example usage:
//
//	codes := map[Channel]int16{AIN0: 1200, AIN1: -5}
//	a := NewMockChannelReader(func(ctx context.Context, ch Channel) (int16, error) { return codes[ch], nil })
func NewMockChannelReader(behavior ChannelBehaviorFunc) *MockChannelReader {
	return &MockChannelReader{behavior: behavior}
}

// ReadChannel returns the code by calling the behavior function.
func (m *MockChannelReader) ReadChannel(ctx context.Context, ch Channel) (int16, error) {
	return m.behavior(ctx, ch)
}
