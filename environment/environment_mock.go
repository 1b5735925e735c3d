package environment

import (
	"context"
)

// SenseBehaviorFunc defines the function signature for a sense behavior.
type SenseBehaviorFunc func(ctx context.Context) (Reading, error)

// InitBehaviorFunc defines the function signature for an init behavior.
type InitBehaviorFunc func(ctx context.Context) error

// MockEnvironmentSensor is a mock implementation of an environmental sensor that uses
// behavior functions to produce results without requiring any hardware.
type MockEnvironmentSensor struct {
	senseBehavior SenseBehaviorFunc
	initBehavior  InitBehaviorFunc
}

// NewMockEnvironmentSensor creates a new mock sensor. A nil init behavior makes Init
// succeed.
//
// Example usage:
//
//	sensor := NewMockEnvironmentSensor(
//		func(ctx context.Context) (Reading, error) { return Reading{Temperature: 2508, Pressure: 100656}, nil },
//		nil,
//	)
func NewMockEnvironmentSensor(senseBehavior SenseBehaviorFunc, initBehavior InitBehaviorFunc) *MockEnvironmentSensor {
	return &MockEnvironmentSensor{
		senseBehavior: senseBehavior,
		initBehavior:  initBehavior,
	}
}

// Sense returns the reading by calling the sense behavior function.
func (m *MockEnvironmentSensor) Sense(ctx context.Context) (Reading, error) {
	return m.senseBehavior(ctx)
}

// Init calls the init behavior function.
func (m *MockEnvironmentSensor) Init(ctx context.Context) error {
	if m.initBehavior == nil {
		return nil
	}
	return m.initBehavior(ctx)
}
