package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveAndCoast(t *testing.T) {
	m := NewMount(map[string]*Axis{"el": NewAxis(-10, 100, 0)})
	var edges int
	require.NoError(t, m.WatchEncoder("el", func() { edges++ }))
	pos, _, err := m.Relays("el")
	require.NoError(t, err)

	pos.Set(true)
	for i := 0; i < 1000; i++ {
		m.Step(StepSize)
	}
	a := m.Axis("el")
	assert.InDelta(t, maxVel, a.Velocity(), 1e-9)
	moved := a.Position()
	assert.InDelta(t, float64(edges)*EdgeSpacing, moved, EdgeSpacing)

	pos.Set(false)
	for i := 0; i < 500; i++ {
		m.Step(StepSize)
	}
	assert.Equal(t, 0.0, a.Velocity())
	assert.Greater(t, a.Position(), moved, "axis coasts after power is cut")
}

func TestEndStop(t *testing.T) {
	m := NewMount(map[string]*Axis{"az": NewAxis(-10, 370, -9)})
	_, neg, err := m.Relays("az")
	require.NoError(t, err)
	neg.Set(true)
	for i := 0; i < int(2*time.Second/StepSize); i++ {
		m.Step(StepSize)
	}
	a := m.Axis("az")
	assert.Equal(t, -10.0, a.Position())
	assert.Equal(t, 0.0, a.Velocity())
}

func TestBothRelaysBrake(t *testing.T) {
	a := NewAxis(0, 10, 5)
	relay{a, true}.Set(true)
	relay{a, false}.Set(true)
	a.Step(StepSize)
	assert.Equal(t, 0.0, a.Velocity())
}

func TestUnknownAxis(t *testing.T) {
	m := New()
	_, _, err := m.Relays("roll")
	assert.Error(t, err)
	assert.Error(t, m.WatchEncoder("roll", func() {}))
}
