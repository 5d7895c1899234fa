// Package sim simulates a relay-driven gearmotor mount with end-stops and
// single-channel encoders.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/hardware"
)

const (
	// Velocity at full speed in degrees/second
	maxVel = 7.5
	// Spin-up acceleration in degrees/second^2
	maxAccel = 60
	// Deceleration due to drag when not driving
	dragAccel = 60
	// StepSize is the discrete simulation step size
	StepSize = time.Millisecond
	// EdgeSpacing is the travel between encoder transitions in degrees
	EdgeSpacing = 0.0375
)

// Axis is one simulated axis. Positions are in degrees.
type Axis struct {
	// Min and Max are the positions of the end-stops.
	Min, Max float64

	mu           sync.Mutex
	pos, vel     float64
	posOn, negOn bool
	slot         int64
	edge         hardware.EdgeHandler
}

func NewAxis(min, max, start float64) *Axis {
	return &Axis{
		Min:  min,
		Max:  max,
		pos:  start,
		slot: slotOf(start),
	}
}

func slotOf(pos float64) int64 {
	return int64(math.Floor(pos / EdgeSpacing))
}

// Position returns the true position of the axis.
func (a *Axis) Position() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

// Velocity returns the current velocity in degrees/second.
func (a *Axis) Velocity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vel
}

// velServo returns the velocity after one step of accelerating from s
// towards t.
func velServo(s, t float64, dt time.Duration) float64 {
	delta := math.Abs(t - s)
	if delta > maxAccel*dt.Seconds() {
		delta = maxAccel * dt.Seconds()
	}
	if t < s {
		delta = -delta
	}
	return s + delta
}

func drag(s float64, dt time.Duration) float64 {
	a := math.Abs(s)
	a -= dragAccel * dt.Seconds()
	if a < 0 {
		a = 0
	}
	if s < 0 {
		return -a
	}
	return a
}

// Step advances the axis by dt, firing one encoder edge per EdgeSpacing
// travelled.
func (a *Axis) Step(dt time.Duration) {
	a.mu.Lock()
	var drive float64
	switch {
	case a.posOn && a.negOn:
		// Both windings energized; the motor brakes.
	case a.posOn:
		drive = maxVel
	case a.negOn:
		drive = -maxVel
	}
	if a.posOn != a.negOn {
		a.vel = velServo(a.vel, drive, dt)
	} else {
		a.vel = drag(a.vel, dt)
	}
	a.pos += a.vel * dt.Seconds()
	if a.pos < a.Min {
		a.pos, a.vel = a.Min, 0
	} else if a.pos > a.Max {
		a.pos, a.vel = a.Max, 0
	}
	slot := slotOf(a.pos)
	edges := slot - a.slot
	if edges < 0 {
		edges = -edges
	}
	a.slot = slot
	edge := a.edge
	a.mu.Unlock()

	if edge == nil {
		return
	}
	for ; edges > 0; edges-- {
		edge()
	}
}

type relay struct {
	a        *Axis
	positive bool
}

func (r relay) Set(on bool) error {
	r.a.mu.Lock()
	defer r.a.mu.Unlock()
	if r.positive {
		r.a.posOn = on
	} else {
		r.a.negOn = on
	}
	return nil
}

// Mount is a set of named simulated axes. It implements hardware.Backend.
type Mount struct {
	axes map[string]*Axis
}

var _ hardware.Backend = (*Mount)(nil)

// New returns a mount whose axes start away from their end-stops at
// positions unknown to the controller.
func New() *Mount {
	return &Mount{axes: map[string]*Axis{
		"azimuth":   NewAxis(-10, 370, 37.2),
		"elevation": NewAxis(-10, 100, 23.4),
	}}
}

// NewMount returns a mount with the given axes.
func NewMount(axes map[string]*Axis) *Mount {
	return &Mount{axes: axes}
}

func (m *Mount) Axis(name string) *Axis {
	return m.axes[name]
}

func (m *Mount) get(name string) (*Axis, error) {
	a, ok := m.axes[name]
	if !ok {
		return nil, errors.Errorf("no simulated axis %q", name)
	}
	return a, nil
}

func (m *Mount) Relays(name string) (hardware.Relay, hardware.Relay, error) {
	a, err := m.get(name)
	if err != nil {
		return nil, nil, err
	}
	return relay{a, true}, relay{a, false}, nil
}

func (m *Mount) WatchEncoder(name string, h hardware.EdgeHandler) error {
	a, err := m.get(name)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.edge = h
	a.mu.Unlock()
	return nil
}

// Step advances every axis by dt.
func (m *Mount) Step(dt time.Duration) {
	for _, a := range m.axes {
		a.Step(dt)
	}
}

// Run steps the simulation in real time until ctx is canceled.
func (m *Mount) Run(ctx context.Context, clk clock.Clock) error {
	t := clk.Ticker(StepSize)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		m.Step(StepSize)
	}
}

func (m *Mount) Close() error {
	return nil
}
