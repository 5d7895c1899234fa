// Package axis drives one axis of a relay-switched rotator from a
// single-channel incremental encoder.
package axis

import (
	"log"
	"time"

	"github.com/w1xm/azel_rotator/hardware"
	"github.com/w1xm/azel_rotator/rotator"
)

// Clock is the time source of an axis. clock.Clock satisfies it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Axis is a motor/encoder pair. Apart from EncoderEdge, which may be called
// from interrupt context, all methods must be called from the poll loop.
type Axis struct {
	name  string
	cfg   Config
	clock Clock

	pos, neg hardware.Relay
	enc      tracker

	target        rotator.Angle
	stopAtTarget  bool
	state         MotorState
	requested     MotorState
	transitionDue time.Time
}

var _ rotator.Axis = (*Axis)(nil)

func New(name string, cfg Config, pos, neg hardware.Relay, clock Clock) *Axis {
	return &Axis{
		name:         name,
		cfg:          cfg,
		clock:        clock,
		pos:          pos,
		neg:          neg,
		stopAtTarget: true,
		enc: tracker{
			deadTime:  cfg.DeadTime,
			increment: cfg.Increment,
		},
	}
}

func (a *Axis) Name() string {
	return a.name
}

func (a *Axis) logf(format string, args ...interface{}) {
	log.Printf(a.name+": "+format, args...)
}

func (a *Axis) drive(r hardware.Relay, on bool) {
	if err := r.Set(on); err != nil {
		a.logf("setting relay: %v", err)
	}
}

// Begin de-energizes both relays.
func (a *Axis) Begin() {
	a.drive(a.pos, false)
	a.drive(a.neg, false)
}

// EncoderEdge records one edge of the encoder input.
func (a *Axis) EncoderEdge() {
	a.enc.transition(a.clock.Now())
}

// Update advances the motor state machine. It stops a running motor that
// has reached its target or has produced no encoder edge for longer than
// the coast-out time, and completes delayed transitions.
func (a *Axis) Update() {
	angle, lastChange := a.enc.read()
	notMoving := a.clock.Now().Sub(lastChange) > a.cfg.CoastTime

	switch a.state {
	case RunningPositive:
		if notMoving || (a.stopAtTarget && angle >= a.target-a.cfg.Hysteresis) {
			if notMoving {
				a.logf("no encoder movement, stopping")
			}
			a.request(Stopped)
		}
	case RunningNegative:
		if notMoving || (a.stopAtTarget && angle <= a.target+a.cfg.Hysteresis) {
			if notMoving {
				a.logf("no encoder movement, stopping")
			}
			a.request(Stopped)
		}
	case StoppingPositive, StoppingNegative:
		a.request(a.requested)
	}
}

// MoveToPosition starts a move to setpoint. The motor only starts if the
// setpoint lies outside the hysteresis band around the current position.
func (a *Axis) MoveToPosition(setpoint rotator.Tenths) {
	a.stopAtTarget = true
	a.target = setpoint.Angle()
	cur := a.enc.position()
	switch {
	case a.target > cur+a.cfg.Hysteresis:
		a.request(RunningPositive)
	case a.target < cur-a.cfg.Hysteresis:
		a.request(RunningNegative)
	default:
		a.request(Stopped)
	}
}

// MovePositive runs the motor in the positive direction until StopMoving is
// called or the axis stalls.
func (a *Axis) MovePositive() {
	a.stopAtTarget = false
	a.request(RunningPositive)
}

// MoveNegative is MovePositive in the other direction.
func (a *Axis) MoveNegative() {
	a.stopAtTarget = false
	a.request(RunningNegative)
}

func (a *Axis) StopMoving() {
	a.stopAtTarget = true
	a.request(Stopped)
}

func (a *Axis) CurrentPosition() rotator.Tenths {
	return a.enc.position().Tenths()
}

func (a *Axis) PositionSetpoint() rotator.Tenths {
	return a.target.Tenths()
}

// SetCurrentPosition overwrites the position counter. It does not move the
// motor.
func (a *Axis) SetCurrentPosition(position rotator.Tenths) {
	a.enc.rebase(position.Angle())
	a.logf("position set to %v", position)
}

func (a *Axis) State() MotorState {
	return a.state
}

func (a *Axis) IsStopped() bool {
	return a.state == Stopped
}
