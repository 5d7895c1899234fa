package axis

import "fmt"

// MotorState is the state of an axis' motor relays.
type MotorState int

const (
	Stopped MotorState = iota
	RunningPositive
	StoppingPositive
	RunningNegative
	StoppingNegative
)

func (s MotorState) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case RunningPositive:
		return "RUNNING_POSITIVE"
	case StoppingPositive:
		return "STOPPING_POSITIVE"
	case RunningNegative:
		return "RUNNING_NEGATIVE"
	case StoppingNegative:
		return "STOPPING_NEGATIVE"
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Running reports whether a relay is energized.
func (s MotorState) Running() bool {
	return s == RunningPositive || s == RunningNegative
}

// Stopping reports whether the motor is coasting out.
func (s MotorState) Stopping() bool {
	return s == StoppingPositive || s == StoppingNegative
}

// request asks the motor to go to req. Requests the current state cannot
// honour are ignored. A request made while coasting out is remembered and
// applied once the coast-out time has passed.
func (a *Axis) request(req MotorState) {
	if req.Stopping() {
		return
	}
	now := a.clock.Now()
	switch a.state {
	case Stopped:
		if req.Running() {
			a.set(req)
		}
	case RunningPositive:
		if req == RunningNegative || req == Stopped {
			a.set(StoppingPositive)
			a.transitionDue = now.Add(a.cfg.CoastTime)
			a.requested = req
		}
	case RunningNegative:
		if req == RunningPositive || req == Stopped {
			a.set(StoppingNegative)
			a.transitionDue = now.Add(a.cfg.CoastTime)
			a.requested = req
		}
	case StoppingPositive, StoppingNegative:
		a.requested = req
		if !now.Before(a.transitionDue) {
			a.set(req)
		}
	}
}

// set performs a transition. Only request may call it.
func (a *Axis) set(state MotorState) {
	a.logf("motor %v -> %v", a.state, state)
	a.state = state
	if !state.Stopping() {
		a.requested = state
	}
	switch state {
	case RunningPositive:
		a.enc.engage(1, a.clock.Now())
		a.drive(a.pos, true)
	case RunningNegative:
		a.enc.engage(-1, a.clock.Now())
		a.drive(a.neg, true)
	case StoppingPositive:
		a.drive(a.pos, false)
	case StoppingNegative:
		a.drive(a.neg, false)
	case Stopped:
		a.enc.release()
		a.drive(a.pos, false)
		a.drive(a.neg, false)
	}
}
