package axis

import (
	"time"

	"github.com/w1xm/azel_rotator/internal/irq"
	"github.com/w1xm/azel_rotator/rotator"
)

// tracker turns single-channel encoder edges into a position. The encoder
// cannot sense direction, so each accepted edge moves the position one
// increment in whatever direction the motor was last driven (including
// while it coasts out). Fields below mask are shared with the interrupt
// handler and must only be touched with interrupts masked.
type tracker struct {
	deadTime  time.Duration
	increment rotator.Angle

	mask       irq.Mask
	angle      rotator.Angle
	lastChange time.Time
	direction  rotator.Angle
}

// transition is the interrupt handler.
func (t *tracker) transition(now time.Time) {
	s := t.mask.Disable()
	if now.Sub(t.lastChange) >= t.deadTime {
		t.angle += t.direction * t.increment
		t.lastChange = now
	}
	t.mask.Restore(s)
}

// engage sets the direction of travel and resets the dead-time baseline so
// the first edge after the motor starts is accepted.
func (t *tracker) engage(direction rotator.Angle, now time.Time) {
	s := t.mask.Disable()
	t.direction = direction
	t.lastChange = now.Add(-t.deadTime)
	t.mask.Restore(s)
}

// release stops attributing edges to any direction.
func (t *tracker) release() {
	s := t.mask.Disable()
	t.direction = 0
	t.mask.Restore(s)
}

func (t *tracker) read() (rotator.Angle, time.Time) {
	s := t.mask.Disable()
	angle, last := t.angle, t.lastChange
	t.mask.Restore(s)
	return angle, last
}

func (t *tracker) position() rotator.Angle {
	s := t.mask.Disable()
	angle := t.angle
	t.mask.Restore(s)
	return angle
}

func (t *tracker) rebase(angle rotator.Angle) {
	s := t.mask.Disable()
	t.angle = angle
	t.mask.Restore(s)
}
