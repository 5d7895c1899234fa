package axis

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrHomingTimeout is returned by Home when the axis is still moving after
// the homing timeout.
var ErrHomingTimeout = errors.New("homing timed out")

// Home drives the axis against its negative end-stop, takes that as the
// configured homing offset and then moves to the home target. The axis is
// considered to be at the end-stop when two consecutive position samples
// are equal. Home blocks and must only be used before the poll loop starts.
// On error the position is left as it was.
func (a *Axis) Home(ctx context.Context) error {
	a.logf("homing")
	a.MoveNegative()

	deadline := a.clock.Now().Add(a.cfg.HomingTimeout)
	prev := a.enc.position()
	for {
		if err := a.wait(ctx, a.cfg.HomingInterval); err != nil {
			a.StopMoving()
			return err
		}
		a.Update()
		cur := a.enc.position()
		if cur == prev {
			break
		}
		prev = cur
		if !a.clock.Now().Before(deadline) {
			a.StopMoving()
			return errors.Wrapf(ErrHomingTimeout, "%s: still moving after %v", a.name, a.cfg.HomingTimeout)
		}
	}

	a.StopMoving()
	for !a.IsStopped() {
		if err := a.wait(ctx, a.cfg.CoastTime); err != nil {
			return err
		}
		a.Update()
	}

	a.SetCurrentPosition(a.cfg.HomingOffset)
	a.MoveToPosition(a.cfg.HomeTarget)
	a.logf("homed, moving to %v", a.cfg.HomeTarget)
	return nil
}

func (a *Axis) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.clock.After(d):
		return nil
	}
}
