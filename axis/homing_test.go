package axis

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w1xm/azel_rotator/hardware"
	"github.com/w1xm/azel_rotator/hardware/sim"
	"github.com/w1xm/azel_rotator/internal/clocktest"
	"github.com/w1xm/azel_rotator/rotator"
)

func newSimAxis(t *testing.T, start float64) (*Axis, *sim.Axis, *clocktest.Clock) {
	t.Helper()
	clk := clocktest.New()
	mount := sim.NewMount(map[string]*sim.Axis{"az": sim.NewAxis(-10, 370, start)})
	pos, neg, err := mount.Relays("az")
	require.NoError(t, err)
	a := New("az", DefaultConfig(), pos, neg, clk)
	require.NoError(t, mount.WatchEncoder("az", a.EncoderEdge))
	clk.OnStep = func(time.Time) { mount.Step(clocktest.Step) }
	a.Begin()
	return a, mount.Axis("az"), clk
}

func TestHomeWithSimulator(t *testing.T) {
	for _, start := range []float64{37.2, -10, 200} {
		a, s, clk := newSimAxis(t, start)
		require.NoError(t, a.Home(context.Background()))

		assert.Equal(t, RunningPositive, a.State(), "start %v: homing should end with a move to the home target", start)
		assert.Equal(t, rotator.Tenths(0), a.PositionSetpoint())

		for i := 0; i < 60000 && !a.IsStopped(); i++ {
			clk.Advance(clocktest.Step)
			a.Update()
		}
		require.True(t, a.IsStopped(), "start %v: axis did not settle", start)
		assert.InDelta(t, 0, s.Position(), 0.5, "start %v: true position", start)
		assert.InDelta(t, s.Position(), a.CurrentPosition().Degrees(), 0.1, "start %v: tracked position", start)
	}
}

func TestHomeRebasesAtEndStop(t *testing.T) {
	a, s, _ := newSimAxis(t, 12)
	a.cfg.HomeTarget = -100
	require.NoError(t, a.Home(context.Background()))
	assert.Equal(t, -10.0, s.Position())
	assert.Equal(t, rotator.Tenths(-100), a.CurrentPosition())
	assert.True(t, a.IsStopped(), "home target equals the end-stop offset")
}

func TestHomeTimeout(t *testing.T) {
	clk := clocktest.New()
	var pos, neg hardware.Recorder
	cfg := DefaultConfig()
	cfg.HomingTimeout = 3 * time.Second
	a := New("az", cfg, &pos, &neg, clk)
	a.Begin()
	a.SetCurrentPosition(55)
	// An encoder that never stops producing edges.
	clk.OnStep = func(now time.Time) {
		if now.UnixNano()/int64(time.Millisecond)%5 == 0 {
			a.EncoderEdge()
		}
	}

	err := a.Home(context.Background())
	assert.Equal(t, ErrHomingTimeout, errors.Cause(err))
	assert.False(t, neg.On(), "motor must be released after a failed homing")
	assert.NotEqual(t, rotator.Tenths(-100), a.CurrentPosition())
	assert.True(t, a.State().Stopping())
}

func TestHomeCanceled(t *testing.T) {
	a, _, _ := newSimAxis(t, 37.2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Home(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, StoppingNegative, a.State())
}
