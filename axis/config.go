package axis

import (
	"time"

	"github.com/w1xm/azel_rotator/rotator"
)

// Config holds the calibration of one axis.
type Config struct {
	// Increment is the angle travelled per encoder transition.
	// 7.5 deg/s / 5 rot/s / 40 transitions/rot = 0.0375 deg.
	Increment rotator.Angle
	// DeadTime is the minimum interval between accepted encoder transitions.
	// The mechanism cannot produce more than 200 transitions/s (5 ms apart).
	DeadTime time.Duration
	// Hysteresis is the half-width of the band around the target in which
	// the axis is considered arrived.
	Hysteresis rotator.Angle
	// CoastTime is how long the motor is left unpowered before it may be
	// engaged again. It is also the stall timeout while running.
	CoastTime time.Duration

	// HomingInterval is the period at which position is sampled while homing.
	HomingInterval time.Duration
	// HomingTimeout bounds the homing run towards the end-stop.
	HomingTimeout time.Duration
	// HomingOffset is the position of the end-stop.
	HomingOffset rotator.Tenths
	// HomeTarget is where the axis moves after homing.
	HomeTarget rotator.Tenths
}

func DefaultConfig() Config {
	return Config{
		Increment:      375,
		DeadTime:       2 * time.Millisecond,
		Hysteresis:     5000,
		CoastTime:      500 * time.Millisecond,
		HomingInterval: 500 * time.Millisecond,
		HomingTimeout:  60 * time.Second,
		HomingOffset:   -100,
		HomeTarget:     0,
	}
}
