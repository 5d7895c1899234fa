// Package controller runs the cooperative poll loop that owns both axes of a
// mount. Everything that touches an axis, other than encoder edges, runs on
// the loop goroutine; other goroutines submit work with Do.
package controller

import (
	"bytes"
	"context"
	"io"
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/axis"
	"github.com/w1xm/azel_rotator/easycomm"
	"github.com/w1xm/azel_rotator/rotator"
	"github.com/w1xm/azel_rotator/telemetry"
)

type Options struct {
	// TickInterval is the period of the poll loop.
	TickInterval time.Duration
	// ReportInterval is how often telemetry is sampled.
	ReportInterval time.Duration
	// SkipHoming starts the loop without homing either axis.
	SkipHoming bool
	// AzOffset and ElOffset are added to positions reported to clients.
	AzOffset, ElOffset rotator.Tenths
	// Version is returned by the VE command.
	Version string
	// OnStatus receives telemetry snapshots. It is called on the loop
	// goroutine and must not block.
	OnStatus func(telemetry.Snapshot)
}

func (o *Options) setDefaults() {
	if o.TickInterval == 0 {
		o.TickInterval = time.Millisecond
	}
	if o.ReportInterval == 0 {
		o.ReportInterval = 500 * time.Millisecond
	}
	if o.OnStatus == nil {
		o.OnStatus = func(telemetry.Snapshot) {}
	}
}

type Controller struct {
	opts  Options
	clock clock.Clock

	azAxis, elAxis *axis.Axis
	az, el         *rotator.Offset

	handler  *easycomm.Handler
	reporter *telemetry.Reporter

	work chan func()
}

func New(az, el *axis.Axis, clk clock.Clock, opts Options) *Controller {
	opts.setDefaults()
	c := &Controller{
		opts:   opts,
		clock:  clk,
		azAxis: az,
		elAxis: el,
		az:     rotator.NewOffset(az, opts.AzOffset),
		el:     rotator.NewOffset(el, opts.ElOffset),
		work:   make(chan func()),
	}
	c.handler = easycomm.NewHandler(c.az, c.el, opts.Version)
	c.reporter = telemetry.NewReporter(opts.ReportInterval, opts.OnStatus)
	return c
}

// Axes returns the client-facing axes, with offsets applied. They must only
// be used from functions passed to Do.
func (c *Controller) Axes() (az, el rotator.Axis) {
	return c.az, c.el
}

// Run de-energizes both axes, homes them unless disabled and then runs the
// poll loop until ctx is canceled. Homing failures are logged and leave the
// axis position as it was.
func (c *Controller) Run(ctx context.Context) error {
	c.azAxis.Begin()
	c.elAxis.Begin()
	if !c.opts.SkipHoming {
		for _, a := range []*axis.Axis{c.elAxis, c.azAxis} {
			if err := a.Home(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("homing %s: %v", a.Name(), err)
			}
		}
	}
	log.Print("running")

	ticker := c.clock.Ticker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.azAxis.StopMoving()
			c.elAxis.StopMoving()
			return ctx.Err()
		case f := <-c.work:
			f()
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one iteration of the poll loop.
func (c *Controller) Tick() {
	c.azAxis.Update()
	c.elAxis.Update()
	c.reporter.Poll(c.clock.Now(), c.Snapshot)
}

// Snapshot returns the current state of the mount. It must be called on the
// loop goroutine.
func (c *Controller) Snapshot() telemetry.Snapshot {
	return telemetry.Snapshot{
		AzSetpoint: c.az.PositionSetpoint().Degrees(),
		ElSetpoint: c.el.PositionSetpoint().Degrees(),
		AzPosition: c.az.CurrentPosition().Degrees(),
		ElPosition: c.el.CurrentPosition().Degrees(),
		AzState:    c.azAxis.State().String(),
		ElState:    c.elAxis.State().String(),
	}
}

// Do runs f on the loop goroutine and waits for it to return. Work submitted
// during homing runs once homing has finished.
func (c *Controller) Do(ctx context.Context, f func()) error {
	done := make(chan struct{})
	select {
	case c.work <- func() {
		defer close(done)
		f()
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Serve runs an EasyComm session over conn until it returns EOF or fails.
// Replies are written from the calling goroutine, so a slow client does not
// stall the loop.
func (c *Controller) Serve(ctx context.Context, conn io.ReadWriter) error {
	var out bytes.Buffer
	session := c.handler.NewSession(&out)
	buf := make([]byte, 256)
	var reply []byte
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if err := c.Do(ctx, func() {
				session.Write(buf[:n])
				reply = append(reply[:0], out.Bytes()...)
				out.Reset()
			}); err != nil {
				return err
			}
			if len(reply) > 0 {
				if _, err := conn.Write(reply); err != nil {
					return errors.Wrap(err, "writing reply")
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading command")
		}
	}
}
