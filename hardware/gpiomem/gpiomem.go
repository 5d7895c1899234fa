// Package gpiomem drives relays and reads encoders on a Raspberry Pi through
// /dev/gpiomem. Encoder edges are latched by the GPIO block and polled.
package gpiomem

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
	"github.com/w1xm/azel_rotator/hardware"
)

// Pins are the BCM pin numbers used by one axis.
type Pins struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Encoder  int `json:"encoder"`
}

type Config struct {
	// ActiveLow inverts the relay outputs.
	ActiveLow bool
	// PullUp enables the internal pull-up on encoder inputs.
	PullUp bool
	// PollInterval is how often edge detection is checked. Defaults to
	// 250µs.
	PollInterval time.Duration
	Axes         map[string]Pins
}

type Backend struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	watching []rpio.Pin
}

var _ hardware.Backend = (*Backend)(nil)

// Open maps the GPIO registers. Close must be called to release them.
func Open(cfg Config) (*Backend, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 250 * time.Microsecond
	}
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "opening gpiomem")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Backend{cfg: cfg, ctx: ctx, cancel: cancel}, nil
}

func (b *Backend) axis(name string) (Pins, error) {
	p, ok := b.cfg.Axes[name]
	if !ok {
		return Pins{}, errors.Errorf("no GPIO pins configured for %q", name)
	}
	return p, nil
}

type pin struct {
	rpio.Pin
}

func (p pin) Set(on bool) error {
	if on {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (b *Backend) relay(n int) hardware.Relay {
	p := pin{rpio.Pin(n)}
	p.Output()
	var r hardware.Relay = p
	if b.cfg.ActiveLow {
		r = hardware.Inverted(r)
	}
	r.Set(false)
	return r
}

func (b *Backend) Relays(name string) (hardware.Relay, hardware.Relay, error) {
	cfg, err := b.axis(name)
	if err != nil {
		return nil, nil, err
	}
	return b.relay(cfg.Positive), b.relay(cfg.Negative), nil
}

// encoderEdge selects both edges: the increment is calibrated per
// transition, not per slot.
const encoderEdge = rpio.AnyEdge

// WatchEncoder calls h after every edge of the encoder pin of an axis, from
// a polling goroutine. Edges closer together than the poll
// interval are counted once.
func (b *Backend) WatchEncoder(name string, h hardware.EdgeHandler) error {
	cfg, err := b.axis(name)
	if err != nil {
		return err
	}
	p := rpio.Pin(cfg.Encoder)
	p.Input()
	if b.cfg.PullUp {
		p.PullUp()
	}
	p.Detect(encoderEdge)
	b.mu.Lock()
	b.watching = append(b.watching, p)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		t := time.NewTicker(b.cfg.PollInterval)
		defer t.Stop()
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-t.C:
			}
			if p.EdgeDetected() {
				h()
			}
		}
	}()
	return nil
}

func (b *Backend) Close() error {
	b.cancel()
	b.wg.Wait()
	b.mu.Lock()
	for _, p := range b.watching {
		p.Detect(rpio.NoEdge)
	}
	b.watching = nil
	b.mu.Unlock()
	return rpio.Close()
}
