// Package cdev drives relays and reads encoders through the Linux GPIO
// character device.
package cdev

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/hardware"
	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// Lines are the GPIO line offsets used by one axis.
type Lines struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Encoder  int `json:"encoder"`
}

type Config struct {
	// Chip defaults to gpiochip0.
	Chip string
	// ActiveLow inverts the relay outputs.
	ActiveLow bool
	// PullUp enables the internal pull-up on encoder inputs.
	PullUp bool
	Axes   map[string]Lines
}

// Backend requests lines as the relays and encoders of each axis are
// opened, and releases them all on Close.
type Backend struct {
	cfg Config

	mu    sync.Mutex
	lines []*gpiocdev.Line
}

var _ hardware.Backend = (*Backend)(nil)

func New(cfg Config) *Backend {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	return &Backend{cfg: cfg}
}

func (b *Backend) axis(name string) (Lines, error) {
	l, ok := b.cfg.Axes[name]
	if !ok {
		return Lines{}, errors.Errorf("no GPIO lines configured for %q", name)
	}
	return l, nil
}

func (b *Backend) request(offset int, options ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	options = append(options, gpiocdev.WithConsumer("azel_rotator"))
	l, err := gpiocdev.RequestLine(b.cfg.Chip, offset, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s line %d", b.cfg.Chip, offset)
	}
	b.mu.Lock()
	b.lines = append(b.lines, l)
	b.mu.Unlock()
	return l, nil
}

type line struct {
	*gpiocdev.Line
}

func (l line) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return l.SetValue(v)
}

// Relays requests both relay lines of an axis as de-energized outputs.
func (b *Backend) Relays(name string) (hardware.Relay, hardware.Relay, error) {
	cfg, err := b.axis(name)
	if err != nil {
		return nil, nil, err
	}
	options := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if b.cfg.ActiveLow {
		options = append(options, gpiocdev.AsActiveLow)
	}
	pos, err := b.request(cfg.Positive, options...)
	if err != nil {
		return nil, nil, err
	}
	neg, err := b.request(cfg.Negative, options...)
	if err != nil {
		return nil, nil, err
	}
	return line{pos}, line{neg}, nil
}

// encoderOptions requests both edges: the increment is calibrated per
// transition, not per slot.
func encoderOptions(pullUp bool, h hardware.EdgeHandler) []gpiocdev.LineReqOption {
	options := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			h()
		}),
	}
	if pullUp {
		options = append(options, gpiocdev.WithPullUp)
	}
	return options
}

// WatchEncoder calls h on every edge of the encoder line of an axis.
// h runs on the gpiocdev event goroutine.
func (b *Backend) WatchEncoder(name string, h hardware.EdgeHandler) error {
	cfg, err := b.axis(name)
	if err != nil {
		return err
	}
	_, err = b.request(cfg.Encoder, encoderOptions(b.cfg.PullUp, h)...)
	return err
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	for _, l := range b.lines {
		err = multierr.Append(err, l.Close())
	}
	b.lines = nil
	return err
}
