// Package modbusrelay drives direction relays on a Modbus relay board. The
// board has no encoder inputs, so it is paired with a GPIO encoder bank.
package modbusrelay

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/hardware"
	"go.uber.org/multierr"
)

// Coils are the coil addresses of one axis.
type Coils struct {
	Positive uint16 `json:"positive"`
	Negative uint16 `json:"negative"`
}

// Client is the subset of internal/modbus.Client used by a Board.
type Client interface {
	WriteCoil(coil uint16, value bool) error
	ReadCoil(coil uint16) (bool, error)
}

// Board keeps track of the desired state of every coil so that Poll can
// restore relays after the board has lost power or the link has dropped.
// Once a write fails the board is offline: relay writes only update the
// desired state, so a missing board does not stall the caller for a
// timeout on every write, until a Poll succeeds again.
type Board struct {
	client    Client
	activeLow bool
	axes      map[string]Coils

	mu      sync.Mutex
	desired map[uint16]bool
	offline bool
}

var _ hardware.RelayBank = (*Board)(nil)

func New(client Client, axes map[string]Coils, activeLow bool) *Board {
	return &Board{
		client:    client,
		activeLow: activeLow,
		axes:      axes,
		desired:   make(map[uint16]bool),
	}
}

type coil struct {
	b *Board
	n uint16
}

func (c coil) Set(on bool) error {
	return c.b.set(c.n, on)
}

func (b *Board) set(n uint16, on bool) error {
	if b.activeLow {
		on = !on
	}
	b.mu.Lock()
	b.desired[n] = on
	offline := b.offline
	b.mu.Unlock()
	if offline {
		return nil
	}
	return b.write(n, on)
}

// write sets a coil, marking the board offline if that fails.
func (b *Board) write(n uint16, on bool) error {
	if err := b.client.WriteCoil(n, on); err != nil {
		b.setOffline(true)
		return errors.Wrapf(err, "writing coil %d", n)
	}
	return nil
}

func (b *Board) setOffline(offline bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.offline == offline {
		return
	}
	b.offline = offline
	if offline {
		log.Print("relay board offline; holding relay writes until it responds")
	} else {
		log.Print("relay board online")
	}
}

// Offline reports whether relay writes are being held back.
func (b *Board) Offline() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offline
}

func (b *Board) Relays(name string) (hardware.Relay, hardware.Relay, error) {
	cfg, ok := b.axes[name]
	if !ok {
		return nil, nil, errors.Errorf("no coils configured for %q", name)
	}
	return coil{b, cfg.Positive}, coil{b, cfg.Negative}, nil
}

// Poll reads back every coil that has been written and rewrites those that
// do not match. A successful Poll brings an offline board back online.
func (b *Board) Poll() error {
	b.mu.Lock()
	desired := make(map[uint16]bool, len(b.desired))
	for n, v := range b.desired {
		desired[n] = v
	}
	b.mu.Unlock()
	for n, want := range desired {
		got, err := b.client.ReadCoil(n)
		if err != nil {
			b.setOffline(true)
			return errors.Wrapf(err, "reading coil %d", n)
		}
		if got == want {
			continue
		}
		log.Printf("coil %d is %v, want %v", n, got, want)
		if err := b.write(n, want); err != nil {
			return err
		}
	}
	if len(desired) > 0 {
		b.setOffline(false)
	}
	return nil
}

// Close de-energizes every relay, trying the board even if it is offline.
func (b *Board) Close() error {
	var err error
	for _, cfg := range b.axes {
		for _, n := range []uint16{cfg.Positive, cfg.Negative} {
			on := b.activeLow
			b.mu.Lock()
			b.desired[n] = on
			b.mu.Unlock()
			err = multierr.Append(err, b.client.WriteCoil(n, on))
		}
	}
	return err
}
