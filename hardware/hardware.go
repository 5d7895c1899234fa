// Package hardware defines the actuation and position-source seams of a
// rotator axis. Backends live in subpackages.
package hardware

import (
	"io"
	"sync"
)

// Relay switches one direction of a DC gearmotor.
type Relay interface {
	Set(on bool) error
}

// EdgeHandler is called once for every edge of an encoder input. It may be
// called from interrupt context and must not block.
type EdgeHandler func()

// RelayBank provides the direction relays of each axis.
type RelayBank interface {
	// Relays returns the positive and negative direction relays of an axis.
	Relays(axis string) (pos, neg Relay, err error)
	io.Closer
}

// EncoderBank provides the encoder inputs of each axis.
type EncoderBank interface {
	// WatchEncoder arranges for h to be called on each encoder edge of an axis.
	WatchEncoder(axis string, h EdgeHandler) error
	io.Closer
}

// Backend opens both the relays and the encoder inputs of a mount.
type Backend interface {
	RelayBank
	EncoderBank
}

type inverted struct {
	Relay
}

// Inverted returns a Relay that drives r with the opposite level, for
// relay boards whose inputs are active low.
func Inverted(r Relay) Relay {
	return inverted{r}
}

func (i inverted) Set(on bool) error {
	return i.Relay.Set(!on)
}

// Recorder is a Relay that remembers every value written to it.
type Recorder struct {
	mu     sync.Mutex
	on     bool
	writes []bool
}

func (r *Recorder) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = on
	r.writes = append(r.writes, on)
	return nil
}

// On reports the last value written.
func (r *Recorder) On() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Writes returns a copy of all values written so far.
func (r *Recorder) Writes() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.writes...)
}
