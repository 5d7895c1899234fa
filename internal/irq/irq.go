// Package irq provides the critical section used to share state between an
// encoder interrupt handler and the poll loop.
package irq

// Mask guards state shared with an interrupt handler. The zero value is
// ready to use. Keep the guarded region to a handful of field copies.
type Mask struct {
	mask
}

// State is the interrupt state saved by Disable.
type State struct {
	s state
}

// Disable masks interrupts and returns the previous state.
func (m *Mask) Disable() State {
	return State{m.disable()}
}

// Restore undoes the matching Disable.
func (m *Mask) Restore(s State) {
	m.restore(s.s)
}
