//go:build tinygo

package irq

import "runtime/interrupt"

type mask struct{}

type state = interrupt.State

func (m *mask) disable() state {
	return interrupt.Disable()
}

func (m *mask) restore(s state) {
	interrupt.Restore(s)
}
