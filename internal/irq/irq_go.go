//go:build !tinygo

package irq

import "sync"

// Outside TinyGo the "interrupt" is a callback on another goroutine, so a
// mutex stands in for interrupt masking.
type mask struct {
	mu sync.Mutex
}

type state struct{}

func (m *mask) disable() state {
	m.mu.Lock()
	return state{}
}

func (m *mask) restore(state) {
	m.mu.Unlock()
}
