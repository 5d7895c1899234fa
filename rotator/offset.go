package rotator

import "sync"

// Offset wraps an Axis so that the reported position has offset added to
// it and requested positions have offset subtracted. It is used to align
// the mechanical zero of an axis (usually the azimuth end-stop) with a
// real-world reference such as true north.
type Offset struct {
	Axis
	mu     sync.Mutex
	offset Tenths
}

func NewOffset(axis Axis, offset Tenths) *Offset {
	return &Offset{Axis: axis, offset: offset}
}

func (o *Offset) SetOffset(offset Tenths) {
	o.mu.Lock()
	o.offset = offset
	o.mu.Unlock()
}

func (o *Offset) get() Tenths {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offset
}

func (o *Offset) MoveToPosition(position Tenths) {
	o.Axis.MoveToPosition(position - o.get())
}

func (o *Offset) CurrentPosition() Tenths {
	return o.Axis.CurrentPosition() + o.get()
}

// PositionSetpoint returns the wrapped axis' setpoint with the offset
// applied, or the current position if the axis does not track setpoints.
func (o *Offset) PositionSetpoint() Tenths {
	if s, ok := o.Axis.(Setpointer); ok {
		return s.PositionSetpoint() + o.get()
	}
	return o.CurrentPosition()
}
