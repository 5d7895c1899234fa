package rotator

// Axis is the set of motion commands a single rotator axis accepts.
// Positions are in external units.
type Axis interface {
	MoveToPosition(setpoint Tenths)
	MovePositive()
	MoveNegative()
	StopMoving()
	CurrentPosition() Tenths
}

// Setpointer is implemented by axes that can report their position setpoint.
type Setpointer interface {
	PositionSetpoint() Tenths
}

// AxisName identifies one of the two axes of the mount.
type AxisName string

const (
	Azimuth   AxisName = "azimuth"
	Elevation AxisName = "elevation"
)
