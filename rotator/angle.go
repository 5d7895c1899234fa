package rotator

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Angle is the internal fixed-point angle. One unit is 1e-4 degree.
type Angle int32

// Tenths is the external angle unit used by the wire protocol. One unit is
// 0.1 degree.
type Tenths int32

// AnglePerTenth is the number of Angle units in one Tenths unit.
const AnglePerTenth = 1000

// Angle converts to internal units.
func (t Tenths) Angle() Angle {
	return Angle(t) * AnglePerTenth
}

// Degrees returns t as floating point degrees.
func (t Tenths) Degrees() float64 {
	return float64(t) / 10
}

func (t Tenths) String() string {
	return strconv.FormatFloat(t.Degrees(), 'f', 1, 64)
}

// MinTenths and MaxTenths bound the positions accepted from clients, the
// range of a seven character "-9999.9" to "99999.9" wire number.
const (
	MinTenths Tenths = -99999
	MaxTenths Tenths = 999999
)

var ErrOutOfRange = errors.New("angle out of range")

// TenthsFromDegrees rounds deg to the nearest tenth of a degree. Values that
// are not finite or fall outside MinTenths..MaxTenths are rejected.
func TenthsFromDegrees(deg float64) (Tenths, error) {
	t := math.Round(deg * 10)
	if math.IsNaN(t) || t < float64(MinTenths) || t > float64(MaxTenths) {
		return 0, errors.Wrapf(ErrOutOfRange, "%v degrees", deg)
	}
	return Tenths(t), nil
}

// Tenths converts to external units, rounding half away from zero.
func (a Angle) Tenths() Tenths {
	q, r := a/AnglePerTenth, a%AnglePerTenth
	switch {
	case r >= AnglePerTenth/2:
		q++
	case r <= -AnglePerTenth/2:
		q--
	}
	return Tenths(q)
}

// Abs returns the magnitude of a.
func (a Angle) Abs() Angle {
	if a < 0 {
		return -a
	}
	return a
}
