// Package telemetry samples the state of the mount for display and logging.
package telemetry

import (
	"time"
)

// Snapshot is the externally visible state of both axes. Angles are in
// degrees.
type Snapshot struct {
	AzSetpoint float64 `json:"az_setpoint"`
	ElSetpoint float64 `json:"el_setpoint"`
	AzPosition float64 `json:"az_position"`
	ElPosition float64 `json:"el_position"`
	AzState    string  `json:"az_state"`
	ElState    string  `json:"el_state"`
}

// Fields returns the snapshot as InfluxDB fields.
func (s Snapshot) Fields() map[string]interface{} {
	return map[string]interface{}{
		"az_setpoint": s.AzSetpoint,
		"el_setpoint": s.ElSetpoint,
		"az_position": s.AzPosition,
		"el_position": s.ElPosition,
		"az_state":    s.AzState,
		"el_state":    s.ElState,
	}
}

// Reporter samples a Snapshot at most once per period and passes it on
// only when it differs from the last one passed on.
type Reporter struct {
	period time.Duration
	emit   func(Snapshot)

	next time.Time
	last Snapshot
	sent bool
}

func NewReporter(period time.Duration, emit func(Snapshot)) *Reporter {
	return &Reporter{period: period, emit: emit}
}

// Poll samples if a period has elapsed since the last sample. sample is
// not called otherwise.
func (r *Reporter) Poll(now time.Time, sample func() Snapshot) {
	if now.Before(r.next) {
		return
	}
	r.next = now.Add(r.period)
	s := sample()
	if r.sent && s == r.last {
		return
	}
	r.last = s
	r.sent = true
	r.emit(s)
}
