package telemetry

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReporter(t *testing.T) {
	var got []Snapshot
	r := NewReporter(500*time.Millisecond, func(s Snapshot) {
		got = append(got, s)
	})
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{AzPosition: 12.3, AzState: "STOPPED", ElState: "STOPPED"}
	samples := 0
	sample := func() Snapshot {
		samples++
		return snap
	}

	r.Poll(start, sample)
	r.Poll(start.Add(100*time.Millisecond), sample)
	// Unchanged snapshot is sampled but not emitted.
	r.Poll(start.Add(500*time.Millisecond), sample)
	snap.AzPosition = 13
	snap.AzState = "RUNNING_POSITIVE"
	r.Poll(start.Add(600*time.Millisecond), sample)
	r.Poll(start.Add(1000*time.Millisecond), sample)

	want := []Snapshot{
		{AzPosition: 12.3, AzState: "STOPPED", ElState: "STOPPED"},
		{AzPosition: 13, AzState: "RUNNING_POSITIVE", ElState: "STOPPED"},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("unexpected snapshots: got(-)/want(+):\n%s", diff)
	}
	assert.Equal(t, 3, samples)
	assert.Equal(t, want[1], r.last)
}

func TestReporterEmitsZeroSnapshot(t *testing.T) {
	n := 0
	r := NewReporter(time.Second, func(Snapshot) { n++ })
	r.Poll(time.Unix(0, 0), func() Snapshot { return Snapshot{} })
	assert.Equal(t, 1, n)
}

func TestFields(t *testing.T) {
	s := Snapshot{AzSetpoint: 1, ElSetpoint: 2, AzPosition: 3, ElPosition: 4, AzState: "STOPPED", ElState: "STOPPING_NEGATIVE"}
	want := map[string]interface{}{
		"az_setpoint": 1.0,
		"el_setpoint": 2.0,
		"az_position": 3.0,
		"el_position": 4.0,
		"az_state":    "STOPPED",
		"el_state":    "STOPPING_NEGATIVE",
	}
	if diff := cmp.Diff(s.Fields(), want); diff != "" {
		t.Errorf("unexpected fields: got(-)/want(+):\n%s", diff)
	}
}
