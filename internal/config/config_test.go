package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w1xm/azel_rotator/axis"
	"github.com/w1xm/azel_rotator/rotator"
)

func TestParseCalibration(t *testing.T) {
	c, err := Parse([]byte(`{
		"backend": "gpiocdev",
		"chip": "gpiochip4",
		"active_low": true,
		"axes": {
			"azimuth": {
				"positive": 17, "negative": 27, "encoder": 22,
				"increment_degrees": 0.05,
				"hysteresis_degrees": 1,
				"coast_time": "750ms",
				"offset_degrees": 12.5
			},
			"elevation": {
				"positive": 5, "negative": 6, "encoder": 13,
				"homing_timeout": "90s",
				"homing_offset_degrees": -5,
				"home_target_degrees": 10
			}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "gpiochip4", c.Chip)
	assert.True(t, c.ActiveLow)

	az := axis.DefaultConfig()
	az.Increment = 500
	az.Hysteresis = 10000
	az.CoastTime = 750 * time.Millisecond
	if diff := cmp.Diff(c.Axes["azimuth"].Axis(), az); diff != "" {
		t.Errorf("unexpected azimuth config: got(-)/want(+):\n%s", diff)
	}
	assert.Equal(t, rotator.Tenths(125), c.Axes["azimuth"].Offset())

	el := axis.DefaultConfig()
	el.HomingTimeout = 90 * time.Second
	el.HomingOffset = -50
	el.HomeTarget = 100
	if diff := cmp.Diff(c.Axes["elevation"].Axis(), el); diff != "" {
		t.Errorf("unexpected elevation config: got(-)/want(+):\n%s", diff)
	}
	assert.Equal(t, 13, c.Axes["elevation"].Encoder)
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, BackendSim, c.Backend)
	if diff := cmp.Diff(c, Default()); diff != "" {
		t.Errorf("unexpected config: got(-)/want(+):\n%s", diff)
	}
	assert.Equal(t, axis.DefaultConfig(), c.Axes["azimuth"].Axis())
}

func TestModbusDefaults(t *testing.T) {
	c, err := Parse([]byte(`{
		"backend": "modbus",
		"modbus": {"address": "10.0.0.5:502"},
		"axes": {"azimuth": {"positive": 0, "negative": 1, "encoder": 22}, "elevation": {"positive": 2, "negative": 3, "encoder": 23}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, BackendGPIOCdev, c.Modbus.Encoders)
	assert.Equal(t, byte(1), c.Modbus.SlaveID)
}

func TestInvalid(t *testing.T) {
	for _, test := range []struct {
		name, input string
	}{
		{"unknown backend", `{"backend": "stepper"}`},
		{"unknown field", `{"backend": "sim", "speed": 3}`},
		{"missing axis", `{"backend": "gpiomem", "axes": {"azimuth": {}}}`},
		{"unknown axis", `{"axes": {"roll": {}}}`},
		{"modbus without link", `{"backend": "modbus"}`},
		{"modbus encoders", `{"backend": "modbus", "modbus": {"port": "/dev/ttyUSB0", "encoders": "modbus"}}`},
		{"negative increment", `{"axes": {"azimuth": {"increment_degrees": -1}}}`},
		{"negative hysteresis", `{"axes": {"elevation": {"hysteresis_degrees": -0.5}}}`},
		{"zero coast time", `{"axes": {"elevation": {"coast_time": "0s"}}}`},
		{"bad duration", `{"axes": {"elevation": {"dead_time": "2 fortnights"}}}`},
		{"numeric duration", `{"axes": {"elevation": {"dead_time": 2}}}`},
		{"huge increment", `{"axes": {"azimuth": {"increment_degrees": 1e9}}}`},
		{"huge hysteresis", `{"axes": {"azimuth": {"hysteresis_degrees": 720}}}`},
		{"home target out of range", `{"axes": {"azimuth": {"home_target_degrees": 300000}}}`},
		{"homing offset out of range", `{"axes": {"elevation": {"homing_offset_degrees": -20000}}}`},
		{"offset out of range", `{"axes": {"azimuth": {"offset_degrees": 1e12}}}`},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotator.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": "sim"}`), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSim, c.Backend)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
