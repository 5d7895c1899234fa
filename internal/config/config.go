// Package config loads the JSON description of a mount: which backend drives
// it, how each axis is wired and how it is calibrated.
package config

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/axis"
	"github.com/w1xm/azel_rotator/rotator"
)

const (
	BackendSim      = "sim"
	BackendGPIOCdev = "gpiocdev"
	BackendGPIOMem  = "gpiomem"
	BackendModbus   = "modbus"
)

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// AxisConfig describes the wiring and calibration of one axis. Unset
// calibration fields take the axis package defaults.
type AxisConfig struct {
	// Positive and Negative are GPIO lines, pins or coils of the direction
	// relays, depending on the backend.
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	// Encoder is the GPIO line or pin of the encoder input.
	Encoder int `json:"encoder"`

	IncrementDegrees    *float64  `json:"increment_degrees,omitempty"`
	DeadTime            *Duration `json:"dead_time,omitempty"`
	HysteresisDegrees   *float64  `json:"hysteresis_degrees,omitempty"`
	CoastTime           *Duration `json:"coast_time,omitempty"`
	HomingInterval      *Duration `json:"homing_interval,omitempty"`
	HomingTimeout       *Duration `json:"homing_timeout,omitempty"`
	HomingOffsetDegrees *float64  `json:"homing_offset_degrees,omitempty"`
	HomeTargetDegrees   *float64  `json:"home_target_degrees,omitempty"`

	// OffsetDegrees is added to the position reported to clients.
	OffsetDegrees float64 `json:"offset_degrees,omitempty"`
}

func angleFromDegrees(deg float64) rotator.Angle {
	return rotator.Angle(math.Round(deg * 1e4))
}

// tenths converts a position that validate has already range checked.
func tenths(deg float64) rotator.Tenths {
	t, _ := rotator.TenthsFromDegrees(deg)
	return t
}

// Axis returns the axis controller configuration.
func (c AxisConfig) Axis() axis.Config {
	cfg := axis.DefaultConfig()
	if c.IncrementDegrees != nil {
		cfg.Increment = angleFromDegrees(*c.IncrementDegrees)
	}
	if c.DeadTime != nil {
		cfg.DeadTime = time.Duration(*c.DeadTime)
	}
	if c.HysteresisDegrees != nil {
		cfg.Hysteresis = angleFromDegrees(*c.HysteresisDegrees)
	}
	if c.CoastTime != nil {
		cfg.CoastTime = time.Duration(*c.CoastTime)
	}
	if c.HomingInterval != nil {
		cfg.HomingInterval = time.Duration(*c.HomingInterval)
	}
	if c.HomingTimeout != nil {
		cfg.HomingTimeout = time.Duration(*c.HomingTimeout)
	}
	if c.HomingOffsetDegrees != nil {
		cfg.HomingOffset = tenths(*c.HomingOffsetDegrees)
	}
	if c.HomeTargetDegrees != nil {
		cfg.HomeTarget = tenths(*c.HomeTargetDegrees)
	}
	return cfg
}

// Offset returns the client-facing position offset.
func (c AxisConfig) Offset() rotator.Tenths {
	return tenths(c.OffsetDegrees)
}

func (c AxisConfig) validate(name string) error {
	checkPositive := func(field string, v *float64) error {
		if v != nil && *v <= 0 {
			return errors.Errorf("%s: %s must be positive, got %v", name, field, *v)
		}
		return nil
	}
	if err := checkPositive("increment_degrees", c.IncrementDegrees); err != nil {
		return err
	}
	if c.HysteresisDegrees != nil && *c.HysteresisDegrees < 0 {
		return errors.Errorf("%s: hysteresis_degrees must not be negative, got %v", name, *c.HysteresisDegrees)
	}
	for field, v := range map[string]*float64{
		"increment_degrees":  c.IncrementDegrees,
		"hysteresis_degrees": c.HysteresisDegrees,
	} {
		if v != nil && !(*v < 360) {
			return errors.Errorf("%s: %s must be less than 360, got %v", name, field, *v)
		}
	}
	for field, v := range map[string]*float64{
		"homing_offset_degrees": c.HomingOffsetDegrees,
		"home_target_degrees":   c.HomeTargetDegrees,
		"offset_degrees":        &c.OffsetDegrees,
	} {
		if v == nil {
			continue
		}
		if _, err := rotator.TenthsFromDegrees(*v); err != nil {
			return errors.Wrapf(err, "%s: %s", name, field)
		}
	}
	for field, d := range map[string]*Duration{
		"dead_time":       c.DeadTime,
		"coast_time":      c.CoastTime,
		"homing_interval": c.HomingInterval,
		"homing_timeout":  c.HomingTimeout,
	} {
		if d != nil && *d <= 0 {
			return errors.Errorf("%s: %s must be positive, got %v", name, field, time.Duration(*d))
		}
	}
	return nil
}

type ModbusConfig struct {
	// Port and BaudRate select a serial (RTU) link, Address a TCP one.
	Port     string `json:"port,omitempty"`
	BaudRate int    `json:"baud_rate,omitempty"`
	Address  string `json:"address,omitempty"`
	SlaveID  byte   `json:"slave_id,omitempty"`
	// Encoders selects the GPIO backend used for the encoder inputs,
	// since relay boards have none.
	Encoders string `json:"encoders,omitempty"`
}

type Config struct {
	Backend string `json:"backend"`
	// Chip is the GPIO character device used by the gpiocdev backend.
	Chip string `json:"chip,omitempty"`
	// ActiveLow inverts the relay outputs.
	ActiveLow bool `json:"active_low,omitempty"`
	// PullUp enables pull-ups on the encoder inputs.
	PullUp bool                  `json:"pull_up,omitempty"`
	Modbus ModbusConfig          `json:"modbus,omitempty"`
	Axes   map[string]AxisConfig `json:"axes"`
}

// Default returns the configuration of a simulated mount.
func Default() *Config {
	return &Config{
		Backend: BackendSim,
		Axes: map[string]AxisConfig{
			string(rotator.Azimuth):   {},
			string(rotator.Elevation): {},
		},
	}
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	switch c.Backend {
	case "":
		c.Backend = BackendSim
	case BackendSim, BackendGPIOCdev, BackendGPIOMem:
	case BackendModbus:
		if c.Modbus.Port == "" && c.Modbus.Address == "" {
			return errors.New("modbus: port or address is required")
		}
		switch c.Modbus.Encoders {
		case "":
			c.Modbus.Encoders = BackendGPIOCdev
		case BackendGPIOCdev, BackendGPIOMem:
		default:
			return errors.Errorf("modbus: unknown encoder backend %q", c.Modbus.Encoders)
		}
		if c.Modbus.SlaveID == 0 {
			c.Modbus.SlaveID = 1
		}
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Axes == nil {
		c.Axes = make(map[string]AxisConfig)
	}
	for _, name := range []rotator.AxisName{rotator.Azimuth, rotator.Elevation} {
		a, ok := c.Axes[string(name)]
		if !ok {
			if c.Backend != BackendSim {
				return errors.Errorf("missing configuration for %s", name)
			}
			c.Axes[string(name)] = a
		}
		if err := a.validate(string(name)); err != nil {
			return err
		}
	}
	for name := range c.Axes {
		if name != string(rotator.Azimuth) && name != string(rotator.Elevation) {
			return errors.Errorf("unknown axis %q", name)
		}
	}
	return nil
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a configuration. Unknown fields are errors.
func Parse(data []byte) (*Config, error) {
	var c Config
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &c, nil
}
