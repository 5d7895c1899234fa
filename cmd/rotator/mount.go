package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/hardware"
	"github.com/w1xm/azel_rotator/hardware/cdev"
	"github.com/w1xm/azel_rotator/hardware/gpiomem"
	"github.com/w1xm/azel_rotator/hardware/modbusrelay"
	"github.com/w1xm/azel_rotator/hardware/sim"
	"github.com/w1xm/azel_rotator/internal/config"
	"github.com/w1xm/azel_rotator/internal/modbus"
	"go.uber.org/multierr"
)

type mount struct {
	relays   hardware.RelayBank
	encoders hardware.EncoderBank
	// sim is set for a simulated mount, which must be stepped.
	sim *sim.Mount
}

func (m *mount) Close() error {
	if io.Closer(m.relays) == io.Closer(m.encoders) {
		return m.relays.Close()
	}
	return multierr.Combine(m.relays.Close(), m.encoders.Close())
}

func openMount(ctx context.Context, cfg *config.Config) (*mount, error) {
	switch cfg.Backend {
	case config.BackendSim:
		s := sim.New()
		return &mount{relays: s, encoders: s, sim: s}, nil
	case config.BackendGPIOCdev, config.BackendGPIOMem:
		b, err := openGPIO(cfg.Backend, cfg)
		if err != nil {
			return nil, err
		}
		return &mount{relays: b, encoders: b}, nil
	case config.BackendModbus:
		encoders, err := openGPIO(cfg.Modbus.Encoders, cfg)
		if err != nil {
			return nil, err
		}
		client := &modbus.Client{
			Port:     cfg.Modbus.Port,
			BaudRate: cfg.Modbus.BaudRate,
			Address:  cfg.Modbus.Address,
			SlaveId:  cfg.Modbus.SlaveID,
		}
		coils := make(map[string]modbusrelay.Coils)
		for name, a := range cfg.Axes {
			coils[name] = modbusrelay.Coils{Positive: uint16(a.Positive), Negative: uint16(a.Negative)}
		}
		board := modbusrelay.New(client, coils, cfg.ActiveLow)
		client.Poll = board.Poll
		if err := client.Connect(ctx); err != nil {
			return nil, multierr.Append(err, encoders.Close())
		}
		return &mount{relays: board, encoders: encoders}, nil
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Backend)
}

// openGPIO opens a GPIO backend. With the modbus backend only its encoder
// inputs are used.
func openGPIO(backend string, cfg *config.Config) (hardware.Backend, error) {
	switch backend {
	case config.BackendGPIOCdev:
		lines := make(map[string]cdev.Lines)
		for name, a := range cfg.Axes {
			lines[name] = cdev.Lines{Positive: a.Positive, Negative: a.Negative, Encoder: a.Encoder}
		}
		return cdev.New(cdev.Config{
			Chip:      cfg.Chip,
			ActiveLow: cfg.ActiveLow,
			PullUp:    cfg.PullUp,
			Axes:      lines,
		}), nil
	case config.BackendGPIOMem:
		pins := make(map[string]gpiomem.Pins)
		for name, a := range cfg.Axes {
			pins[name] = gpiomem.Pins{Positive: a.Positive, Negative: a.Negative, Encoder: a.Encoder}
		}
		b, err := gpiomem.Open(gpiomem.Config{
			ActiveLow: cfg.ActiveLow,
			PullUp:    cfg.PullUp,
			Axes:      pins,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, errors.Errorf("unknown GPIO backend %q", backend)
}
