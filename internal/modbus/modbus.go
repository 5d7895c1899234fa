// Package modbus wraps a goburrow Modbus client with a reconnect loop that
// polls the device while the connection is up.
package modbus

import (
	"context"
	"log"
	"time"

	"github.com/goburrow/modbus"
)

type modbusHandler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

type Client struct {
	// Port and BaudRate create a local serial (RTU) connection
	Port string
	// BaudRate defaults to 19200
	BaudRate int
	SlaveId  byte
	// Address creates a Modbus TCP connection
	Address string

	// PollInterval is the delay between calls to Poll
	PollInterval time.Duration
	// Poll function to be called in a loop while the connection is active
	Poll func() error

	handler modbusHandler
	modbus.Client
}

func (c *Client) Connect(ctx context.Context) error {
	if c.Address != "" {
		handler := modbus.NewTCPClientHandler(c.Address)
		handler.Timeout = 1 * time.Second
		handler.SlaveId = c.SlaveId
		c.handler = handler
	} else {
		if c.BaudRate == 0 {
			c.BaudRate = 19200
		}
		handler := modbus.NewRTUClientHandler(c.Port)
		handler.BaudRate = c.BaudRate
		handler.DataBits = 8
		handler.Parity = "N"
		handler.StopBits = 1
		handler.Timeout = 1 * time.Second
		handler.SlaveId = c.SlaveId
		c.handler = handler
	}
	if c.PollInterval == 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.Poll == nil {
		c.Poll = func() error { return nil }
	}

	c.Client = modbus.NewClient(c.handler)
	go c.reconnectLoop(ctx)
	return nil
}

func (c *Client) name() string {
	if c.Address != "" {
		return c.Address
	}
	return c.Port
}

func (c *Client) reconnectLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}

		err := c.handler.Connect()
		if err != nil {
			log.Printf("opening %q: %v", c.name(), err)
			continue
		}
		log.Printf("opened %q", c.name())
		if err := c.watch(ctx); err != nil && err != context.Canceled {
			log.Printf("watching %q: %v", c.name(), err)
		}
	}
}

func (c *Client) watch(ctx context.Context) error {
	defer c.handler.Close()
	for {
		if err := c.Poll(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

func (c *Client) WriteCoil(coil uint16, value bool) error {
	var v uint16
	if value {
		v = 0xFF00
	}
	_, err := c.WriteSingleCoil(coil, v)
	return err
}

// ReadCoil returns the state of a single coil.
func (c *Client) ReadCoil(coil uint16) (bool, error) {
	bs, err := c.ReadCoils(coil, 1)
	if err != nil {
		return false, err
	}
	bits := BytesToBits(bs)
	if len(bits) == 0 {
		return false, nil
	}
	return bits[0], nil
}

func BytesToBits(bs []byte) []bool {
	var out []bool
	for _, b := range bs {
		for i := 0; i < 8; i++ {
			out = append(out, (b>>uint(i)&1) == 1)
		}
	}
	return out
}
