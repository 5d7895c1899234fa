package easycomm

import (
	"bufio"
	"context"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/rotator"
	"golang.org/x/sync/errgroup"
)

var ErrNotConnected = errors.New("not connected")

type StatusCallback func(status Status)

// Status is the state of a remote rotator as reported by its replies.
type Status struct {
	// AZ command returns:
	AzPos rotator.Tenths
	// EL command returns:
	ElPos rotator.Tenths
	// VE command returns:
	Version string
}

// Client talks to an EasyComm II rotator controller, polling its position
// and forwarding commands.
type Client struct {
	// PollInterval is how often the position and version are queried.
	PollInterval time.Duration

	statusCallback StatusCallback

	mu     sync.Mutex
	conn   io.ReadWriteCloser
	status Status
}

func newClient(statusCallback StatusCallback) *Client {
	if statusCallback == nil {
		statusCallback = func(Status) {}
	}
	return &Client{
		PollInterval:   time.Second,
		statusCallback: statusCallback,
	}
}

// ConnectTCP returns a client that keeps a connection to addr open until ctx
// is canceled, redialing whenever it drops.
func ConnectTCP(ctx context.Context, addr string, statusCallback StatusCallback) (*Client, error) {
	c := newClient(statusCallback)
	go c.reconnectLoop(ctx, addr)
	return c, nil
}

// Connect returns a client using an already open connection, such as a
// serial port. The connection is closed when ctx is canceled or it fails.
func Connect(ctx context.Context, conn io.ReadWriteCloser, statusCallback StatusCallback) *Client {
	c := newClient(statusCallback)
	c.conn = conn
	go func() {
		if err := c.watch(ctx, conn); err != nil && err != context.Canceled {
			log.Printf("connection closed: %v", err)
		}
		c.setConn(nil)
	}()
	return c
}

func (c *Client) setConn(conn io.ReadWriteCloser) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) reconnectLoop(ctx context.Context, addr string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}
		dialer := &net.Dialer{
			Timeout: time.Second,
		}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			log.Printf("opening %q: %v", addr, err)
			continue
		}
		log.Printf("opened %q", addr)
		c.setConn(conn)
		if err := c.watch(ctx, conn); err != nil && err != context.Canceled {
			log.Printf("%q: %v", addr, err)
		}
		c.setConn(nil)
	}
}

func (c *Client) watch(ctx context.Context, conn io.ReadWriteCloser) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Wait for context to be canceled, then close connection.
		<-ctx.Done()
		return conn.Close()
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(conn)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			input := scanner.Text()
			if err := c.parseInput(input); err != nil {
				log.Printf("parsing %q: %v", input, err)
				continue
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrap(err, "reading port")
		}
		return io.EOF
	})
	g.Go(func() error {
		for {
			for _, cmd := range []string{"AZ", "EL", "VE"} {
				if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
					return err
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.PollInterval):
			}
		}
	})
	return g.Wait()
}

func (c *Client) parseInput(input string) error {
	if len(input) < 2 {
		return errors.New("truncated output")
	}
	c.mu.Lock()
	old := c.status
	defer func() {
		new := c.status
		c.mu.Unlock()
		if new != old {
			c.statusCallback(new)
		}
	}()
	switch input[:2] {
	case "AZ": // AZxxx.x
		return parseTenths(&c.status.AzPos, input[2:])
	case "EL": // ELxxx.x
		return parseTenths(&c.status.ElPos, input[2:])
	case "VE": // VEaaaaaa
		c.status.Version = input[2:]
	default:
		return errors.New("unknown rotator output")
	}
	return nil
}

func parseTenths(dest *rotator.Tenths, input string) error {
	t, err := ParseNumber([]byte(input))
	if err != nil {
		return err
	}
	*dest = t
	return nil
}

// Status returns the last reported status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) send(cmd string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	_, err := conn.Write([]byte(cmd + "\n"))
	return err
}

func (c *Client) Stop() error {
	return c.send("SA SE")
}

func (c *Client) SetAzimuthPosition(angle rotator.Tenths) error {
	return c.setPosition("AZ", angle)
}

func (c *Client) SetElevationPosition(angle rotator.Tenths) error {
	return c.setPosition("EL", angle)
}

func (c *Client) setPosition(op string, angle rotator.Tenths) error {
	cmd, err := AppendNumber([]byte(op), angle)
	if err != nil {
		return err
	}
	return c.send(string(cmd))
}

func (c *Client) MoveLeft() error  { return c.send("ML") }
func (c *Client) MoveRight() error { return c.send("MR") }
func (c *Client) MoveUp() error    { return c.send("MU") }
func (c *Client) MoveDown() error  { return c.send("MD") }
