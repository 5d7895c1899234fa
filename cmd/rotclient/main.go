// Command rotclient sends EasyComm commands to a rotator controller over TCP
// or a serial port and prints the position it reports.
//
// Usage:
//
//	rotclient [flags] status
//	rotclient [flags] goto AZ EL
//	rotclient [flags] jog left|right|up|down
//	rotclient [flags] stop
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	"github.com/w1xm/azel_rotator/easycomm"
	"github.com/w1xm/azel_rotator/rotator"
)

var (
	addr       = flag.String("addr", "localhost:4533", "rotator address")
	serialPort = flag.String("serial", "", "serial port name; overrides -addr")
	baud       = flag.Int("baud", 9600, "serial port baud rate")
	wait       = flag.Duration("wait", 3*time.Second, "how long to wait for a status reply")
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statusCh := make(chan easycomm.Status, 1)
	callback := func(s easycomm.Status) {
		select {
		case statusCh <- s:
		default:
		}
	}
	var c *easycomm.Client
	if *serialPort != "" {
		s, err := serial.OpenPort(&serial.Config{Name: *serialPort, Baud: *baud})
		if err != nil {
			log.Fatalf("opening %q: %v", *serialPort, err)
		}
		c = easycomm.Connect(ctx, s, callback)
	} else {
		var err error
		c, err = easycomm.ConnectTCP(ctx, *addr, callback)
		if err != nil {
			log.Fatal(err)
		}
	}

	// Wait for the first reply, which also means the link is up.
	select {
	case <-statusCh:
	case <-time.After(*wait):
		log.Fatalf("no reply from rotator after %v", *wait)
	}
	if err := command(c, flag.Args()); err != nil {
		log.Fatal(err)
	}
	// Queries are sent with every poll; let one more round complete.
	time.Sleep(c.PollInterval)
	s := c.Status()
	fmt.Printf("%s az %v el %v\n", s.Version, s.AzPos, s.ElPos)
}

func parseDegrees(s string) (rotator.Tenths, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %q", s)
	}
	return rotator.TenthsFromDegrees(f)
}

func command(c *easycomm.Client, args []string) error {
	switch args[0] {
	case "status":
		return nil
	case "goto":
		if len(args) != 3 {
			return errors.New("usage: goto AZ EL")
		}
		az, err := parseDegrees(args[1])
		if err != nil {
			return err
		}
		el, err := parseDegrees(args[2])
		if err != nil {
			return err
		}
		if err := c.SetAzimuthPosition(az); err != nil {
			return err
		}
		return c.SetElevationPosition(el)
	case "jog":
		if len(args) != 2 {
			return errors.New("usage: jog left|right|up|down")
		}
		switch args[1] {
		case "left":
			return c.MoveLeft()
		case "right":
			return c.MoveRight()
		case "up":
			return c.MoveUp()
		case "down":
			return c.MoveDown()
		}
		return errors.Errorf("unknown direction %q", args[1])
	case "stop":
		return c.Stop()
	}
	return errors.Errorf("unknown command %q", args[0])
}
