// Command rotator runs an az/el rotator controller. It accepts EasyComm
// commands on a serial port and TCP, Hamlib rotctld commands on TCP, and
// serves status and commands over HTTP and websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/w1xm/azel_rotator/axis"
	"github.com/w1xm/azel_rotator/controller"
	"github.com/w1xm/azel_rotator/internal/config"
	"github.com/w1xm/azel_rotator/rotator"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

const version = "azel_rotator-0.1.0"

var (
	configPath   = flag.String("config", "", "mount configuration file; a simulated mount is used if empty")
	serialPort   = flag.String("serial", "", "serial port name to accept EasyComm commands on")
	baud         = flag.Int("baud", 9600, "serial port baud rate")
	easycommAddr = flag.String("easycomm_addr", ":4533", "address to accept EasyComm connections on")
	rotctldAddr  = flag.String("rotctld_addr", "", "address to accept rotctld connections on")
	httpAddr     = flag.String("http_addr", "127.0.0.1:8502", "address to serve the status API on")
	staticDir    = flag.String("static_dir", "", "directory containing static files")
	skipHoming   = flag.Bool("skip_homing", false, "start without homing the axes")
	listPorts    = flag.Bool("list_ports", false, "list serial ports and exit")
	showVersion  = flag.Bool("version", false, "print the version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		return
	}
	if *listPorts {
		ports, err := serial.GetPortsList()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	clk := clock.New()
	m, err := openMount(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Printf("closing mount: %v", err)
		}
	}()

	axes := make(map[rotator.AxisName]*axis.Axis)
	for _, name := range []rotator.AxisName{rotator.Azimuth, rotator.Elevation} {
		pos, neg, err := m.relays.Relays(string(name))
		if err != nil {
			return err
		}
		a := axis.New(string(name), cfg.Axes[string(name)].Axis(), pos, neg, clk)
		if err := m.encoders.WatchEncoder(string(name), a.EncoderEdge); err != nil {
			return err
		}
		axes[name] = a
	}

	s := NewServer()
	c := controller.New(axes[rotator.Azimuth], axes[rotator.Elevation], clk, controller.Options{
		SkipHoming: *skipHoming,
		AzOffset:   cfg.Axes[string(rotator.Azimuth)].Offset(),
		ElOffset:   cfg.Axes[string(rotator.Elevation)].Offset(),
		Version:    version,
		OnStatus:   s.statusCallback,
	})
	s.c = c

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(ctx)
	})
	if m.sim != nil {
		g.Go(func() error {
			return m.sim.Run(ctx, clk)
		})
	}
	if *serialPort != "" {
		// Not part of the group: a blocked serial read cannot be interrupted.
		go serveSerial(ctx, c, *serialPort, *baud)
	}
	if *easycommAddr != "" {
		g.Go(func() error {
			return listen(ctx, "easycomm", *easycommAddr, func(ctx context.Context, conn net.Conn) {
				if err := c.Serve(ctx, conn); err != nil && ctx.Err() == nil {
					log.Printf("%v: %v", conn.RemoteAddr(), err)
				}
			})
		})
	}
	if *rotctldAddr != "" {
		g.Go(func() error {
			return listen(ctx, "rotctld", *rotctldAddr, s.handleRotctld)
		})
	}
	if *httpAddr != "" {
		g.Go(func() error {
			return s.ListenAndServe(ctx, *httpAddr, *staticDir)
		})
	}
	return g.Wait()
}
