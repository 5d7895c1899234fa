package main

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	"github.com/w1xm/azel_rotator/controller"
)

// serveSerial runs an EasyComm session on a serial port, reopening the port
// whenever it fails.
func serveSerial(ctx context.Context, c *controller.Controller, port string, baud int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}
		s, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
		if err != nil {
			log.Printf("opening %q: %v", port, err)
			continue
		}
		log.Printf("opened %q", port)
		if err := c.Serve(ctx, s); err != nil && ctx.Err() == nil {
			log.Printf("reading serial port: %v", err)
		}
		s.Close()
	}
}

// listen accepts TCP connections on addr until ctx is canceled, handling
// each on its own goroutine. Connections are closed when ctx is canceled.
func listen(ctx context.Context, name, addr string, handle func(ctx context.Context, conn net.Conn)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening for %s", name)
	}
	go func() {
		<-ctx.Done()
		log.Printf("shutdown; closing %s socket", name)
		ln.Close()
	}()
	log.Printf("accepting %s connections on %v", name, ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("failed to accept: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		go func() {
			defer conn.Close()
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()
			log.Printf("accepted %s connection from %v", name, conn.RemoteAddr())
			handle(ctx, conn)
			log.Printf("closed %s connection from %v", name, conn.RemoteAddr())
		}()
	}
}
