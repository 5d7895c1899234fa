package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/w1xm/azel_rotator/controller"
	"github.com/w1xm/azel_rotator/rotator"
	"github.com/w1xm/azel_rotator/telemetry"
)

type Server struct {
	c *controller.Controller

	statusMu   sync.RWMutex
	statusCond *sync.Cond
	status     telemetry.Snapshot
	// statusGen counts status updates so waiters can tell a new one arrived.
	statusGen uint64
}

func NewServer() *Server {
	s := &Server{}
	s.statusCond = sync.NewCond(s.statusMu.RLocker())
	return s
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) Router(staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/api/status", http.HandlerFunc(s.StatusHandler)).Methods("GET")
	r.Handle("/api/ws", http.HandlerFunc(s.StatusSocketHandler))
	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}
	return r
}

func (s *Server) ListenAndServe(ctx context.Context, addr, staticDir string) error {
	srv := &http.Server{
		Handler:      s.Router(staticDir),
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("Listening on %v", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(status)
	if err != nil {
		log.Print(err)
		return
	}
	w.Write(data)
}

type Command struct {
	Command  string  `json:"command"`
	Position float64 `json:"position"`
	// Axis and Direction select the axis and direction of a jog.
	Axis      string `json:"axis"`
	Direction string `json:"direction"`
}

// execute runs a websocket command on the controller loop.
func (s *Server) execute(ctx context.Context, msg Command) error {
	az, el := s.c.Axes()
	var f func()
	switch msg.Command {
	case "set_azimuth_position", "set_elevation_position":
		position, err := rotator.TenthsFromDegrees(msg.Position)
		if err != nil {
			return errors.Wrap(err, msg.Command)
		}
		a := az
		if msg.Command == "set_elevation_position" {
			a = el
		}
		f = func() { a.MoveToPosition(position) }
	case "stop":
		f = func() {
			az.StopMoving()
			el.StopMoving()
		}
	case "jog":
		var a rotator.Axis
		switch rotator.AxisName(msg.Axis) {
		case rotator.Azimuth:
			a = az
		case rotator.Elevation:
			a = el
		default:
			return errors.Errorf("unknown axis %q", msg.Axis)
		}
		switch msg.Direction {
		case "positive":
			f = a.MovePositive
		case "negative":
			f = a.MoveNegative
		default:
			return errors.Errorf("unknown direction %q", msg.Direction)
		}
	default:
		return errors.Errorf("unknown command %q", msg.Command)
	}
	return s.c.Do(ctx, f)
}

func (s *Server) StatusSocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	// Read and process incoming messages
	go func() {
		for {
			var msg Command
			if err := conn.ReadJSON(&msg); err != nil {
				cancel()
				conn.Close()
				break
			}
			if err := s.execute(ctx, msg); err != nil {
				log.Printf("%v: %v", conn.RemoteAddr(), err)
			}
		}
	}()

	// Wake the status loop below when the connection goes away.
	stop := context.AfterFunc(ctx, func() {
		s.statusMu.Lock()
		s.statusCond.Broadcast()
		s.statusMu.Unlock()
	})
	defer stop()

	send := func(status telemetry.Snapshot) error {
		data, err := json.Marshal(status)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	s.statusMu.RLock()
	status, gen := s.status, s.statusGen
	s.statusMu.RUnlock()
	if err := send(status); err != nil {
		log.Print(err)
		return
	}

	for {
		s.statusMu.RLock()
		for s.statusGen == gen && ctx.Err() == nil {
			s.statusCond.Wait()
		}
		status, gen = s.status, s.statusGen
		s.statusMu.RUnlock()
		if ctx.Err() != nil {
			return
		}
		if err := send(status); err != nil {
			log.Print(err)
			return
		}
	}
}

func (s *Server) statusCallback(status telemetry.Snapshot) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = status
	s.statusGen++
	s.statusCond.Broadcast()
}
