package easycomm

import (
	"io"
	"log"
)

// commandBufSize is the longest command accepted, excluding the terminator.
const commandBufSize = 64

// Session frames one byte stream into commands for a Handler and writes
// replies back to the stream. Commands end at '\n', '\r' or ' '.
type Session struct {
	h *Handler
	w io.Writer

	buf [commandBufSize]byte
	n   int
	// overrun is set while skipping the rest of a command that did not fit
	// in buf.
	overrun bool

	reply [commandBufSize]byte
}

// NewSession returns a session whose replies are written to w.
func (h *Handler) NewSession(w io.Writer) *Session {
	return &Session{h: h, w: w}
}

func isTerminator(c byte) bool {
	return c == '\n' || c == '\r' || c == ' '
}

// Write feeds received bytes to the session, executing every command they
// complete. The only error returned is a failure to write a reply.
func (s *Session) Write(p []byte) (int, error) {
	for i, c := range p {
		if isTerminator(c) {
			if s.overrun {
				s.overrun = false
				s.n = 0
				continue
			}
			if s.n == 0 {
				continue
			}
			cmd := s.buf[:s.n]
			s.n = 0
			if reply := s.h.HandleCommand(cmd, c, s.reply[:0]); len(reply) > 0 {
				if _, err := s.w.Write(reply); err != nil {
					return i + 1, err
				}
			}
			continue
		}
		if s.overrun {
			continue
		}
		if s.n == len(s.buf) {
			log.Printf("command buffer full, discarding %q", s.buf[:s.n])
			s.overrun = true
			s.n = 0
			continue
		}
		s.buf[s.n] = c
		s.n++
	}
	return len(p), nil
}
