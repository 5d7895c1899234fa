// Package easycomm implements the EasyComm rotator protocol used by Hamlib's
// easycomm backends: a controller side (Handler, Session) that drives two
// axes, and a Client that talks to such a controller.
//
// Protocol docs at https://github.com/Hamlib/Hamlib/blob/master/rotators/easycomm/easycomm.txt
package easycomm

import (
	"log"

	"github.com/w1xm/azel_rotator/rotator"
)

// Handler executes EasyComm commands against an azimuth and an elevation
// axis. It does not own the axes. It is not safe for concurrent use; all
// sessions must be fed from the goroutine that updates the axes.
type Handler struct {
	az, el  rotator.Axis
	version string
}

func NewHandler(az, el rotator.Axis, version string) *Handler {
	return &Handler{az: az, el: el, version: version}
}

// HandleCommand executes one command, given without its terminator, and
// appends the reply, if any, to reply. Query replies end with the same
// terminator that ended the command, since rotctld depends on that.
// Unknown commands and malformed numbers are dropped without a reply.
func (h *Handler) HandleCommand(cmd []byte, term byte, reply []byte) []byte {
	if len(cmd) < 2 {
		return reply
	}
	switch string(cmd[:2]) {
	case "AZ":
		return h.position(h.az, cmd, term, reply)
	case "EL":
		return h.position(h.el, cmd, term, reply)
	case "VE":
		reply = append(reply, "VE"...)
		reply = append(reply, h.version...)
		return append(reply, term)
	case "ML":
		h.az.MoveNegative()
	case "MR":
		h.az.MovePositive()
	case "MU":
		h.el.MovePositive()
	case "MD":
		h.el.MoveNegative()
	case "SA":
		h.az.StopMoving()
	case "SE":
		h.el.StopMoving()
	default:
		log.Printf("unknown command %q", cmd)
	}
	return reply
}

// position handles AZ and EL: a bare opcode queries the current position,
// an opcode followed by a number sets the target.
func (h *Handler) position(axis rotator.Axis, cmd []byte, term byte, reply []byte) []byte {
	if len(cmd) == 2 {
		start := len(reply)
		reply = append(reply, cmd[:2]...)
		var err error
		reply, err = AppendNumber(reply, axis.CurrentPosition())
		if err != nil {
			log.Printf("formatting %s position: %v", cmd[:2], err)
			return reply[:start]
		}
		return append(reply, term)
	}
	setpoint, err := ParseNumber(cmd[2:])
	if err != nil {
		log.Printf("parsing %q: %v", cmd, err)
		return reply
	}
	log.Printf("%s: moving to %v", cmd[:2], setpoint)
	axis.MoveToPosition(setpoint)
	return reply
}
