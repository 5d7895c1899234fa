package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/w1xm/azel_rotator/rotator"
)

func (s *Server) handleRotctld(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		// Two forms of command: single character, or "+\" followed by command name.
		cmd := scanner.Text()
		var args []string
		var extended bool
		if len(cmd) == 0 {
			continue
		} else if len(cmd) > 2 && cmd[0:2] == `+\` {
			extended = true
			parts := strings.Split(cmd, " ")
			cmd = parts[0][2:]
			if len(parts) > 1 {
				args = parts[1:]
			}
			fmt.Fprintf(conn, "%s:\n", cmd)
		} else {
			// Space after command is optional.
			if len(cmd) > 1 {
				args = strings.Fields(strings.TrimLeft(cmd[1:], " "))
			}
			cmd = string(cmd[0])
		}
		log.Printf("%v command: %q args: %#v", conn.RemoteAddr(), cmd, args)
		az, el := s.c.Axes()
		rprt := -1
		switch cmd {
		case "1", "dump_caps":
			fmt.Fprintf(conn, `Model name: %s
Mfg name: W1XM
Rot type: Az-El
Min Azimuth: -180.00
Max Aximuth: 180.00
Min Elevation: 0.00
Max Elevation: 90.00
Can set Position: Y
Can get Position: Y
Can Stop: Y
Can Park: N
Can Reset: N
Can Move: Y
Can get Info: Y
`, version)
			rprt = 0
		case "_", "get_info":
			if extended {
				fmt.Fprintf(conn, "Info: %s\n", version)
			} else {
				fmt.Fprintf(conn, "%s\n", version)
			}
			rprt = 0
		case "S", "stop":
			extended = true // always print RPRT
			if err := s.c.Do(ctx, func() {
				az.StopMoving()
				el.StopMoving()
			}); err != nil {
				return
			}
			rprt = 0
		case "P", "set_pos":
			extended = true // always print RPRT
			if len(args) != 2 {
				rprt = -22
				break
			}
			azDeg, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				rprt = -22
				break
			}
			elDeg, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				rprt = -22
				break
			}
			if azDeg < 0 {
				azDeg += 360
			}
			azPos, err := rotator.TenthsFromDegrees(azDeg)
			if err != nil {
				rprt = -22
				break
			}
			elPos, err := rotator.TenthsFromDegrees(elDeg)
			if err != nil {
				rprt = -22
				break
			}
			if err := s.c.Do(ctx, func() {
				az.MoveToPosition(azPos)
				el.MoveToPosition(elPos)
			}); err != nil {
				return
			}
			rprt = 0
		case "M", "move":
			extended = true // always print RPRT
			if len(args) != 2 {
				rprt = -22
				break
			}
			dir, err := strconv.Atoi(args[0])
			if err != nil {
				rprt = -22
				break
			}
			// Speed is accepted for compatibility; the relays have one speed.
			if _, err := strconv.Atoi(args[1]); err != nil {
				rprt = -22
				break
			}
			var f func()
			switch dir {
			case 2: // Up
				f = el.MovePositive
			case 4: // Down
				f = el.MoveNegative
			case 8: // Left
				f = az.MoveNegative
			case 16: // Right
				f = az.MovePositive
			default:
				rprt = -22
			}
			if f == nil {
				break
			}
			if err := s.c.Do(ctx, f); err != nil {
				return
			}
			rprt = 0
		case "p", "get_pos":
			var azPos, elPos rotator.Tenths
			if err := s.c.Do(ctx, func() {
				azPos = az.CurrentPosition()
				elPos = el.CurrentPosition()
			}); err != nil {
				return
			}
			azDeg := azPos.Degrees()
			if azDeg > 180 {
				azDeg -= 360
			}
			if extended {
				fmt.Fprintf(conn, "Azimuth: %.6f\nElevation: %.6f\n", azDeg, elPos.Degrees())
			} else {
				fmt.Fprintf(conn, "%.6f\n%.6f\n", azDeg, elPos.Degrees())
			}
			rprt = 0
		}
		if extended || rprt != 0 {
			fmt.Fprintf(conn, "RPRT %d\n", rprt)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("reading from %v: %v", conn.RemoteAddr(), err)
	}
}
