package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"dukelink"
)

// Console is the operator-facing admin loop. It reads commands from its
// input (normally stdin) on the caller's goroutine and blocks only on
// operator input.
//
// Commands: "exit" stops the loop, "stats" prints connection counts,
// "names" prints known display names, "rooms" prints per-room occupancy.
// Any other text is broadcast to every connected client as an info
// notification.
type Console struct {
	srv *Server
	in  io.Reader
	out io.Writer

	prompt *color.Color
	notice *color.Color
	warn   *color.Color
}

// NewConsole wires an operator console to a relay server.
func NewConsole(srv *Server, in io.Reader, out io.Writer) *Console {
	return &Console{
		srv:    srv,
		in:     in,
		out:    out,
		prompt: color.New(color.FgCyan),
		notice: color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
	}
}

// Run processes operator commands until "exit", end of input, or context
// cancellation.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)

	for {
		c.prompt.Fprint(c.out, "server message: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit":
			return nil
		case "stats":
			c.notice.Fprintln(c.out, c.srv.Registry().Stats())
		case "names":
			c.notice.Fprintln(c.out, strings.Join(c.srv.Registry().Names(), ", "))
		case "rooms":
			c.printRooms()
		default:
			// Anything else goes out to every client.
			if err := c.srv.Broadcast(ctx, dukelink.CmdInfo, line); err != nil {
				c.warn.Fprintf(c.out, "broadcast failed: %v\n", err)
			}
		}
	}
}

func (c *Console) printRooms() {
	summaries := c.srv.Registry().RoomSummaries()
	if len(summaries) == 0 {
		c.warn.Fprintln(c.out, "no rooms")
		return
	}
	for _, r := range summaries {
		c.notice.Fprintln(c.out, fmt.Sprintf("[%s] %d/%d host:%s members:%v",
			r.Name, r.NumClients, r.MaxClients, r.HostTag, r.MemberTags))
	}
}
