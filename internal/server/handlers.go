package server

import (
	"context"
	"fmt"
	"log"
	"strings"

	"dukelink"
)

// HandlerFunc processes one decoded command on behalf of the originating
// client. Handlers run inside the client's own read loop, so no two handlers
// ever execute concurrently for the same identity.
type HandlerFunc func(ctx context.Context, reg *Registry, c *Client, payload string)

// defaultHandlers builds the dispatch table. It is populated once during
// server construction, before any connection is accepted, and read-only
// afterwards, so concurrent lookups from many read loops are safe.
func defaultHandlers(logger *log.Logger) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		dukelink.CmdUID: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			c.Send(ctx, dukelink.CmdUID, c.ID())
		},

		dukelink.CmdName: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			c.SetName(payload)
			c.Send(ctx, dukelink.CmdName, payload)
		},

		dukelink.CmdRoom: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			reg.JoinRoom(ctx, c, payload)
		},

		dukelink.CmdExitRoom: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			reg.ExitRoom(c)
		},

		dukelink.CmdGetRooms: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			c.Send(ctx, dukelink.CmdRooms, strings.Join(reg.RoomInfos(), ","))
		},

		dukelink.CmdAll: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			reg.Broadcast(ctx, dukelink.CmdRelay, fmt.Sprintf("%s: %s", c.Tag(), payload), c)
			logger.Printf("%s sent: %s", c.Tag(), payload)
		},

		dukelink.CmdWhisper: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			target, text, ok := strings.Cut(payload, " ")
			if !ok || target == "" {
				return
			}
			for _, peer := range reg.FindByTag(target) {
				peer.Send(ctx, dukelink.CmdInfo, fmt.Sprintf("%s says: %s", c.Tag(), text))
			}
		},

		// Match relay: forward the payload verbatim to the other seat.
		// Senders outside a full match room are silently dropped.
		dukelink.CmdPositions:     relayHandler(dukelink.CmdPositions),
		dukelink.CmdMove:          relayHandler(dukelink.CmdMove),
		dukelink.CmdSpawnOpponent: relayHandler(dukelink.CmdSpawnOpponent),

		dukelink.CmdReady: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			// Only the host may start the first turn; everyone else is
			// silently ignored.
			if reg.TurnAuthority(c) {
				c.Send(ctx, dukelink.CmdMove, "")
			}
		},

		dukelink.CmdLost: func(ctx context.Context, reg *Registry, c *Client, payload string) {
			room, ok := reg.MatchRoom(c)
			if !ok {
				return
			}
			// The loser's assertion is the sole authority on the outcome.
			reg.RoomBroadcast(ctx, room, dukelink.CmdWon, "", c)
			c.Send(ctx, dukelink.CmdLost, "")
		},
	}
}

func relayHandler(command string) HandlerFunc {
	return func(ctx context.Context, reg *Registry, c *Client, payload string) {
		room, ok := reg.MatchRoom(c)
		if !ok {
			return
		}
		reg.RoomBroadcast(ctx, room, command, payload, c)
	}
}
