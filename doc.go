// Package dukelink provides a session relay for two-player networked board games.
//
// The relay accepts persistent byte-stream connections (raw TCP, with an
// optional WebSocket bridge for browser clients), assigns each connection an
// opaque identity, groups identities into named two-seat rooms, and forwards
// a small catalog of typed text messages between the seats with simple
// turn-gating. The server never interprets game payloads: move legality,
// board state, and win conditions are entirely client-side concerns.
//
// # Architecture
//
// The library uses a command pattern where each message is a text frame of
// the form `command:payload|`. Handlers are registered per command name,
// keeping lobby operations (rooms, names, chat) separate from match relay
// operations (positions, moves, outcome).
//
// # Quick Start
//
//	import (
//	    "dukelink/relay"
//	)
//
//	cfg := relay.NewConfig(":8888", relay.DefaultRateLimitConfig(), nil, nil)
//	server := relay.New(cfg)
//	server.Start(ctx)
//
// # Protocol Format
//
//	COMMAND:PAYLOAD|
//
// The colon separates the command from the payload and every frame ends with
// a pipe, including the last frame of a batch. Receivers split on `|`,
// discard the empty trailing fragment, and split each fragment on the first
// `:`. Frames survive TCP fragmentation: a frame may arrive across several
// reads and one read may carry several frames.
//
// # Room Lifecycle
//
// Rooms are created lazily on first join-by-name and deleted when they become
// empty. A match room holds at most two seats; the second join fires a single
// room_ready broadcast to both seats, which is the sole trigger that starts a
// match. The first member to join is the host and holds the authority to
// trigger turn-start via ready.
//
// # Rate Limiting
//
// Each client has independent rate limiting using a token bucket:
//
//	// Default: 100 messages/second, burst 200
//	cfg := relay.NewConfig(":8888", relay.DefaultRateLimitConfig(), nil, nil)
//
//	// Disabled
//	cfg := relay.NewConfig(":8888", relay.NoRateLimit(), nil, nil)
//
// When the limit is exceeded the connection is closed.
//
// # Important
//
//   - Handlers for unknown commands are never invoked; unknown commands are
//     logged and ignored.
//   - Match relay commands sent outside a full two-seat room are silently
//     dropped.
//   - Delivery is fire-and-forget; losses surface only as disconnects.
package dukelink
