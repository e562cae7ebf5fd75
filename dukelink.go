package dukelink

import "context"

// RelayServer defines the interface for a session relay that pairs clients
// into two-seat rooms and forwards framed text messages between them.
//
// All messages exchanged between the server and clients use the text frame
// format `command:payload|` (see internal/protocol).
//
// Example usage:
//
//	import "dukelink/relay"
//
//	cfg := relay.NewConfig(":8888", relay.DefaultRateLimitConfig(), nil, nil)
//	server := relay.New(cfg)
//
//	server.Start(ctx)
type RelayServer interface {
	// Start begins accepting connections on the configured address(es).
	// The server keeps running until Stop is called or the context is
	// cancelled.
	//
	// Returns an error if the server is already running or the listen
	// address cannot be bound.
	Start(ctx context.Context) error

	// Stop gracefully stops the relay and closes all client connections.
	Stop(ctx context.Context) error

	// Broadcast sends a framed message to every connected client.
	//
	// Useful for operator announcements and system-wide notifications.
	Broadcast(ctx context.Context, command, payload string) error
}

// Client represents one connected participant as seen by the relay.
//
// Each client is assigned an opaque identity token at connect time which
// stays stable for the lifetime of the connection. A client may optionally
// set a display name; the Tag is the name when set, the identity otherwise.
type Client interface {
	// ID returns the server-assigned identity token for the connection.
	ID() string

	// Tag returns the display name if one was set, otherwise the ID.
	// Tags are what the operator console and whisper targeting use.
	Tag() string

	// RemoteAddr returns the client's remote network address.
	RemoteAddr() string

	// Context returns the client's lifecycle context, cancelled when the
	// connection closes.
	Context() context.Context

	// Send frames and queues a message for delivery to the client.
	//
	// Returns an error if the connection is closed or the context is
	// cancelled. Delivery is fire-and-forget beyond that: there is no
	// acknowledgement and no retry.
	Send(ctx context.Context, command, payload string) error

	// Close closes the client connection.
	Close(ctx context.Context) error

	// IsAlive returns true while the connection is still active.
	IsAlive() bool
}
