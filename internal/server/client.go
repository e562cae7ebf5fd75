package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"dukelink"
	"dukelink/internal/protocol"
)

// RateLimitConfig defines rate limiting configuration for clients
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages a client can send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration
// Allows 100 messages per second with burst of 200
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

// Client is one connected identity. Exactly one session read loop owns it.
//
// The room pointer is part of the registry's state and is guarded by the
// registry mutex, never by the client's own mutex.
type Client struct {
	id          string
	wire        wire
	remoteAddr  string
	ctx         context.Context
	cancel      context.CancelFunc
	sendCh      chan []byte
	mu          sync.RWMutex
	name        string
	closed      bool
	rateLimiter *rate.Limiter // Rate limiter for incoming messages

	room *Room // guarded by Registry.mu
}

var _ dukelink.Client = (*Client)(nil)

// newID generates the opaque identity token assigned at connect time.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:7]
}

// NewClient wraps an accepted connection with identity, send queue, and
// rate limiting, and starts the write pump.
func NewClient(w wire, rateLimitConfig *RateLimitConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	var limiter *rate.Limiter
	if rateLimitConfig != nil && rateLimitConfig.Enabled {
		limiter = rate.NewLimiter(rateLimitConfig.MessagesPerSecond, rateLimitConfig.Burst)
	}

	client := &Client{
		id:          newID(),
		wire:        w,
		remoteAddr:  w.RemoteAddr(),
		ctx:         ctx,
		cancel:      cancel,
		sendCh:      make(chan []byte, 256),
		rateLimiter: limiter,
	}

	// Start the write pump
	go client.writePump()

	return client
}

// ID returns the server-assigned identity token.
func (c *Client) ID() string {
	return c.id
}

// Name returns the display name, empty until set.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName sets the display name.
func (c *Client) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Tag returns the display name if set, otherwise the identity token.
func (c *Client) Tag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.name != "" {
		return c.name
	}
	return c.id
}

// RemoteAddr returns the client's remote network address
func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

// Context returns the client's lifecycle context
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send frames and queues a message for delivery to the client. The enqueue
// never blocks: when the write pump has fallen behind and the queue is full,
// the frame is dropped and an error returned. Senders run inside other
// clients' read loops, and a slow recipient must not stall them.
func (c *Client) Send(ctx context.Context, command, payload string) error {
	// Encode the message first (before acquiring lock)
	data, err := protocol.Encode(command, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", dukelink.ErrFailedToEncode, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.New(dukelink.ErrConnectionClosed)
	}

	// Keep the lock while queueing to prevent race with Close()
	select {
	case c.sendCh <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New(dukelink.ErrContextCancelled)
	default:
		return errors.New(dukelink.ErrSendQueueFull)
	}
}

// Close closes the client connection.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.cancel()

	close(c.sendCh)
	return c.wire.Close()
}

// IsAlive returns true if the connection is still active
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// CheckRateLimit checks if the client has exceeded the rate limit
// Returns true if the message is allowed, false if rate limited
func (c *Client) CheckRateLimit() bool {
	if c.rateLimiter == nil {
		// Rate limiting disabled
		return true
	}
	return c.rateLimiter.Allow()
}

// writePump pumps queued frames to the wire. It is the only writer to the
// underlying connection, which serializes concurrent senders (relay path and
// operator broadcast) onto one socket.
func (c *Client) writePump() {
	defer c.wire.Close()

	for {
		select {
		case data, ok := <-c.sendCh:
			if !ok {
				// Channel closed
				return
			}
			if err := c.wire.WriteFrame(data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
