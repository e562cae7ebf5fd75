// Package client implements the game-side connection to a dukelink relay.
//
// The client dials the relay over TCP, keeps a background read loop feeding
// the frame decoder, and dispatches decoded messages to string-keyed
// handlers registered before Connect. Identity, display name, and current
// room are tracked automatically from the server's replies; the board, the
// rules table, and rendering live entirely outside this package.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"dukelink"
	"dukelink/internal/protocol"
)

const readChunkSize = 1024

// Handler processes the payload of one server message.
type Handler func(payload string)

// Client is one relay connection. Register handlers with Handle before
// calling Connect; the handler table is read-only once the read loop starts.
type Client struct {
	addr     string
	handlers map[string]Handler
	logger   *log.Logger

	writeMu sync.Mutex // serializes frame writes to the socket
	conn    net.Conn

	mu     sync.RWMutex
	uid    string
	name   string
	room   string
	closed bool

	done chan struct{}
}

// New creates a client for the relay at addr.
func New(addr string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		addr:     addr,
		handlers: make(map[string]Handler),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Handle registers a handler for a server command. Must be called before
// Connect.
func (c *Client) Handle(command string, h Handler) {
	c.handlers[command] = h
}

// Connect dials the relay, starts the read loop, and requests the
// server-assigned identity.
func (c *Client) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.conn = conn

	go c.readLoop()

	return c.Send(dukelink.CmdUID, "")
}

// Send frames and writes one message to the relay.
func (c *Client) Send(command, payload string) error {
	data, err := protocol.Encode(command, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", dukelink.ErrFailedToEncode, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return errors.New(dukelink.ErrConnectionClosed)
	}
	_, err = c.conn.Write(data)
	return err
}

// Close shuts the connection down. The read loop exits and Done is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Done is closed when the connection has ended, either by Close or by the
// server going away.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// UID returns the server-assigned identity, empty until the uid reply
// arrives.
func (c *Client) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

// Name returns the confirmed display name.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Room returns the confirmed room name, empty while not in a room.
func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// Tag returns the display name if confirmed, otherwise the identity.
func (c *Client) Tag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.name != "" {
		return c.name
	}
	return c.uid
}

func (c *Client) readLoop() {
	defer close(c.done)

	var dec protocol.Decoder
	buf := make([]byte, readChunkSize)

	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) && !c.isClosed() {
				c.logger.Printf("read error: %v", err)
			}
			return
		}

		msgs, err := dec.Feed(buf[:n])
		for {
			for _, msg := range msgs {
				c.dispatch(msg)
			}

			var fe *protocol.FramingError
			if !errors.As(err, &fe) {
				break
			}
			c.logger.Printf("framing error: %v", fe)

			msgs, err = dec.Feed(nil)
			if len(msgs) == 0 && err == nil {
				break
			}
		}
	}
}

// dispatch updates tracked state from lobby replies, then hands the payload
// to the registered handler.
func (c *Client) dispatch(msg protocol.Message) {
	switch msg.Command {
	case dukelink.CmdUID:
		c.mu.Lock()
		c.uid = msg.Payload
		c.mu.Unlock()
	case dukelink.CmdName:
		c.mu.Lock()
		c.name = msg.Payload
		c.mu.Unlock()
	case dukelink.CmdRoom:
		c.mu.Lock()
		c.room = msg.Payload
		c.mu.Unlock()
	}

	if h, ok := c.handlers[msg.Command]; ok {
		h(msg.Payload)
		return
	}
	c.logger.Printf("unhandled message: %s:%s", msg.Command, msg.Payload)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
