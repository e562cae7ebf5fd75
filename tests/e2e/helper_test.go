package e2e_test

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"dukelink/internal/protocol"
	"dukelink/relay"
)

// startRelay boots a relay on an ephemeral port and returns its address.
func startRelay(t *testing.T) string {
	t.Helper()

	cfg := relay.NewConfig("127.0.0.1:0", relay.NoRateLimit(), nil, nil)
	cfg.Logger = log.New(io.Discard, "", 0)
	srv := relay.New(cfg)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("failed to start relay: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(stopCtx)
	})

	return srv.Addr().String()
}

// peer is a raw-socket test client speaking the frame protocol directly.
type peer struct {
	t    *testing.T
	conn net.Conn
	dec  protocol.Decoder
	msgs []protocol.Message
	buf  []byte
}

func dialPeer(t *testing.T, addr string) *peer {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &peer{t: t, conn: conn, buf: make([]byte, 1024)}
}

func (p *peer) send(command, payload string) {
	p.t.Helper()

	data, err := protocol.Encode(command, payload)
	if err != nil {
		p.t.Fatalf("failed to encode: %v", err)
	}
	if _, err := p.conn.Write(data); err != nil {
		p.t.Fatalf("failed to send: %v", err)
	}
}

// sendRaw writes bytes without framing, for malformed-input tests.
func (p *peer) sendRaw(data string) {
	p.t.Helper()
	if _, err := p.conn.Write([]byte(data)); err != nil {
		p.t.Fatalf("failed to send: %v", err)
	}
}

// expect reads frames until the next message arrives and asserts its command.
func (p *peer) expect(command string) protocol.Message {
	p.t.Helper()

	msg, ok := p.next(5 * time.Second)
	if !ok {
		p.t.Fatalf("timed out waiting for %q", command)
	}
	if msg.Command != command {
		p.t.Fatalf("got %s:%s, want command %q", msg.Command, msg.Payload, command)
	}
	return msg
}

// expectNone asserts that nothing arrives within the window.
func (p *peer) expectNone(window time.Duration) {
	p.t.Helper()

	if msg, ok := p.next(window); ok {
		p.t.Fatalf("unexpected message %s:%s", msg.Command, msg.Payload)
	}
}

func (p *peer) next(timeout time.Duration) (protocol.Message, bool) {
	p.t.Helper()

	deadline := time.Now().Add(timeout)
	for len(p.msgs) == 0 {
		if time.Now().After(deadline) {
			return protocol.Message{}, false
		}
		p.conn.SetReadDeadline(deadline)
		n, err := p.conn.Read(p.buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return protocol.Message{}, false
			}
			p.t.Fatalf("failed to read: %v", err)
		}
		msgs, err := p.dec.Feed(p.buf[:n])
		if err != nil {
			p.t.Fatalf("failed to decode: %v", err)
		}
		p.msgs = append(p.msgs, msgs...)
	}

	msg := p.msgs[0]
	p.msgs = p.msgs[1:]
	return msg, true
}
