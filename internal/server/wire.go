package server

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// readChunkSize bounds a single read from a raw TCP connection.
	readChunkSize = 1024

	writeTimeout = 10 * time.Second
)

// wire abstracts the byte-stream transport a session runs over. The relay
// speaks the same text frames over raw TCP and over the WebSocket bridge.
type wire interface {
	// ReadChunk blocks until bytes arrive. It returns io.EOF on orderly
	// close. The returned slice is only valid until the next call.
	ReadChunk() ([]byte, error)

	// WriteFrame writes one or more already-encoded frames.
	WriteFrame(data []byte) error

	Close() error
	RemoteAddr() string
}

// tcpWire adapts a net.Conn.
type tcpWire struct {
	conn net.Conn
	buf  []byte
}

func newTCPWire(conn net.Conn) *tcpWire {
	return &tcpWire{conn: conn, buf: make([]byte, readChunkSize)}
}

func (w *tcpWire) ReadChunk() ([]byte, error) {
	n, err := w.conn.Read(w.buf)
	if err != nil {
		return nil, err
	}
	return w.buf[:n], nil
}

func (w *tcpWire) WriteFrame(data []byte) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := w.conn.Write(data)
	return err
}

func (w *tcpWire) Close() error {
	return w.conn.Close()
}

func (w *tcpWire) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}

// wsWire adapts a websocket connection. Each WebSocket text message carries
// one chunk of the frame stream, so browser clients use the identical codec.
type wsWire struct {
	conn *websocket.Conn
}

func newWSWire(conn *websocket.Conn) *wsWire {
	return &wsWire{conn: conn}
}

func (w *wsWire) ReadChunk() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (w *wsWire) WriteFrame(data []byte) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsWire) Close() error {
	return w.conn.Close()
}

func (w *wsWire) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}
