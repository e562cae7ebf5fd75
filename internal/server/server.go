package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dukelink"
	"dukelink/internal/protocol"
)

// OnConnectFn is a callback invoked when a new client connects, after the
// client is registered and before its read loop starts. Use it to send
// welcome messages or track connections. It runs synchronously during
// connection setup, so avoid long-running work.
type OnConnectFn = func(client dukelink.Client)

// OnClientDisconnectFn is invoked when a connected client disconnects. The
// boolean is true when the disconnect was initiated locally (server close),
// false for a peer close or socket error.
type OnClientDisconnectFn = func(client dukelink.Client, voluntary bool)

// Config carries the relay server configuration.
type Config struct {
	// Addr is the TCP listen address, e.g. ":8888".
	Addr string
	// WSAddr optionally enables the WebSocket bridge on a second HTTP
	// listen address. Empty disables the bridge.
	WSAddr string

	RateLimitConfig    *RateLimitConfig
	OnConnect          OnConnectFn
	OnClientDisconnect OnClientDisconnectFn

	// Logger receives operational logging. Defaults to log.Default().
	Logger *log.Logger
}

// Server is the session relay. It owns the listeners, the registry, and the
// dispatch table.
type Server struct {
	addr   string
	wsAddr string

	listener   net.Listener
	httpServer *http.Server

	registry *Registry
	handlers map[string]HandlerFunc

	rateLimitConfig *RateLimitConfig

	mu       sync.Mutex
	running  bool
	upgrader websocket.Upgrader

	onConnect    OnConnectFn
	onDisconnect OnClientDisconnectFn
	logger       *log.Logger
}

var _ dukelink.RelayServer = (*Server)(nil)

// New creates a relay server. The dispatch table is populated here, before
// any connection can be accepted, and is read-only afterwards.
func New(cfg *Config) *Server {
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = DefaultRateLimitConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		addr:            cfg.Addr,
		wsAddr:          cfg.WSAddr,
		registry:        NewRegistry(logger),
		handlers:        defaultHandlers(logger),
		rateLimitConfig: cfg.RateLimitConfig,
		onConnect:       cfg.OnConnect,
		onDisconnect:    cfg.OnClientDisconnect,
		logger:          logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Registry exposes the session state for the operator console and tests.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Addr returns the bound TCP listen address, valid after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the TCP listener (and the WebSocket bridge when configured)
// and begins accepting connections. The server keeps running until Stop is
// called or the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(dukelink.ErrServerAlreadyRunning)
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.logger.Printf("listening on %s", listener.Addr())

	errChan := make(chan error, 1)
	go s.acceptLoop(ctx, listener, errChan)

	if s.wsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", s.handleWebSocket(ctx))
		s.httpServer = &http.Server{Addr: s.wsAddr, Handler: mux}

		go func() {
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
	}

	// Check for immediate startup errors with a small timeout
	select {
	case err := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		listener.Close()
		return err
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(stopCtx)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop gracefully stops the relay and closes all client connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.registry.closeAll(ctx)

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Broadcast sends a framed message to every connected client.
func (s *Server) Broadcast(ctx context.Context, command, payload string) error {
	s.registry.Broadcast(ctx, command, payload, nil)
	return nil
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener, errChan chan<- error) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !s.isRunning() || errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case errChan <- err:
			default:
			}
			s.logger.Printf("accept error: %v", err)
			continue
		}

		go s.handleSession(ctx, newTCPWire(conn))
	}
}

// handleWebSocket upgrades browser connections onto the same frame stream.
func (s *Server) handleWebSocket(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade connection", http.StatusBadRequest)
			return
		}

		go s.handleSession(ctx, newWSWire(conn))
	}
}

// handleSession owns one accepted connection end-to-end: it registers the
// identity, runs the blocking read loop, and on exit removes the identity
// from its room and the registry.
func (s *Server) handleSession(ctx context.Context, w wire) {
	client := NewClient(w, s.rateLimitConfig)
	s.registry.Register(client)

	defer func() {
		voluntary := client.Context().Err() == context.Canceled

		s.registry.Remove(client)
		if s.onDisconnect != nil {
			s.onDisconnect(client, voluntary)
		}
		client.Close(context.Background())
		s.logger.Printf("%s disconnected", client.Tag())
	}()

	if s.onConnect != nil {
		s.onConnect(client)
	}

	var dec protocol.Decoder
	for {
		select {
		case <-client.Context().Done():
			return
		default:
		}

		chunk, err := w.ReadChunk()
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) && client.IsAlive() {
				s.logger.Printf("read error from %s: %v", client.Tag(), err)
			}
			return
		}

		if !s.feed(ctx, client, &dec, chunk) {
			return
		}
	}
}

// feed pushes a chunk through the client's decoder and dispatches every
// decoded frame. Malformed fragments are logged and discarded without
// killing the connection. Returns false when the connection must close.
func (s *Server) feed(ctx context.Context, client *Client, dec *protocol.Decoder, chunk []byte) bool {
	msgs, err := dec.Feed(chunk)
	for {
		for _, msg := range msgs {
			if !client.CheckRateLimit() {
				s.logger.Printf("rate limit exceeded for client uid=%s remote_addr=%s", client.ID(), client.RemoteAddr())
				return false
			}
			s.dispatch(ctx, client, msg)
		}

		var fe *protocol.FramingError
		if !errors.As(err, &fe) {
			return true
		}
		s.logger.Printf("framing error from %s: %v", client.Tag(), fe)

		// Drain frames that arrived after the discarded fragment.
		msgs, err = dec.Feed(nil)
		if len(msgs) == 0 && err == nil {
			return true
		}
	}
}

// dispatch invokes the registered handler for one decoded message. A panic
// in a handler is contained here so a fault on one connection never takes
// down the dispatch loops of others.
func (s *Server) dispatch(ctx context.Context, client *Client, msg protocol.Message) {
	handler, ok := s.handlers[msg.Command]
	if !ok {
		s.logger.Printf("got command %s with data %s", msg.Command, msg.Payload)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("handler %s panicked for %s: %v", msg.Command, client.Tag(), r)
		}
	}()

	handler(ctx, s.registry, client, msg.Payload)
}
