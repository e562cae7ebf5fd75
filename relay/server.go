package relay

import (
	"io"
	"log"

	"dukelink/internal/server"
)

type RateLimitConfig = server.RateLimitConfig
type OnConnectFn = server.OnConnectFn
type OnDisconnectFn = server.OnClientDisconnectFn
type ServerConfig = *server.Config

// Server is the concrete relay server. It satisfies dukelink.RelayServer.
type Server = server.Server

// Console is the operator admin loop bound to a Server.
type Console = server.Console

// New creates a relay server with rate limiting and connection callbacks.
//
// Example:
//
//	srv := relay.New(relay.NewConfig(":8888", relay.DefaultRateLimitConfig(), func(client dukelink.Client) {
//	    log.Printf("client connected: %s", client.ID())
//	}, nil))
func New(cfg ServerConfig) *Server {
	return server.New(cfg)
}

func NewConfig(addr string, rateLimitConfig *RateLimitConfig, onConnect OnConnectFn, onDisconnect OnDisconnectFn) ServerConfig {
	return &server.Config{
		Addr:               addr,
		RateLimitConfig:    rateLimitConfig,
		OnConnect:          onConnect,
		OnClientDisconnect: onDisconnect,
	}
}

// NewConsole wires an operator console to a running relay server.
func NewConsole(srv *Server, in io.Reader, out io.Writer) *Console {
	return server.NewConsole(srv, in, out)
}

// WithWebSocketBridge enables the WebSocket bridge listener on addr.
func WithWebSocketBridge(cfg ServerConfig, addr string) ServerConfig {
	cfg.WSAddr = addr
	return cfg
}

// WithLogger directs the relay's operational logging to logger.
func WithLogger(cfg ServerConfig, logger *log.Logger) ServerConfig {
	cfg.Logger = logger
	return cfg
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return server.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return server.NoRateLimit()
}
