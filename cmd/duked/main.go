package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dukelink"
	"dukelink/relay"
)

func main() {
	addr := flag.String("addr", ":8888", "TCP listen address for the relay")
	wsAddr := flag.String("ws", "", "optional listen address for the WebSocket bridge (disabled when empty)")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg := relay.NewConfig(*addr, relay.DefaultRateLimitConfig(), nil, func(client dukelink.Client, voluntary bool) {
		logger.Printf("client %s left (voluntary=%v)", client.Tag(), voluntary)
	})
	cfg = relay.WithLogger(cfg, logger)
	if *wsAddr != "" {
		cfg = relay.WithWebSocketBridge(cfg, *wsAddr)
	}

	srv := relay.New(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		logger.Fatalf("failed to start relay: %v", err)
	}

	// The console owns its own goroutine and blocks only on operator input.
	consoleDone := make(chan error, 1)
	go func() {
		consoleDone <- relay.NewConsole(srv, os.Stdin, os.Stdout).Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-consoleDone:
		if err != nil {
			logger.Printf("console stopped with error: %v", err)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
}
