package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holdem-broadcast/apps/overlay/internal/codec"
	"holdem-broadcast/apps/overlay/internal/config"
	"holdem-broadcast/apps/overlay/internal/gateway"
	"holdem-broadcast/apps/overlay/internal/session"
	"holdem-broadcast/apps/overlay/internal/transport"
	"holdem-broadcast/broadcast"
)

func main() {
	cfg, err := config.ParseConfig(flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:])
	if err != nil {
		log.Fatalf("[Overlay] Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := gateway.New(codec.Encoder{PhotoURL: cfg.PhotoURL})
	stream := transport.New(cfg.ServerURL, cfg.ReconnectMin, cfg.ReconnectMax)
	sess, err := session.New(stream, gw.Publish, session.Options{
		Display: broadcast.Config{LeaveHold: cfg.LeaveHold},
		Debug:   cfg.Debug,
	})
	if err != nil {
		log.Fatalf("[Overlay] Failed to init session: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("[Overlay] Session %s reading %s", sess.ID, cfg.ServerURL)
	sess.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Overlay] Serving overlay on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Overlay] Server error: %v", err)
		}
	}

	log.Printf("[Overlay] Shutting down")
	sess.Close()
	gw.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Overlay] Shutdown: %v", err)
	}
}
