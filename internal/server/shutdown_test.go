package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"campaign-dashboard/internal/config"
)

func TestGracefulServer_Run(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), config.ServerConfig{ShutdownTimeout: 5 * time.Second})

	var ran atomic.Int32
	for range 3 {
		gs.RegisterShutdownHook(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if ran.Load() != 3 {
		t.Errorf("ran %d hooks, want 3", ran.Load())
	}
}

func TestGracefulServer_HookErrors(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), config.ServerConfig{ShutdownTimeout: 5 * time.Second})

	errClose := errors.New("close failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error { return errClose })
	gs.RegisterShutdownHook(func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gs.Run(ctx); !errors.Is(err, errClose) {
		t.Errorf("Run() error = %v, want %v", err, errClose)
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	httpServer := &http.Server{Addr: "256.0.0.1:-1"}
	gs := NewGracefulServer(httpServer, testLogger(), config.ServerConfig{ShutdownTimeout: time.Second})

	if err := gs.Run(context.Background()); err == nil {
		t.Error("Run() should fail for an invalid address")
	}
}
