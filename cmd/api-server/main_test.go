package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/library-api/config"
)

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
}

func TestServe(t *testing.T) {
	t.Run("returns nil after graceful shutdown", func(t *testing.T) {
		cfg := testConfig()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := serve(ctx, newServer(cfg, http.NotFoundHandler()), cfg, zaptest.NewLogger(t))
		assert.NoError(t, err)
	})

	t.Run("reports listen failures", func(t *testing.T) {
		cfg := testConfig()
		srv := newServer(cfg, http.NotFoundHandler())
		srv.Addr = "127.0.0.1:99999"

		err := serve(context.Background(), srv, cfg, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server error")
	})
}

// Test helpers

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: time.Second,
		},
	}
}
