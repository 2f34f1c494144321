package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/connections"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrHTTP = "127.0.0.1:0"
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"
	cfg.SecretKey = "k"
	cfg.ConnectTimeout = time.Second
	return cfg
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(), logging.Nop{})
	require.NoError(t, err)
	require.NotNil(t, app.health)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, connections.StateCold, app.conns.State())
}

func TestApp_WithoutGRPC(t *testing.T) {
	cfg := testConfig()
	cfg.EndpointAddrGRPC = ""

	app, err := NewApp(context.Background(), cfg, logging.Nop{})
	require.NoError(t, err)
	assert.Nil(t, app.health)
}

func TestApp_UnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(context.Background(), cfg, logging.Nop{})
	require.ErrorContains(t, err, "redis init error")
}
