package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/server"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/internal/workflow"
	"github.com/nhle/kaneo-automation/tests/testutil"
)

func newLifecycleServer(t *testing.T, hub *server.Hub) *server.Server {
	t.Helper()
	logger := zap.NewNop()
	s := testutil.NewTestStore(t)

	cfg := model.DefaultAppConfig().Server
	cfg.Addr = "127.0.0.1:0"

	engine := workflow.NewEngine(s, s, nil, logger)
	return server.New(cfg, s, tasklink.NewService(s, logger), engine,
		func(string) (string, error) { return "", nil }, hub, logger)
}

func TestStopBeforeStartMakesStartReturn(t *testing.T) {
	srv := newLifecycleServer(t, server.NewHub(zap.NewNop()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Stop")
	}
}

func TestStopAfterStartReturnsNil(t *testing.T) {
	srv := newLifecycleServer(t, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// Give the listener a moment; Stop is correct whether or not it is up yet.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestClosedHubRejectsNewSubscribers(t *testing.T) {
	hub := server.NewHub(zap.NewNop())
	hub.Close()

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount())
}
