package app

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/changefeed"
	"clinic_notify/internal/config"
	"clinic_notify/internal/dispatch"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/realtime"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
	"clinic_notify/internal/store"
	"clinic_notify/internal/store/memory"
)

type harness struct {
	app     *App
	hub     *sse.Hub
	svc     *notify.Service
	manager *realtime.Manager
	session *auth.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{HTTPAddr: "127.0.0.1:0", HistoryLimit: 10}

	hub := sse.NewHub()
	bus := changefeed.NewBus(cfg, logger)
	manager := realtime.NewManager(changefeed.ProvideTransport(bus), dispatch.NewRouter(hub, logger), logger)
	repo := store.NewCapture(memory.New(logger), changefeed.ProvidePublisher(bus), logger)
	svc := notify.NewService(repo, manager, cfg, logger)
	session := auth.NewSession(logger)

	a := NewApp(cfg, hub, bus, manager, svc, session, gin.New(), logger)
	return &harness{app: a, hub: hub, svc: svc, manager: manager, session: session}
}

func TestSessionChangesRescopeConsumers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.SignIn(auth.User{ID: "u1", Role: domain.RoleDentist}))
	consumer, err := h.svc.Attach(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, h.svc.Consumers())

	require.NoError(t, h.session.SignIn(auth.User{ID: "u2", Role: domain.RoleDentist}))
	require.Equal(t, 0, h.svc.Consumers())
	_, open := <-consumer.Changes()
	for open {
		_, open = <-consumer.Changes()
	}

	_, err = h.svc.Attach(ctx, "u2")
	require.NoError(t, err)
	h.session.SignOut()
	require.Equal(t, 0, h.svc.Consumers())
	require.Equal(t, realtime.Stats{}, h.manager.Stats())
}

func TestRunAndShutdown(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- h.app.Run(ctx) }()

	// Register returns once the hub loop started by Run is receiving.
	client := &sse.Client{Room: "u1", Ch: make(chan sse.Message, 1)}
	h.hub.Register(client)
	h.hub.Unregister(client)

	_, err := h.svc.Attach(ctx, "u1")
	require.NoError(t, err)

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, h.app.Shutdown(shutdownCtx))
	require.Equal(t, 0, h.svc.Consumers())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
