package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/changefeed"
	"clinic_notify/internal/config"
	"clinic_notify/internal/realtime"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
)

type App struct {
	cfg          *config.Config
	hub          *sse.Hub
	bus          *changefeed.Bus
	manager      *realtime.Manager
	svc          *notify.Service
	server       *http.Server
	logger       *zap.Logger
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewApp ties the signed-in user to the notification service: every session
// change re-scopes consumers and the realtime connection.
func NewApp(
	cfg *config.Config,
	hub *sse.Hub,
	bus *changefeed.Bus,
	manager *realtime.Manager,
	svc *notify.Service,
	session *auth.Session,
	router *gin.Engine,
	logger *zap.Logger,
) *App {
	session.OnChange(svc.UserChanged)
	return &App{
		cfg:     cfg,
		hub:     hub,
		bus:     bus,
		manager: manager,
		svc:     svc,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hub.Run(ctx)
	}()

	a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown detaches every consumer (which closes the realtime connection and
// ends open streams), stops the HTTP server and then the change bus. The
// store is closed by the injector's cleanup.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		a.logger.Info("graceful shutdown started")
		a.svc.DetachAll()
		a.manager.Reset()
		shutdownErr = a.server.Shutdown(ctx)
		a.bus.Shutdown()
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("graceful shutdown completed")
		return shutdownErr
	case <-ctx.Done():
		if shutdownErr != nil {
			return shutdownErr
		}
		return ctx.Err()
	}
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.cfg
}
