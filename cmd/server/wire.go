//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"clinic_notify/internal/app"
	"clinic_notify/internal/auth"
	"clinic_notify/internal/changefeed"
	"clinic_notify/internal/config"
	"clinic_notify/internal/dispatch"
	"clinic_notify/internal/http"
	"clinic_notify/internal/http/controller"
	"clinic_notify/internal/logging"
	"clinic_notify/internal/permissions"
	"clinic_notify/internal/realtime"
	"clinic_notify/internal/repository"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
	"clinic_notify/internal/store"
)

func InitializeApp() (*app.App, func(), error) {
	wire.Build(
		config.New,
		logging.New,
		store.NewStore,
		changefeed.NewBus,
		changefeed.ProvidePublisher,
		changefeed.ProvideTransport,
		store.NewCapture,
		wire.Bind(new(repository.NotificationRepository), new(*store.Capture)),
		wire.Bind(new(repository.AppointmentRepository), new(*store.Capture)),
		sse.NewHub,
		wire.Bind(new(dispatch.Toaster), new(*sse.Hub)),
		dispatch.NewRouter,
		wire.Bind(new(realtime.Router), new(*dispatch.Router)),
		realtime.NewManager,
		wire.Bind(new(notify.Realtime), new(*realtime.Manager)),
		notify.NewService,
		auth.NewSession,
		auth.NewTokenVerifier,
		permissions.NewResolver,
		controller.NewHandler,
		http.NewRouter,
		app.NewApp,
	)
	return &app.App{}, nil, nil
}
