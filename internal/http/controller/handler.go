package controller

import (
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/config"
	"clinic_notify/internal/permissions"
	"clinic_notify/internal/repository"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
)

type Handler struct {
	cfg          *config.Config
	svc          *notify.Service
	hub          *sse.Hub
	session      *auth.Session
	verifier     *auth.TokenVerifier
	perms        *permissions.Resolver
	appointments repository.AppointmentRepository
	log          *zap.Logger
}

func NewHandler(
	cfg *config.Config,
	svc *notify.Service,
	hub *sse.Hub,
	session *auth.Session,
	verifier *auth.TokenVerifier,
	perms *permissions.Resolver,
	appointments repository.AppointmentRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:          cfg,
		svc:          svc,
		hub:          hub,
		session:      session,
		verifier:     verifier,
		perms:        perms,
		appointments: appointments,
		log:          logger,
	}
}
