package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/config"
	"clinic_notify/internal/http/controller"
	"clinic_notify/internal/http/middleware"
	"clinic_notify/internal/permissions"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, session *auth.Session, resolver *permissions.Resolver, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger, "/health", "/metrics"),
		middleware.ZapRecovery(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(200)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/session", handler.SignIn)
	router.GET("/session", handler.GetSession)
	router.DELETE("/session", handler.SignOut)

	authed := router.Group("/", middleware.RequireUser(session))
	authed.GET("/notifications", handler.ListNotifications)
	authed.POST("/notifications", handler.CreateNotification)
	authed.GET("/sse", handler.Stream)

	consumers := authed.Group("/consumers/:cid")
	consumers.GET("", handler.GetConsumer)
	consumers.POST("/notifications", handler.AddNotification)
	consumers.POST("/notifications/read-all", handler.MarkAllAsRead)
	consumers.POST("/notifications/:id/read", handler.MarkAsRead)
	consumers.DELETE("/notifications/:id", handler.RemoveNotification)

	appointments := authed.Group("/appointments")
	appointments.GET("/:id",
		middleware.RequireAnyPermission(resolver, logger, permissions.ManageAppointments, permissions.ViewDashboard),
		handler.GetAppointment,
	)
	manage := middleware.RequirePermission(resolver, logger, permissions.ManageAppointments)
	appointments.POST("", manage, handler.CreateAppointment)
	appointments.PATCH("/:id/status", manage, handler.UpdateAppointmentStatus)

	return router
}
