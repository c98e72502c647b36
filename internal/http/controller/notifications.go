package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/domain"
	"clinic_notify/internal/feed"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/middleware"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/model"
)

const invalidTypeMessage = "type must be one of: info, success, warning, error"

// ListNotifications returns the signed-in user's history, newest first. The
// limit query parameter may lower the configured history size but not raise
// it.
func (h *Handler) ListNotifications(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	limit := h.cfg.HistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > h.cfg.HistoryLimit {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    resp.CodeBadRequest,
				Message: fmt.Sprintf("limit must be between 1 and %d", h.cfg.HistoryLimit),
			})
			return
		}
		limit = n
	}
	history, err := h.svc.ListHistory(c.Request.Context(), user.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to load notifications"})
		return
	}
	if history == nil {
		history = []model.Notification{}
	}
	c.JSON(http.StatusOK, history)
}

// CreateNotification persists a notification for the signed-in user. Open
// streams pick it up from the change stream.
func (h *Handler) CreateNotification(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	if req.Type == "" || req.Title == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "type, title, message are required"})
		return
	}
	created, err := h.svc.Create(c.Request.Context(), model.Notification{
		UserID:  user.ID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		h.writeFeedError(c, err, "failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) writeFeedError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrInvalidNotificationType):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: invalidTypeMessage})
	case errors.Is(err, feed.ErrInvalidNotification):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: err.Error()})
	case errors.Is(err, feed.ErrDetached):
		c.JSON(http.StatusGone, dto.ErrorResponse{Code: resp.CodeGone, Message: "consumer detached"})
	default:
		h.log.Error("notification request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: message})
	}
}
