package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/middleware"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/model"
	"clinic_notify/internal/service/notify"
)

func (h *Handler) consumer(c *gin.Context) (*notify.Consumer, bool) {
	user, _ := middleware.CurrentUser(c)
	consumer, err := h.svc.Consumer(user.ID, c.Param("cid"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "consumer not found"})
		return nil, false
	}
	return consumer, true
}

func (h *Handler) GetConsumer(c *gin.Context) {
	consumer, ok := h.consumer(c)
	if !ok {
		return
	}
	notifications := consumer.Notifications()
	if notifications == nil {
		notifications = []model.Notification{}
	}
	c.JSON(http.StatusOK, dto.ConsumerResponse{
		ConsumerID:    consumer.ID(),
		Loading:       consumer.Loading(),
		State:         consumer.State().String(),
		UnreadCount:   consumer.UnreadCount(),
		Notifications: notifications,
	})
}

func (h *Handler) AddNotification(c *gin.Context) {
	consumer, ok := h.consumer(c)
	if !ok {
		return
	}
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	created, err := consumer.AddNotification(c.Request.Context(), req.Title, req.Message, req.Type)
	if err != nil {
		h.writeFeedError(c, err, "failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	consumer, ok := h.consumer(c)
	if !ok {
		return
	}
	if err := consumer.MarkAsRead(c.Request.Context(), c.Param("id")); err != nil {
		h.writeFeedError(c, err, "failed to mark notification as read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	consumer, ok := h.consumer(c)
	if !ok {
		return
	}
	if err := consumer.MarkAllAsRead(c.Request.Context()); err != nil {
		h.writeFeedError(c, err, "failed to mark notifications as read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveNotification(c *gin.Context) {
	consumer, ok := h.consumer(c)
	if !ok {
		return
	}
	if err := consumer.RemoveNotification(c.Request.Context(), c.Param("id")); err != nil {
		h.writeFeedError(c, err, "failed to remove notification")
		return
	}
	c.Status(http.StatusNoContent)
}
