package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/middleware"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/model"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
)

// Stream attaches a notification consumer for the signed-in user and relays
// its feed changes and the user's toasts as server-sent events. The consumer
// is detached when the client goes away or the signed-in user changes.
func (h *Handler) Stream(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported", zap.String("user_id", user.ID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()
	consumer, err := h.svc.Attach(ctx, user.ID)
	if errors.Is(err, notify.ErrSuperseded) {
		h.log.Info("stream attach superseded", zap.String("user_id", user.ID))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Code: resp.CodeConflict, Message: "signed-in user changed"})
		return
	}
	if err != nil {
		h.log.Error("attach consumer failed", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to attach"})
		return
	}
	defer consumer.Detach()

	client := &sse.Client{
		Room: user.ID,
		Ch:   make(chan sse.Message, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := writeFrame(c.Writer, frameConsumer, "", dto.ConsumerFrame{ConsumerID: consumer.ID(), UserID: user.ID}); err != nil {
		h.log.Error("write consumer frame failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.cfg.SSEHeartbeat)
	defer ticker.Stop()

	changes := consumer.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writeHeartbeat(c.Writer); err != nil {
				h.log.Error("heartbeat write failed", zap.String("user_id", user.ID), zap.Error(err))
				return
			}
			flusher.Flush()
		case change, ok := <-changes:
			if !ok {
				h.log.Info("stream closed by consumer detach", zap.String("user_id", user.ID), zap.String("consumer_id", consumer.ID()))
				return
			}
			if err := writeChange(c.Writer, change); err != nil {
				h.log.Error("write change failed", zap.String("user_id", user.ID), zap.Error(err))
				return
			}
			flusher.Flush()
		case msg := <-client.Ch:
			toast, ok := msg.Data.(model.Toast)
			if !ok {
				continue
			}
			if err := writeToast(c.Writer, toast); err != nil {
				h.log.Error("write toast failed", zap.String("user_id", user.ID), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
