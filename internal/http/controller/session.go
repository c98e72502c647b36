package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/resp"
)

func (h *Handler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}

	var user auth.User
	switch {
	case req.Token != "":
		verified, err := h.verifier.Verify(req.Token)
		if err != nil {
			h.log.Warn("token rejected", zap.Error(err))
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: err.Error()})
			return
		}
		user = verified
	case h.verifier.DevMode():
		user = auth.User{ID: req.UserID, Name: req.Name, Role: req.Role}
	default:
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "token required"})
		return
	}
	user.Role = h.perms.RoleFor(user.ID, user.Role)

	if err := h.session.SignIn(user); err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "user_id is required"})
		case errors.Is(err, domain.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "role must be one of: admin, dentist, assistant"})
		default:
			h.log.Error("sign in failed", zap.String("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "sign in failed"})
		}
		return
	}
	h.perms.Forget(user.ID)
	c.JSON(http.StatusOK, h.sessionResponse(user))
}

func (h *Handler) SignOut(c *gin.Context) {
	if user, err := h.session.Current(); err == nil {
		h.perms.Forget(user.ID)
	}
	h.session.SignOut()
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetSession(c *gin.Context) {
	user, err := h.session.Current()
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "sign in required"})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(user))
}

func (h *Handler) sessionResponse(user auth.User) dto.SessionResponse {
	granted := h.perms.Resolve(user.ID, user.Role).List()
	names := make([]string, 0, len(granted))
	for _, p := range granted {
		names = append(names, string(p))
	}
	return dto.SessionResponse{User: user, Permissions: names}
}
