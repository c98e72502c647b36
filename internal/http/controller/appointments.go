package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_notify/internal/domain"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/http/middleware"
	"clinic_notify/internal/http/resp"
	"clinic_notify/internal/model"
	"clinic_notify/internal/repository"
)

const invalidStatusMessage = "status must be one of: pending, confirmed, completed, cancelled"

func (h *Handler) CreateAppointment(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	if req.PatientID == "" || req.DentistID == "" || req.Date == "" || req.Time == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "patient_id, dentist_id, appointment_date, appointment_time are required"})
		return
	}
	if req.Status == "" {
		req.Status = domain.AppointmentStatusPending
	}
	if !domain.IsKnownAppointmentStatus(req.Status) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: invalidStatusMessage})
		return
	}

	created, err := h.appointments.CreateAppointment(c.Request.Context(), model.Appointment{
		PatientID:     req.PatientID,
		DentistID:     req.DentistID,
		ProcedureType: req.ProcedureType,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      req.Duration,
		Status:        req.Status,
		Notes:         req.Notes,
		CreatedBy:     user.ID,
	})
	if err != nil {
		h.log.Error("create appointment failed", zap.String("patient_id", req.PatientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to create appointment"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id := c.Param("id")
	appointment, err := h.appointments.GetAppointment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "appointment not found"})
			return
		}
		h.log.Error("get appointment failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to load appointment"})
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	var req dto.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	if !domain.IsKnownAppointmentStatus(req.Status) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: invalidStatusMessage})
		return
	}

	id := c.Param("id")
	_, updated, err := h.appointments.UpdateAppointmentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "appointment not found"})
			return
		}
		h.log.Error("update appointment status failed", zap.String("id", id), zap.String("status", req.Status), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to update appointment"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
