package dto

import (
	"clinic_notify/internal/auth"
	"clinic_notify/internal/model"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type CreateNotificationRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SignInRequest carries either a token or, in development mode, explicit
// user credentials.
type SignInRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type SessionResponse struct {
	User        auth.User `json:"user"`
	Permissions []string  `json:"permissions"`
}

type ConsumerFrame struct {
	ConsumerID string `json:"consumer_id"`
	UserID     string `json:"user_id"`
}

type ConsumerResponse struct {
	ConsumerID    string               `json:"consumer_id"`
	Loading       bool                 `json:"loading"`
	State         string               `json:"state"`
	UnreadCount   int                  `json:"unread_count"`
	Notifications []model.Notification `json:"notifications"`
}

type CreateAppointmentRequest struct {
	PatientID     string `json:"patient_id"`
	DentistID     string `json:"dentist_id"`
	ProcedureType string `json:"procedure_type"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
	Duration      int    `json:"duration"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}
