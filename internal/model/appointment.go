package model

import "time"

// Appointment carries the columns of the appointments table that the
// notification feed reads. Date and Time keep the clinic's display format
// (YYYY-MM-DD and HH:MM).
type Appointment struct {
	ID            string    `json:"id" db:"id"`
	PatientID     string    `json:"patient_id" db:"patient_id"`
	DentistID     string    `json:"dentist_id" db:"dentist_id"`
	ProcedureType string    `json:"procedure_type" db:"procedure_type"`
	Date          string    `json:"appointment_date" db:"appointment_date"`
	Time          string    `json:"appointment_time" db:"appointment_time"`
	Duration      int       `json:"duration" db:"duration"`
	Status        string    `json:"status" db:"status"`
	Notes         string    `json:"notes" db:"notes"`
	CreatedBy     string    `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
