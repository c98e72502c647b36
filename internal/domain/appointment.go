package domain

const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

var statusLabels = map[string]string{
	AppointmentStatusPending:   "Pending",
	AppointmentStatusConfirmed: "Confirmed",
	AppointmentStatusCompleted: "Completed",
	AppointmentStatusCancelled: "Cancelled",
}

// StatusLabel returns the display label for an appointment status. Unknown
// statuses are returned unchanged.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func IsKnownAppointmentStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

const (
	syntheticInsertPrefix = "appointment_"
	syntheticUpdatePrefix = "appointment_update_"
)

func SyntheticAppointmentID(appointmentID string) string {
	return syntheticInsertPrefix + appointmentID
}

func SyntheticAppointmentUpdateID(appointmentID string) string {
	return syntheticUpdatePrefix + appointmentID
}
