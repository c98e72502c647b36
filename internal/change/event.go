package change

import (
	"encoding/json"
	"errors"
	"fmt"

	"clinic_notify/internal/model"
)

const (
	TableNotifications = "notifications"
	TableAppointments  = "appointments"

	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
)

var ErrUnknownEvent = errors.New("unknown change event")

// Event is one of NotificationInserted, AppointmentInserted or
// AppointmentUpdated.
type Event interface {
	Table() string
	Type() string
}

type NotificationInserted struct {
	Row model.Notification
}

func (NotificationInserted) Table() string { return TableNotifications }
func (NotificationInserted) Type() string  { return TypeInsert }

type AppointmentInserted struct {
	Row model.Appointment
}

func (AppointmentInserted) Table() string { return TableAppointments }
func (AppointmentInserted) Type() string  { return TypeInsert }

type AppointmentUpdated struct {
	Old model.Appointment
	New model.Appointment
}

func (AppointmentUpdated) Table() string { return TableAppointments }
func (AppointmentUpdated) Type() string  { return TypeUpdate }

// Envelope is the broker representation of a row change.
type Envelope struct {
	Table string          `json:"table"`
	Type  string          `json:"type"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new"`
}

func Encode(ev Event) (Envelope, error) {
	env := Envelope{Table: ev.Table(), Type: ev.Type()}
	var err error
	switch e := ev.(type) {
	case NotificationInserted:
		env.New, err = json.Marshal(e.Row)
	case AppointmentInserted:
		env.New, err = json.Marshal(e.Row)
	case AppointmentUpdated:
		if env.Old, err = json.Marshal(e.Old); err != nil {
			return Envelope{}, fmt.Errorf("encode old row: %w", err)
		}
		env.New, err = json.Marshal(e.New)
	default:
		return Envelope{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("encode new row: %w", err)
	}
	return env, nil
}

// Decode validates an envelope and turns it into a typed event. Rows are
// decoded permissively: absent columns stay at their zero value, so an update
// without an old status still compares as a status change.
func Decode(env Envelope) (Event, error) {
	if len(env.New) == 0 {
		return nil, fmt.Errorf("%w: %s %s without new row", ErrUnknownEvent, env.Type, env.Table)
	}
	switch {
	case env.Table == TableNotifications && env.Type == TypeInsert:
		var row model.Notification
		if err := json.Unmarshal(env.New, &row); err != nil {
			return nil, fmt.Errorf("decode notification row: %w", err)
		}
		if row.ID == "" || row.UserID == "" {
			return nil, fmt.Errorf("%w: notification row missing id or user_id", ErrUnknownEvent)
		}
		return NotificationInserted{Row: row}, nil
	case env.Table == TableAppointments && env.Type == TypeInsert:
		var row model.Appointment
		if err := json.Unmarshal(env.New, &row); err != nil {
			return nil, fmt.Errorf("decode appointment row: %w", err)
		}
		if row.ID == "" {
			return nil, fmt.Errorf("%w: appointment row missing id", ErrUnknownEvent)
		}
		return AppointmentInserted{Row: row}, nil
	case env.Table == TableAppointments && env.Type == TypeUpdate:
		var newRow, oldRow model.Appointment
		if err := json.Unmarshal(env.New, &newRow); err != nil {
			return nil, fmt.Errorf("decode appointment row: %w", err)
		}
		if newRow.ID == "" {
			return nil, fmt.Errorf("%w: appointment row missing id", ErrUnknownEvent)
		}
		if len(env.Old) > 0 {
			if err := json.Unmarshal(env.Old, &oldRow); err != nil {
				return nil, fmt.Errorf("decode old appointment row: %w", err)
			}
		}
		return AppointmentUpdated{Old: oldRow, New: newRow}, nil
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownEvent, env.Type, env.Table)
	}
}
