package change

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinic_notify/internal/model"
)

func TestEncodeDecode(t *testing.T) {
	t.Run("appointment update keeps both rows", func(t *testing.T) {
		ev := AppointmentUpdated{
			Old: model.Appointment{ID: "a1", Status: "pending"},
			New: model.Appointment{ID: "a1", Status: "confirmed", UpdatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		}
		env, err := Encode(ev)
		require.NoError(t, err)
		require.Equal(t, TableAppointments, env.Table)
		require.Equal(t, TypeUpdate, env.Type)

		got, err := Decode(env)
		require.NoError(t, err)
		upd, ok := got.(AppointmentUpdated)
		require.True(t, ok)
		require.Equal(t, "pending", upd.Old.Status)
		require.Equal(t, "confirmed", upd.New.Status)
	})

	t.Run("notification insert", func(t *testing.T) {
		env, err := Encode(NotificationInserted{Row: model.Notification{ID: "n1", UserID: "u1", Type: "info"}})
		require.NoError(t, err)
		got, err := Decode(env)
		require.NoError(t, err)
		require.Equal(t, "n1", got.(NotificationInserted).Row.ID)
	})
}

func TestDecodeValidation(t *testing.T) {
	t.Run("unknown table", func(t *testing.T) {
		_, err := Decode(Envelope{Table: "patients", Type: TypeInsert, New: json.RawMessage(`{"id":"p1"}`)})
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("notification delete is not watched", func(t *testing.T) {
		_, err := Decode(Envelope{Table: TableNotifications, Type: "DELETE", New: json.RawMessage(`{"id":"n1"}`)})
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("missing new row", func(t *testing.T) {
		_, err := Decode(Envelope{Table: TableAppointments, Type: TypeInsert})
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("notification without owner", func(t *testing.T) {
		_, err := Decode(Envelope{Table: TableNotifications, Type: TypeInsert, New: json.RawMessage(`{"id":"n1"}`)})
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := Decode(Envelope{Table: TableAppointments, Type: TypeInsert, New: json.RawMessage(`{bad`)})
		require.Error(t, err)
	})

	t.Run("update without status or old row is tolerated", func(t *testing.T) {
		got, err := Decode(Envelope{Table: TableAppointments, Type: TypeUpdate, New: json.RawMessage(`{"id":"a1"}`)})
		require.NoError(t, err)
		upd := got.(AppointmentUpdated)
		require.Equal(t, "", upd.Old.Status)
		require.Equal(t, "", upd.New.Status)
	})
}

func TestWatches(t *testing.T) {
	require.True(t, Watches("u1", NotificationInserted{Row: model.Notification{UserID: "u1"}}))
	require.False(t, Watches("u2", NotificationInserted{Row: model.Notification{UserID: "u1"}}))
	require.True(t, Watches("u2", AppointmentInserted{Row: model.Appointment{ID: "a1"}}))
	require.True(t, Watches("u2", AppointmentUpdated{}))
}
