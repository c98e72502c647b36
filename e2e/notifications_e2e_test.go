package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinic_notify/internal/domain"
	"clinic_notify/internal/feed"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/model"
)

const frameTimeout = 2 * time.Second

func TestSSEFlow(t *testing.T) {
	s := startServer(t, defaultConfig())
	signIn(t, s, "u1", domain.RoleDentist)

	st := openStream(t, s)
	hello := decode[dto.ConsumerFrame](t, st.next(t, "consumer", frameTimeout))
	require.Equal(t, "u1", hello.UserID)
	require.NotEmpty(t, hello.ConsumerID)

	snapshot := decode[feed.Change](t, st.next(t, string(feed.ChangeSnapshot), frameTimeout))
	require.Empty(t, snapshot.Notifications)
	require.Zero(t, snapshot.UnreadCount)

	var created model.Notification
	status := doJSON(t, http.MethodPost, s.URL+"/notifications", dto.CreateNotificationRequest{
		Type: domain.NotificationTypeWarning, Title: "Low stock", Message: "Gloves are running out",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	frames := st.collect(t, frameTimeout, string(feed.ChangeAppended), "toast")
	appended := decode[feed.Change](t, frames[string(feed.ChangeAppended)])
	require.Equal(t, created.ID, frames[string(feed.ChangeAppended)].ID)
	require.Equal(t, "Low stock", appended.Notification.Title)
	require.Equal(t, 1, appended.UnreadCount)
	toast := decode[model.Toast](t, frames["toast"])
	require.Equal(t, model.Toast{Style: domain.NotificationTypeWarning, Title: "Low stock", Message: "Gloves are running out"}, toast)

	consumerURL := s.URL + "/consumers/" + hello.ConsumerID
	status = doJSON(t, http.MethodPost, consumerURL+"/notifications/"+created.ID+"/read", nil, nil)
	require.Equal(t, http.StatusNoContent, status)
	read := decode[feed.Change](t, st.next(t, string(feed.ChangeRead), frameTimeout))
	require.Equal(t, created.ID, read.ID)
	require.True(t, read.Notification.Read)
	require.Zero(t, read.UnreadCount)

	status = doJSON(t, http.MethodDelete, consumerURL+"/notifications/"+created.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, status)
	removed := st.next(t, string(feed.ChangeRemoved), frameTimeout)
	require.Equal(t, created.ID, removed.ID)

	var history []model.Notification
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, s.URL+"/notifications", nil, &history))
	require.Empty(t, history)
}

func TestAppointmentNotifications(t *testing.T) {
	s := startServer(t, defaultConfig())
	signIn(t, s, "u1", domain.RoleAssistant)

	st := openStream(t, s)
	st.next(t, "consumer", frameTimeout)
	st.next(t, string(feed.ChangeSnapshot), frameTimeout)

	var appointment model.Appointment
	status := doJSON(t, http.MethodPost, s.URL+"/appointments", dto.CreateAppointmentRequest{
		PatientID: "p1", DentistID: "d1", Date: "2024-05-02", Time: "10:30", Duration: 30,
	}, &appointment)
	require.Equal(t, http.StatusCreated, status)

	frames := st.collect(t, frameTimeout, string(feed.ChangeAppended), "toast")
	inserted := decode[feed.Change](t, frames[string(feed.ChangeAppended)])
	require.Equal(t, domain.SyntheticAppointmentID(appointment.ID), inserted.ID)
	require.Equal(t, "New appointment", inserted.Notification.Title)
	require.Equal(t, "A new appointment was scheduled for 2024-05-02 at 10:30", inserted.Notification.Message)
	require.Equal(t, "New appointment", decode[model.Toast](t, frames["toast"]).Title)

	status = doJSON(t, http.MethodPatch, s.URL+"/appointments/"+appointment.ID+"/status",
		dto.UpdateAppointmentStatusRequest{Status: domain.AppointmentStatusConfirmed}, nil)
	require.Equal(t, http.StatusOK, status)

	frames = st.collect(t, frameTimeout, string(feed.ChangeAppended), "toast")
	updated := decode[feed.Change](t, frames[string(feed.ChangeAppended)])
	require.Equal(t, domain.SyntheticAppointmentUpdateID(appointment.ID), updated.ID)
	require.Equal(t, "Appointment status changed to: Confirmed", updated.Notification.Message)
	require.Equal(t, 2, updated.UnreadCount)

	// Synthetic notifications are never persisted.
	var history []model.Notification
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, s.URL+"/notifications", nil, &history))
	require.Empty(t, history)
}

func TestSignOutEndsStream(t *testing.T) {
	s := startServer(t, defaultConfig())
	signIn(t, s, "u1", domain.RoleAdmin)

	st := openStream(t, s)
	st.next(t, "consumer", frameTimeout)

	require.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, s.URL+"/session", nil, nil))
	st.waitClosed(t, frameTimeout)
	require.Zero(t, s.svc.Consumers())

	resp, err := http.Get(s.URL + "/sse")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSwitchingUserEndsPreviousStream(t *testing.T) {
	s := startServer(t, defaultConfig())
	signIn(t, s, "u1", domain.RoleDentist)

	first := openStream(t, s)
	first.next(t, "consumer", frameTimeout)

	signIn(t, s, "u2", domain.RoleDentist)
	first.waitClosed(t, frameTimeout)

	second := openStream(t, s)
	hello := decode[dto.ConsumerFrame](t, second.next(t, "consumer", frameTimeout))
	require.Equal(t, "u2", hello.UserID)
}
