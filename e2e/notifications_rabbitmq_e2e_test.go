//go:build integration

package e2e

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"clinic_notify/internal/config"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/feed"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/model"
)

func TestRabbitMQChangeStream(t *testing.T) {
	cfg := defaultConfig()
	withRabbitMQ(t, context.Background(), cfg)

	s := startServer(t, cfg)
	signIn(t, s, "u1", domain.RoleDentist)

	st := openStream(t, s)
	st.next(t, "consumer", 5*time.Second)
	st.next(t, string(feed.ChangeSnapshot), 5*time.Second)

	var created model.Notification
	status := doJSON(t, http.MethodPost, s.URL+"/notifications", dto.CreateNotificationRequest{
		Type: domain.NotificationTypeInfo, Title: "hello", Message: "over the broker",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	appended := decode[feed.Change](t, st.next(t, string(feed.ChangeAppended), 5*time.Second))
	require.Equal(t, created.ID, appended.ID)
	require.Equal(t, "over the broker", appended.Notification.Message)

	var appointment model.Appointment
	status = doJSON(t, http.MethodPost, s.URL+"/appointments", dto.CreateAppointmentRequest{
		PatientID: "p1", DentistID: "d1", Date: "2024-05-02", Time: "10:30",
	}, &appointment)
	require.Equal(t, http.StatusCreated, status)

	frames := st.collect(t, 5*time.Second, string(feed.ChangeAppended), "toast")
	require.Equal(t, domain.SyntheticAppointmentID(appointment.ID), frames[string(feed.ChangeAppended)].ID)
	require.Equal(t, "New appointment", decode[model.Toast](t, frames["toast"]).Title)

	signIn(t, s, "u2", domain.RoleDentist)
	st.waitClosed(t, 5*time.Second)

	second := openStream(t, s)
	second.next(t, "consumer", 5*time.Second)
	second.next(t, string(feed.ChangeSnapshot), 5*time.Second)

	// u1's notification is published under u1's routing key, which u2's
	// queue does not bind.
	_, err := s.svc.Create(context.Background(), model.Notification{
		UserID: "u1", Type: domain.NotificationTypeInfo, Title: "not yours", Message: "hidden",
	})
	require.NoError(t, err)
	status = doJSON(t, http.MethodPost, s.URL+"/notifications", dto.CreateNotificationRequest{
		Type: domain.NotificationTypeInfo, Title: "yours", Message: "visible",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	appended = decode[feed.Change](t, second.next(t, string(feed.ChangeAppended), 5*time.Second))
	require.Equal(t, "yours", appended.Notification.Title)
}

// withRabbitMQ starts a broker container and points cfg's change bus at it.
func withRabbitMQ(t *testing.T, ctx context.Context, cfg *config.Config) {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.12-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "5672/tcp", "amqp")
	require.NoError(t, err)

	cfg.RabbitMQURL = strings.Replace(endpoint, "amqp://", "amqp://guest:guest@", 1) + "/"
	cfg.RabbitExchange = "clinic.changes"
	cfg.RabbitConsumerTag = "clinic-notify-e2e"
	cfg.RabbitPublishPrefix = "clinic"
}
