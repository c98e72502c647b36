//go:build integration

package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"clinic_notify/internal/config"
)

// startBroker runs a throwaway RabbitMQ and returns a config pointing the
// transport and publisher at it. The container is removed when t ends.
func startBroker(t *testing.T, ctx context.Context) *config.Config {
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

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.Config{
		RabbitMQURL:         "amqp://guest:guest@" + host + ":" + port.Port() + "/",
		RabbitExchange:      "clinic.changes",
		RabbitConsumerTag:   "clinic-notify-it",
		RabbitPublishPrefix: "clinic",
	}
}
