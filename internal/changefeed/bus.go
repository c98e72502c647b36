// Package changefeed selects the change-stream backend: RabbitMQ when
// RABBITMQ_URL is configured, the in-process broker otherwise.
package changefeed

import (
	"go.uber.org/zap"

	"clinic_notify/internal/change"
	"clinic_notify/internal/changefeed/memory"
	"clinic_notify/internal/changefeed/rabbitmq"
	"clinic_notify/internal/config"
)

type Bus struct {
	change.Publisher
	change.Transport
	shutdown func()
}

func NewBus(cfg *config.Config, logger *zap.Logger) *Bus {
	if cfg.RabbitMQURL != "" {
		logger.Info("change stream on RabbitMQ", zap.String("exchange", cfg.RabbitExchange))
		return &Bus{
			Publisher: rabbitmq.NewPublisher(cfg, logger),
			Transport: rabbitmq.NewTransport(cfg, logger),
			shutdown:  func() {},
		}
	}
	logger.Info("change stream in process")
	broker := memory.NewBroker(logger)
	return &Bus{Publisher: broker, Transport: broker, shutdown: broker.Shutdown}
}

// Shutdown stops the in-process broker. RabbitMQ connections are owned by
// their subscribers and closed through them.
func (b *Bus) Shutdown() {
	b.shutdown()
}

func ProvidePublisher(b *Bus) change.Publisher {
	return b.Publisher
}

func ProvideTransport(b *Bus) change.Transport {
	return b.Transport
}
