package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinic_notify/internal/change"
	"clinic_notify/internal/config"
)

var errDeliveriesClosed = errors.New("rabbitmq deliveries closed")

// Transport opens one exclusive, auto-deleted queue per connection, bound to
// the user's notification inserts and to all appointment changes.
type Transport struct {
	url         string
	logger      *zap.Logger
	exchange    string
	prefix      string
	consumerTag string
}

func NewTransport(cfg *config.Config, logger *zap.Logger) *Transport {
	return &Transport{
		url:         cfg.RabbitMQURL,
		logger:      logger,
		exchange:    cfg.RabbitExchange,
		prefix:      cfg.RabbitPublishPrefix,
		consumerTag: cfg.RabbitConsumerTag,
	}
}

func (t *Transport) Connect(ctx context.Context, userID string, handler change.Handler) (change.Conn, error) {
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.connect")
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", t.exchange),
		attribute.String("messaging.destination_kind", "exchange"),
	)
	defer span.End()

	conn, err := amqp.DialConfig(t.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "channel failed")
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	deliveries, err := t.setup(ch, userID)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		return nil, err
	}

	sub := &subscription{
		conn:     conn,
		ch:       ch,
		handler:  handler,
		log:      t.logger.With(zap.String("user_id", userID)),
		exchange: t.exchange,
		stop:     make(chan struct{}),
	}
	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go sub.run(context.WithoutCancel(ctx), deliveries, closes)

	t.logger.Info("RabbitMQ change stream opened",
		zap.String("exchange", t.exchange),
		zap.String("user_id", userID),
	)
	return sub, nil
}

func (t *Transport) setup(ch *amqp.Channel, userID string) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}
	if err := declareExchange(ch, t.exchange); err != nil {
		return nil, err
	}
	queueInfo, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	for _, key := range bindingKeys(t.prefix, userID) {
		if err := ch.QueueBind(queueInfo.Name, key, t.exchange, false, nil); err != nil {
			return nil, fmt.Errorf("rabbitmq queue bind %s: %w", key, err)
		}
	}
	deliveries, err := ch.Consume(
		queueInfo.Name,
		t.consumerTag+"-"+userID,
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}
	return deliveries, nil
}

type subscription struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	handler  change.Handler
	log      *zap.Logger
	exchange string

	stop chan struct{}
	once sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { close(s.stop) })
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

func (s *subscription) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *subscription) run(ctx context.Context, deliveries <-chan amqp.Delivery, closes <-chan *amqp.Error) {
	s.reportStatus(change.StatusSubscribed, nil)
	for {
		select {
		case <-s.stop:
			return
		case amqpErr, ok := <-closes:
			if s.stopped() {
				return
			}
			if ok && amqpErr != nil {
				s.reportStatus(change.StatusError, amqpErr)
			} else {
				s.reportStatus(change.StatusClosed, nil)
			}
			return
		case msg, ok := <-deliveries:
			if s.stopped() {
				return
			}
			if !ok {
				s.reportStatus(change.StatusClosed, errDeliveriesClosed)
				return
			}
			if err := s.handleDelivery(ctx, msg); err != nil {
				s.log.Error("rabbitmq ack failed", zap.Error(err))
			}
		}
	}
}

func (s *subscription) reportStatus(status change.Status, err error) {
	if s.handler.OnStatus != nil {
		s.handler.OnStatus(status, err)
	}
}

// handleDelivery acks every message: change events are transient and a
// payload that cannot be decoded now never will be.
func (s *subscription) handleDelivery(ctx context.Context, msg amqp.Delivery) error {
	ctx = deliveryContext(ctx, msg.Headers)
	_, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.handle_change", trace.WithSpanKind(trace.SpanKindConsumer))
	headers := headerCarrier(msg.Headers)
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", s.exchange),
		attribute.String("messaging.destination_kind", "exchange"),
		attribute.String("messaging.rabbitmq.routing_key", msg.RoutingKey),
		attribute.String("clinic.change.table", headers.Get(headerChangeTable)),
		attribute.String("clinic.change.type", headers.Get(headerChangeType)),
	)
	defer span.End()

	var env change.Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		s.log.Error("rabbitmq invalid change payload", zap.Error(err))
		return msg.Ack(false)
	}
	ev, err := change.Decode(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid change event")
		s.log.Warn("rabbitmq unusable change event",
			zap.String("table", env.Table),
			zap.String("type", env.Type),
			zap.Error(err),
		)
		return msg.Ack(false)
	}
	if s.handler.OnEvent != nil {
		s.handler.OnEvent(ev)
	}
	return msg.Ack(false)
}
