package rabbitmq

import (
	"context"
	"fmt"
	"sort"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"

	"clinic_notify/internal/change"
)

// Change events carry their table and type as headers next to the W3C trace
// context, so consumers can label spans and logs before decoding the body.
const (
	headerChangeTable = "x-change-table"
	headerChangeType  = "x-change-type"
)

func publishHeaders(ctx context.Context, ev change.Event) amqp.Table {
	headers := amqp.Table{
		headerChangeTable: ev.Table(),
		headerChangeType:  ev.Type(),
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))
	return headers
}

// deliveryContext restores the producer's trace context from msg headers.
func deliveryContext(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(headers))
}

// headerCarrier adapts AMQP headers to the otel TextMapCarrier interface.
// Brokers and other clients may hand string values back as byte slices.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
