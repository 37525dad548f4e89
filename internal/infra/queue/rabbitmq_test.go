package mq

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roomforge/api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestDesignEvent_RoutingKey(t *testing.T) {
	tests := []struct {
		name     string
		event    DesignEvent
		expected string
	}{
		{name: "created", event: DesignEvent{Type: EventDesignCreated, Status: "PENDING"}, expected: "design.PENDING"},
		{name: "status change", event: DesignEvent{Type: EventDesignStatusChanged, Status: "COMPLETED"}, expected: "design.COMPLETED"},
		{name: "deleted", event: DesignEvent{Type: EventDesignDeleted, Status: "COMPLETED"}, expected: "design.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.RoutingKey())
		})
	}
}

func TestDesignEvent_JSON(t *testing.T) {
	id := uuid.New()
	b, err := sonic.Marshal(DesignEvent{
		Type:             EventDesignCreated,
		DesignID:         id,
		OwnerID:          "owner-1",
		Status:           "PENDING",
		GenerationNumber: 1,
		At:               time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(b, &decoded))
	assert.Equal(t, id.String(), decoded["design_id"])
	assert.Equal(t, float64(1), decoded["generation_number"])
	assert.NotContains(t, decoded, "parent_id")
	assert.NotContains(t, decoded, "output_count")
}

func TestTableCarrier(t *testing.T) {
	table := amqp.Table{"count": int32(3)}
	c := tableCarrier{table: table}

	c.Set("traceparent", "00-abc-def-01")

	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "3", c.Get("count"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "count"}, c.Keys())
}

func TestNewHeaders_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	headers := newHeaders(ctx)
	assert.Contains(t, headers, "traceparent")
}

func TestNewEventPublisher_NoURL(t *testing.T) {
	p, err := NewEventPublisher(config.RabbitMQCfg{Exchange: "x"}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.PublishDesignEvent(context.Background(), DesignEvent{}))
	assert.NoError(t, p.Close())
}

func TestPublisher_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		p    *Publisher
		want error
	}{
		{name: "closed", p: &Publisher{closed: true, log: zap.NewNop()}, want: ErrPublisherClosed},
		{name: "no channel", p: &Publisher{log: zap.NewNop()}, want: ErrNoChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.PublishDesignEvent(context.Background(), DesignEvent{DesignID: uuid.New(), Status: "PENDING"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
