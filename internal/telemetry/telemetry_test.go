package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

func TestInit_WithoutCollector(t *testing.T) {
	p, err := Init(context.Background(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.Nil(t, p.conn)
	assert.Same(t, p.Tracer, otel.GetTracerProvider())
	assert.Same(t, p.Meter, otel.GetMeterProvider())
	assert.Same(t, p.Logger, global.GetLoggerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestInit_WithCollector(t *testing.T) {
	// grpc.NewClient connects lazily, so no collector needs to be listening.
	p, err := Init(context.Background(), Options{Endpoint: "127.0.0.1:4317", ServiceName: "test"})
	require.NoError(t, err)

	assert.NotNil(t, p.conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Exports against a cancelled context fail; Shutdown still closes the connection.
	_ = p.Shutdown(ctx)
}
