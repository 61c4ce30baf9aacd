package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), Settings{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracerProvider_RecordsSpans(t *testing.T) {
	ctx := context.Background()
	rec := tracetest.NewSpanRecorder()

	tp, err := NewTracerProvider(ctx, "voxelcore-test", trace.WithSpanProcessor(rec))
	require.NoError(t, err)
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer("storage").Start(ctx, "storage.Save")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "storage.Save", ended[0].Name())

	found := false
	for _, kv := range ended[0].Resource().Attributes() {
		if string(kv.Key) == "service.name" {
			found = true
			assert.Equal(t, "voxelcore-test", kv.Value.AsString())
		}
	}
	assert.True(t, found)
}
