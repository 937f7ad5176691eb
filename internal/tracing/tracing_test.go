package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "L*", MaskPII("Li"))
	assert.Equal(t, "A*a", MaskPII("Ana"))
	assert.Equal(t, "an***********om", MaskPII("ana@example.com"))
	assert.Equal(t, []string{"11*******21"}, MaskAll([]string{"11987654321"}))
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "an***********om", SafeAttributeValue("candidate.email", "ana@example.com", 50))
	assert.Equal(t, "short", SafeAttributeValue("file", "short", 50))
	assert.Equal(t, "ab...yz", SafeAttributeValue("file", "abcdefghijklmnopqrstuvwxyz", 7))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	RecordError(span, errors.New("boom"), ErrorTypeRedis)
	RecordError(span, nil, ErrorTypeRedis)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestInitProviderDisabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), ProviderOptions{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRecordHTTPError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "request")

	RecordHTTPError(span, errors.New("db down"), 500)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "http", attrs["error.type"])
	assert.Equal(t, "server_error", attrs["error.category"])
	assert.Equal(t, "500", attrs["http.status_code"])
}
