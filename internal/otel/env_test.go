package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestEnvCarrier(t *testing.T) {
	otel.SetTextMapPropagator(newPropagator())

	t.Run("ImplementsInterface", func(*testing.T) {
		var _ propagation.TextMapCarrier = NewEnvCarrier()
	})

	t.Run("SetShadowsEnv", func(t *testing.T) {
		t.Setenv("TRACEPARENT", "from-env")

		c := NewEnvCarrier()
		assert.Equal(t, "from-env", c.Get("traceparent"))

		c.Set("traceparent", "from-carrier")
		assert.Equal(t, "from-carrier", c.Get("traceparent"))
	})

	t.Run("Keys", func(t *testing.T) {
		t.Setenv("TRACEPARENT", traceparent)

		assert.Equal(t, []string{"traceparent"}, NewEnvCarrier().Keys())
	})

	t.Run("ContextFromEnv", func(t *testing.T) {
		t.Setenv("TRACEPARENT", traceparent)

		sc := trace.SpanContextFromContext(ContextFromEnv(context.Background()))
		assert.True(t, sc.IsValid())
		assert.True(t, sc.IsRemote())
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
	})

	t.Run("ContextFromEmptyEnv", func(t *testing.T) {
		t.Setenv("TRACEPARENT", "")

		sc := trace.SpanContextFromContext(ContextFromEnv(context.Background()))
		assert.False(t, sc.IsValid())
	})
}
