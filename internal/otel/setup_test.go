package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupOTelSDK(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		shutdown, err := SetupOTelSDK(t.Context(), Options{Enabled: false})
		require.NoError(t, err)
		require.NoError(t, shutdown(t.Context()))
	})

	t.Run("StdoutExporters", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := SetupOTelSDK(t.Context(), Options{
			Enabled:     true,
			ServiceName: "mentorapi-test",
			Writer:      &buf,
		})
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(context.Background(), "exported-span")
		span.End()

		require.NoError(t, shutdown(t.Context()))
		assert.Contains(t, buf.String(), "exported-span")
		assert.Contains(t, buf.String(), "mentorapi-test")

		// second shutdown is a no-op
		require.NoError(t, shutdown(t.Context()))
	})
}
