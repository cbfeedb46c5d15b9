package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Carries trace context through process environment variables (TRACEPARENT, TRACESTATE,
// BAGGAGE) so a command started by a traced scheduler joins the caller's trace.
// Values set on the carrier shadow the environment.
type EnvCarrier struct {
	vars   map[string]string
	lookup func(string) (string, bool)
}

// Ensure `EnvCarrier` implements [propagation.TextMapCarrier]
var _ propagation.TextMapCarrier = EnvCarrier{}

func NewEnvCarrier() EnvCarrier {
	return EnvCarrier{vars: make(map[string]string), lookup: os.LookupEnv}
}

func envKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func (c EnvCarrier) Get(key string) string {
	key = envKey(key)
	if v, ok := c.vars[key]; ok {
		return v
	}

	v, _ := c.lookup(key)
	return v
}

func (c EnvCarrier) Set(key string, value string) {
	c.vars[envKey(key)] = value
}

// Only reports the fields the configured propagator understands.
func (c EnvCarrier) Keys() []string {
	var keys []string
	for _, field := range otel.GetTextMapPropagator().Fields() {
		if c.Get(field) != "" {
			keys = append(keys, field)
		}
	}

	return keys
}

// Returns ctx carrying the span context found in the environment, if any.
func ContextFromEnv(ctx context.Context) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, NewEnvCarrier())
}
