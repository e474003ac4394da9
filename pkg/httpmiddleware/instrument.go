package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrument wraps the handler with otelhttp tracing plus a request counter
// on the service meter. Span and metric providers come from the telemetry
// bundle the runtime hands to the application.
func Instrument(serviceName string, m *app.Telemetry) Middleware {
	meter := m.MeterProvider().Meter(serviceName)
	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests received"),
	)

	return func(next http.Handler) http.Handler {
		counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err == nil {
				requests.Add(r.Context(), 1, metric.WithAttributes(
					attribute.String("http.request.method", r.Method),
				))
			}
			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				if id := RequestIDFromContext(r.Context()); id != "" {
					span.SetAttributes(attribute.String("request.id", id))
				}
			}
			next.ServeHTTP(w, r)
		})

		return otelhttp.NewHandler(counted, serviceName,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		)
	}
}
