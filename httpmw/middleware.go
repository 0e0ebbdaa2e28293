// Package httpmw instruments HTTP handlers with the same unified telemetry
// template applied to wrapped operations, gated by the http-layer
// trace-decision rules.
package httpmw

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/autotel/rules"
	"github.com/jonwraymond/autotel/telemetry"
)

const (
	counterName   = "http.server.calls"
	histogramName = "http.server.duration_ms"
)

// Middleware returns a handler wrapper that traces requests allowed by the
// http-layer rules.
//
// Denied routes serve the request directly with no span, no metrics, and no
// log line. Allowed routes get one span named "METHOD /path", a call counter,
// a duration histogram, and a structured log line. The handler always runs;
// telemetry never alters the response.
func Middleware(tel *telemetry.Telemetry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tel.Tracer() == nil || !tel.ShouldTrace(httpCall(r)) {
				next.ServeHTTP(w, r)
				return
			}
			serveTraced(tel, next, w, r)
		})
	}
}

func httpCall(r *http.Request) rules.Call {
	return rules.Call{
		Layer: rules.LayerHTTP,
		Route: r.URL.Path,
	}
}

func serveTraced(tel *telemetry.Telemetry, next http.Handler, w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := tel.Tracer().StartSpan(r.Context(), r.Method+" "+r.URL.Path,
		attribute.String("http.request.method", r.Method),
		attribute.String("url.path", r.URL.Path),
	)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		durMs := float64(time.Since(start).Microseconds()) / 1e3
		outcome := "success"
		if rec.status >= 500 {
			outcome = "error"
		}

		span.SetAttributes(
			attribute.Int("http.response.status_code", rec.status),
			attribute.Float64("duration_ms", durMs),
		)
		tel.Tracer().EndSpan(span, nil)

		tags := []attribute.KeyValue{
			attribute.String("route", r.URL.Path),
			attribute.String("method", r.Method),
			attribute.String("status", strconv.Itoa(rec.status)),
			attribute.String("outcome", outcome),
		}
		tel.Metrics().IncrementCounter(ctx, counterName, 1, tags...)
		tel.Metrics().RecordHistogram(ctx, histogramName, durMs, tags...)

		fields := []telemetry.Field{
			{Key: "route", Value: r.URL.Path},
			{Key: "method", Value: r.Method},
			{Key: "status", Value: rec.status},
			{Key: "duration_ms", Value: durMs},
			{Key: "outcome", Value: outcome},
		}
		if outcome == "error" {
			tel.Logger().Error(ctx, "request failed", fields...)
		} else {
			tel.Logger().Info(ctx, "request completed", fields...)
		}
	}()

	next.ServeHTTP(rec, r.WithContext(ctx))
}

// statusRecorder captures the response status for metrics and span attributes.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}
