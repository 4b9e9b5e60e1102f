// Package middleware provides the gin middleware chain of the document API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig returns the otelgin middleware, or a pass-through when tracing is off.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher tags the current span with the request ID, the session and, once
// the handler chain has run, the acting user. Spans of 4xx/5xx responses get an
// error status. It must run inside the otelgin span.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if sessionID := c.GetHeader(HeaderSessionID); sessionID != "" && len(sessionID) <= 128 {
			span.SetAttributes(attribute.String("session_id", sessionID))
		}

		c.Next()

		if actor := GetActor(c); actor.ID != nil {
			span.SetAttributes(
				attribute.String("actor_id", actor.ID.String()),
				attribute.Bool("actor_admin", actor.Admin),
			)
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}
