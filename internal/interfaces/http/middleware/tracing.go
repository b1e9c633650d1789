package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are probed too often to be worth a span
var untracedPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// Tracing starts a server span per request via otelgin. When disabled it is a
// pass-through.
func Tracing(serviceName string, enabled bool, opts ...otelgin.Option) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	opts = append([]otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool { return !untracedPaths[r.URL.Path] }),
	}, opts...)
	return otelgin.Middleware(serviceName, opts...)
}

// TraceAttributes tags the active span with the request id and, once auth has
// run, the session subject. Place it after the auth middleware of a group.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.GetString(RequestIDKey); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if s := GetSession(c); s != nil {
				span.SetAttributes(
					attribute.String("user_id", s.SubjectID.String()),
					attribute.String("user_role", string(s.Role)),
				)
			}
		}
		c.Next()
	}
}
