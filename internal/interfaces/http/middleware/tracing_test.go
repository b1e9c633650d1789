package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/storefront/backend/internal/domain/identity"
)

func tracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(RequestID(), Tracing("storefront-test", true, otelgin.WithTracerProvider(tp)))
	return router, recorder
}

func TestTracing_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Tracing("storefront-test", false))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_RecordsSpanWithAttributes(t *testing.T) {
	router, recorder := tracedRouter(t)
	subject := uuid.New()
	router.GET("/api/v1/points",
		func(c *gin.Context) {
			attach(c, &identity.Session{ID: "s1", SubjectID: subject, Role: identity.RoleCustomer})
			c.Next()
		},
		TraceAttributes(),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/points", nil)
	req.Header.Set(RequestIDHeader, "trace-req-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "trace-req-1", attrs["request_id"])
	assert.Equal(t, subject.String(), attrs["user_id"])
	assert.Equal(t, "customer", attrs["user_role"])
}

func TestTracing_SkipsHealthProbes(t *testing.T) {
	router, recorder := tracedRouter(t)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, recorder.Ended())
}
