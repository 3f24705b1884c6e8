package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	valid, err := jm.GenerateToken(context.Background(), "user-1", "dev", []string{"user"}, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequireAuth(jm, zap.NewNop()))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserIDKey))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid_token", "Bearer " + valid, http.StatusOK, "user-1"},
		{"missing_header", "", http.StatusUnauthorized, ""},
		{"wrong_scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"empty_token", "Bearer   ", http.StatusUnauthorized, ""},
		{"invalid_token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestRequireAuth_HandlerSpansNestUnderAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)
	token, err := jm.GenerateToken(context.Background(), "user-1", "dev", nil, time.Hour)
	require.NoError(t, err)

	var seen trace.SpanContext
	router := gin.New()
	router.Use(RequireAuth(jm, zap.NewNop()))
	router.GET("/whoami", func(c *gin.Context) {
		seen = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var authSpan sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "auth.require_auth" {
			authSpan = s
		}
	}
	require.NotNil(t, authSpan)
	require.True(t, seen.IsValid())
	assert.Equal(t, authSpan.SpanContext().SpanID(), seen.SpanID())
	assert.Equal(t, authSpan.SpanContext().TraceID(), seen.TraceID())
}
