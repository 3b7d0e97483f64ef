package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-substitute-api/pkg/config"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core), "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/health", "/boom", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestGinMiddlewareLogsErrorCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.POST("/history/reset", func(c *gin.Context) {
		response.Error(c, appErrors.Storage(errors.New("pq: connection refused"), "unable to reset history"))
	})
	router.POST("/drafts/:id/commit", func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "assignment conflicts"))
	})

	for _, path := range []string{"/history/reset", "/drafts/d1/commit"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	server := entries[0].ContextMap()
	require.Equal(t, "STORAGE_UNAVAILABLE", server["error_code"])
	require.Equal(t, "pq: connection refused", server["cause"])

	client := entries[1].ContextMap()
	require.Equal(t, "CONFLICT", client["error_code"])
	require.Equal(t, "/drafts/:id/commit", client["route"])
	_, hasCause := client["cause"]
	require.False(t, hasCause)
}

func TestNewFallsBackToInfo(t *testing.T) {
	cfg := &config.Config{Env: config.EnvProduction}
	cfg.Log.Level = "chatty"
	l, err := New(cfg)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
