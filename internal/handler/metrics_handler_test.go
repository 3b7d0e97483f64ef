package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	h := NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy})
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok"}}`, w.Body.String())

	h = NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy, "redis": down})
	c, w = newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"dial tcp: connection refused"}}`, w.Body.String())
}

func TestMetricsHandlerSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 4*time.Millisecond)
	metrics.RecordProposals([]models.SubstitutionProposal{{RankTier: models.TierNone}})
	h := NewMetricsHandler(metrics, nil)

	c, w := newTestContext(http.MethodGet, "/metrics/summary", nil)
	h.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)
	var snapshot models.SystemMetrics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &snapshot))
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.ProposalsTotal)
	assert.Equal(t, uint64(1), snapshot.UncoveredTotal)
}

func TestMetricsHandlerPrometheusWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, _ := newTestContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}
