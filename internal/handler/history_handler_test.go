package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

type fakeHistorySrv struct {
	lastFilter models.HistoryFilter
	statsHit   bool
	resetReq   dto.ResetHistoryRequest
}

func (f *fakeHistorySrv) ListSubstitutions(_ context.Context, filter models.HistoryFilter) ([]models.CommittedSubstitution, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.CommittedSubstitution{{Date: "2025-03-03", Teacher: "E", Hours: 1}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (f *fakeHistorySrv) ListAbsences(_ context.Context, filter models.HistoryFilter) ([]models.AbsenceRecord, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.AbsenceRecord{}, &models.Pagination{Page: 1, PageSize: 50}, nil
}

func (f *fakeHistorySrv) Statistics(context.Context) (*models.HistoryStatistics, bool, error) {
	return &models.HistoryStatistics{SubstitutionHours: []models.TeacherTotal{{Teacher: "E", Total: 2}}, AbsenceHours: []models.TeacherTotal{}}, f.statsHit, nil
}

func (f *fakeHistorySrv) DeleteDate(_ context.Context, date string) (*dto.DeleteHistoryDateResponse, error) {
	return &dto.DeleteHistoryDateResponse{Date: date, Removed: 3}, nil
}

func (f *fakeHistorySrv) Reset(_ context.Context, req dto.ResetHistoryRequest) error {
	f.resetReq = req
	if !req.Confirm {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "reset must be confirmed")
	}
	return nil
}

func TestHistoryHandlerListFilter(t *testing.T) {
	srv := &fakeHistorySrv{}
	h := NewHistoryHandler(srv)

	c, w := newTestContext(http.MethodGet, "/history/substitutions?teacher=E&from=2025-03-01&to=2025-03-31&page=2&limit=10", nil)
	h.ListSubstitutions(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.HistoryFilter{Teacher: "E", DateFrom: "2025-03-01", DateTo: "2025-03-31", Page: 2, PageSize: 10}, srv.lastFilter)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestHistoryHandlerStatisticsReportsCacheHit(t *testing.T) {
	h := NewHistoryHandler(&fakeHistorySrv{statsHit: true})

	c, w := newTestContext(http.MethodGet, "/history/statistics", nil)
	middleware.WithResponseMeta()(c)
	h.Statistics(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestHistoryHandlerDeleteDate(t *testing.T) {
	h := NewHistoryHandler(&fakeHistorySrv{})
	c, w := newTestContext(http.MethodDelete, "/history/dates/2025-03-03", nil)
	c.Params = gin.Params{{Key: "date", Value: "2025-03-03"}}
	h.DeleteDate(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.JSONEq(t, `{"date":"2025-03-03","removed":3}`, string(env.Data))
}

func TestHistoryHandlerReset(t *testing.T) {
	srv := &fakeHistorySrv{}
	h := NewHistoryHandler(srv)

	c, w := newTestContext(http.MethodPost, "/history/reset", []byte(`{"table":"storico"}`))
	h.Reset(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	c, w = newTestContext(http.MethodPost, "/history/reset", []byte(`{"table":"storico","confirm":true}`))
	h.Reset(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "storico", srv.resetReq.Table)
}
