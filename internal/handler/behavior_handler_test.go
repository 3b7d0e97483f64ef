package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
)

type fakeBehaviorSrv struct {
	listReq   dto.BehaviorReportListRequest
	createdBy string
}

func (f *fakeBehaviorSrv) List(_ context.Context, req dto.BehaviorReportListRequest) ([]models.BehaviorReport, *models.Pagination, error) {
	f.listReq = req
	return []models.BehaviorReport{}, &models.Pagination{Page: 1, PageSize: 50}, nil
}

func (f *fakeBehaviorSrv) Create(_ context.Context, req dto.CreateBehaviorReportRequest, createdBy string) (*models.BehaviorReport, error) {
	f.createdBy = createdBy
	return &models.BehaviorReport{ID: "r1", StudentName: req.StudentName}, nil
}

func (f *fakeBehaviorSrv) Delete(context.Context, string) error { return nil }

func (f *fakeBehaviorSrv) Statistics(context.Context) (*models.BehaviorStatistics, error) {
	return &models.BehaviorStatistics{ByStudent: []models.BehaviorCount{}, BySubject: []models.BehaviorCount{}}, nil
}

func (f *fakeBehaviorSrv) ExportCSV(context.Context, dto.BehaviorReportListRequest) ([]byte, error) {
	return []byte("Nome,Materia,Criticità,Data,Docente,Note\n"), nil
}

func TestBehaviorHandlerListBindsQuery(t *testing.T) {
	srv := &fakeBehaviorSrv{}
	h := NewBehaviorHandler(srv)

	c, w := newTestContext(http.MethodGet, "/behavior-reports?student=Luca&criticality=Altro&criticality=Disturbo+in+classe&page=2", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Luca", srv.listReq.StudentName)
	assert.Equal(t, []string{"Altro", "Disturbo in classe"}, srv.listReq.Criticalities)
	assert.Equal(t, 2, srv.listReq.Page)
}

func TestBehaviorHandlerCreateRecordsActor(t *testing.T) {
	srv := &fakeBehaviorSrv{}
	h := NewBehaviorHandler(srv)

	body := mustJSON(t, dto.CreateBehaviorReportRequest{StudentName: "Luca", Subject: "Storia", Criticality: "Altro"})
	c, w := newTestContext(http.MethodPost, "/behavior-reports", body)
	asAdmin(c)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", srv.createdBy)
}

func TestBehaviorHandlerExport(t *testing.T) {
	h := NewBehaviorHandler(&fakeBehaviorSrv{})
	c, w := newTestContext(http.MethodGet, "/behavior-reports/export", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Criticità")
}
