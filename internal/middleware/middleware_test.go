package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newProtectedRouter(audit AuditRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubValidator{
		"admin":   {UserID: "u-admin", Role: models.RoleAdmin},
		"teacher": {UserID: "u-teacher", Role: models.RoleTeacher},
	}
	router := gin.New()
	group := router.Group("", JWT(tokens))
	group.POST("/history/dates/:date", RequireRoles(models.RoleAdmin), Audit(audit, nil, models.AuditActionHistoryDelete, "history"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	group.POST("/fail", RequireRoles(models.RoleAdmin), Audit(audit, nil, "FAIL", "x"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	router := newProtectedRouter(&recordingAudit{})

	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "forged"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/history/dates/2025-03-03", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestRequireRolesForbidsTeacher(t *testing.T) {
	audit := &recordingAudit{}
	router := newProtectedRouter(audit)

	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "teacher"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher, got %d", rec.Code)
	}
	if len(audit.logs) != 0 {
		t.Fatalf("forbidden request must not be audited")
	}
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audit := &recordingAudit{}
	router := newProtectedRouter(audit)

	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "admin"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(audit.logs))
	}
	log := audit.logs[0]
	if log.Action != models.AuditActionHistoryDelete || log.UserID == nil || *log.UserID != "u-admin" {
		t.Fatalf("unexpected audit row: %+v", log)
	}
	if log.ResourceID == nil || *log.ResourceID != "2025-03-03" {
		t.Fatalf("expected date as resource id, got %v", log.ResourceID)
	}

	if rec := serve(router, http.MethodPost, "/fail", "admin"); rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(audit.logs) != 1 {
		t.Fatalf("failed request must not be audited")
	}
}

func TestAuditStoreFailureDoesNotChangeResponse(t *testing.T) {
	router := newProtectedRouter(&recordingAudit{err: errors.New("db down")})
	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "admin"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestResponseMetaCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	if ExtractMeta(c) != nil {
		t.Fatalf("expected no meta before anything is recorded")
	}
	SetCacheHit(c, true)
	meta := ExtractMeta(c)
	if meta["cache_hit"] != true {
		t.Fatalf("expected cache hit flag, got %v", meta)
	}
	if _, ok := meta["processing_time_ms"]; ok {
		t.Fatalf("processing time needs WithResponseMeta, got %v", meta)
	}
}

func TestResponseMetaStampsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/history/statistics", WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, false)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/statistics", nil))
	if !strings.Contains(rec.Body.String(), `"processing_time_ms"`) || !strings.Contains(rec.Body.String(), `"cache_hit":false`) {
		t.Fatalf("unexpected meta body %s", rec.Body.String())
	}
}

func TestJWTChallengesWithRealm(t *testing.T) {
	router := newProtectedRouter(&recordingAudit{})
	rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "")
	if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer ") {
		t.Fatalf("expected bearer challenge, got %q", got)
	}
	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03", "admin"); rec.Header().Get("WWW-Authenticate") != "" {
		t.Fatalf("authorised request must not be challenged")
	}
}

func TestAuditKeepsWriteMode(t *testing.T) {
	audit := &recordingAudit{}
	router := newProtectedRouter(audit)
	if rec := serve(router, http.MethodPost, "/history/dates/2025-03-03?mode=replace&page=2", "admin"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := string(audit.logs[0].NewValues)
	if !strings.Contains(body, `"mode":"replace"`) || strings.Contains(body, "page") {
		t.Fatalf("unexpected audit payload %s", body)
	}
}
