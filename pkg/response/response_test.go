package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/middleware/requestid"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorCarriesRequestID(t *testing.T) {
	c, w := newContext()
	c.Set(requestid.ContextKey, "req-42")

	Error(c, appErrors.Clone(appErrors.ErrConflict, "draft is committed"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-42", body.RequestID)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestAttachmentQuotesFilename(t *testing.T) {
	c, w := newContext()
	Attachment(c, "orario classi.pdf", "application/pdf", []byte("%PDF"))

	assert.Equal(t, `attachment; filename="orario classi.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestAttachmentReader(t *testing.T) {
	c, w := newContext()
	AttachmentReader(c, "backup.xlsx", "application/octet-stream", 3, strings.NewReader("abc"))

	assert.Equal(t, `attachment; filename=backup.xlsx`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "abc", w.Body.String())
}
