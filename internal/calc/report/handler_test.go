package report

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Windcalc/internal/observability"
)

func newTestHandler() *Handler {
	return &Handler{
		Calculator: newCalculator(),
		Clock:      clockwork.NewFakeClockAt(generated),
		Metrics:    observability.NewMetricsForTesting(),
		Logger:     zap.NewNop(),
	}
}

func TestHandlerGenerate(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	body := `{"tab":"compare","mode":"auto","inputs":{"city":"Delhi","asce_V":"110","height":"18"}}`
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/wind/report", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="CivilDoctor_WindReport_2026-07-04-18-05-09.pdf"`,
		rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.Exports.WithLabelValues("pdf", "success")))
}

func TestHandlerGenerate_BadPayload(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/wind/report", strings.NewReader("[")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.Metrics.Exports.WithLabelValues("pdf", "success")))
}
