package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/services"
)

type fakeSyncer struct {
	summary *services.SyncSummary
	err     error
	calls   int
}

func (f *fakeSyncer) Sync(ctx context.Context) (*services.SyncSummary, error) {
	f.calls++
	return f.summary, f.err
}

func newTestHandler(syncer Syncer) http.Handler {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewHandler(syncer, nil, nil, nil, nil, nil, logger).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestTriggerSyncReturnsSummary(t *testing.T) {
	syncer := &fakeSyncer{summary: &services.SyncSummary{RepairsPushed: 3, RepairsPulled: 2}}
	h := newTestHandler(syncer)

	rec := do(t, h, http.MethodPost, "/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, syncer.calls)
	assert.JSONEq(t,
		`{"repairs_pushed":3,"repairs_pulled":2,"repairs_refreshed":0,"payments_imported":0,"skipped":0,"failed":0}`,
		rec.Body.String())
}

func TestTriggerSyncConflictWhileRunning(t *testing.T) {
	h := newTestHandler(&fakeSyncer{err: common.ErrSyncInProgress})

	rec := do(t, h, http.MethodPost, "/sync", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerSyncBadGatewayOnAuthFailure(t *testing.T) {
	h := newTestHandler(&fakeSyncer{err: fmt.Errorf("%w: token exchange rejected", common.ErrAuth)})

	rec := do(t, h, http.MethodPost, "/sync", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateRepairRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	rec := do(t, h, http.MethodPost, "/repairs/", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRepairRejectsMissingFields(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	rec := do(t, h, http.MethodPost, "/repairs/", `{"car_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRepairStatusValidation(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown status", `{"status":"exploded"}`},
		{"slot below range", `{"status":"in_progress","slot_number":0}`},
		{"slot above range", `{"status":"in_progress","slot_number":3}`},
		{"missing status", `{"slot_number":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, "/repairs/abc/status", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreatePaymentRejectsMissingFields(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	rec := do(t, h, http.MethodPost, "/payments/", `{"amount":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInterventionRejectsNegativePrice(t *testing.T) {
	h := newTestHandler(&fakeSyncer{})

	rec := do(t, h, http.MethodPost, "/interventions/",
		`{"name":"Frein","price":-5,"duration":600}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
