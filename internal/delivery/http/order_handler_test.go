package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nija-backend/internal/domain"
	"nija-backend/internal/repository"
	"nija-backend/internal/usecase"
)

func newTestOrderHandler(t *testing.T, cfg usecase.GateConfig) *OrderHandler {
	t.Helper()
	dir := t.TempDir()
	gate := usecase.NewSafeOrderGate(cfg,
		&failingBroker{t: t},
		repository.NewFileApprovalStore(filepath.Join(dir, "approvals.json")),
		repository.NewAuditLog(filepath.Join(dir, "audit.log")),
	)
	return NewOrderHandler(gate)
}

func dryRunConfig() usecase.GateConfig {
	return usecase.GateConfig{
		Mode:               domain.ModeDryRun,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 2,
	}
}

func postJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSubmitOrderEndpoint(t *testing.T) {
	handler := newTestOrderHandler(t, dryRunConfig())

	rec := postJSON(handler.SubmitOrder, "/api/orders", `{"symbol":"BTC-USD","side":"BUY","sizeUsd":50}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.StatusDryRun, result.Status)
	assert.Equal(t, domain.ModeDryRun, result.Mode)
}

func TestSubmitOrderEndpointValidation(t *testing.T) {
	handler := newTestOrderHandler(t, dryRunConfig())

	rec := postJSON(handler.SubmitOrder, "/api/orders", `{"symbol":"","sizeUsd":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(handler.SubmitOrder, "/api/orders", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrderEndpointSizeLimit(t *testing.T) {
	handler := newTestOrderHandler(t, dryRunConfig())

	rec := postJSON(handler.SubmitOrder, "/api/orders", `{"symbol":"BTC-USD","sizeUsd":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestSubmitOrderEndpointRateLimit(t *testing.T) {
	handler := newTestOrderHandler(t, dryRunConfig())

	body := `{"symbol":"BTC-USD","sizeUsd":10}`
	for i := 0; i < 2; i++ {
		rec := postJSON(handler.SubmitOrder, "/api/orders", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(handler.SubmitOrder, "/api/orders", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limit_error")
}

func TestApprovalEndpoints(t *testing.T) {
	cfg := dryRunConfig()
	cfg.ManualApprovalCount = 1
	cfg.MaxOrdersPerMinute = 10
	handler := newTestOrderHandler(t, cfg)

	rec := postJSON(handler.SubmitOrder, "/api/orders", `{"symbol":"BTC-USD","sizeUsd":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.StatusPendingApproval)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/pending", nil)
	listRec := httptest.NewRecorder()
	handler.ListPending(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var pending []domain.PendingOrder
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &pending))
	assert.Len(t, pending, 1)

	rec = postJSON(handler.Approve, "/api/orders/approve", `{"count":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"approvedCount":1`)

	rec = postJSON(handler.Approve, "/api/orders/approve", `{"count":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(handler.ClearApprovals, "/api/orders/approvals/clear", ``)
	assert.Equal(t, http.StatusOK, rec.Code)
}
