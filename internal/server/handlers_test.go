// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"returns-insights/internal/agents/analytics"
	"returns-insights/internal/agents/classifier"
	"returns-insights/internal/agents/router"
	"returns-insights/internal/agents/slotfill"
	"returns-insights/internal/common/config"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
	"returns-insights/internal/report"
	"returns-insights/internal/session"
	"returns-insights/internal/storage"
)

type memStorage struct {
	records []models.ReturnRecord
}

func (m *memStorage) Insert(ctx context.Context, rec models.ReturnRecord) (string, error) {
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *memStorage) GetByID(ctx context.Context, id string) (models.ReturnRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.ReturnRecord{}, storage.ErrNotFound
}

func (m *memStorage) Query(ctx context.Context, f storage.RecordFilters) ([]models.ReturnRecord, error) {
	return m.records, nil
}

func (m *memStorage) Aggregate(ctx context.Context, windowDays int) (storage.Aggregate, error) {
	return storage.Aggregate{TotalCount: len(m.records), WindowDays: windowDays}, nil
}

func newTestServer(t *testing.T) (*Server, *memStorage, session.Store) {
	t.Helper()
	log := logger.NewZapAdapter(zap.NewNop())
	store := &memStorage{}
	sessions := session.NewMemoryStore()

	cl := classifier.New(config.ClassifierConfig{
		AmbiguityThreshold:  0.15,
		ContextBoost:        0.3,
		ShortAnswerMaxWords: 6,
	})
	machine := slotfill.New(sessions, store, config.SlotfillConfig{WarrantyWindowDays: 365}, log)
	renderer := report.NewRenderer(t.TempDir(), time.Hour, log)
	insights := analytics.New(store, renderer,
		config.AnalyticsConfig{DefaultWindowDays: 30, CountWindowDays: 1000},
		config.RetrievalConfig{TopK: 5, CorpusLimit: 1000}, log)
	rt := router.New(cl, machine, insights, sessions, nil, 50, log)

	srv := New(rt, sessions, renderer, nil, config.ServerConfig{Host: "127.0.0.1", Port: 0}, log)
	return srv, store, sessions
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestChatStartsReturnConversation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rr := postJSON(t, handler, "/api/chat", ChatRequest{SessionID: "sess-1", Message: "I want to return something"})

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.True(t, resp.Success)
	assert.True(t, resp.FollowUpNeeded)
	assert.Contains(t, resp.Message, "product")
}

func TestChatAssignsSessionID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := postJSON(t, srv.Handler(), "/api/chat", ChatRequest{Message: "Hello"})

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := postJSON(t, srv.Handler(), "/api/chat", ChatRequest{SessionID: "sess-1", Message: "   "})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	postJSON(t, handler, "/api/chat", ChatRequest{SessionID: "sess-1", Message: "Hello"})

	req := httptest.NewRequest(http.MethodGet, "/api/history/sess-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var payload struct {
		SessionID string        `json:"session_id"`
		History   []models.Turn `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.History, 2)
	assert.Equal(t, "user", payload.History[0].Role)
	assert.Equal(t, "Hello", payload.History[0].Message)
}

func TestHistoryUnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history/no-such-session", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClearDeletesSession(t *testing.T) {
	srv, _, sessions := newTestServer(t)
	handler := srv.Handler()

	postJSON(t, handler, "/api/chat", ChatRequest{SessionID: "sess-1", Message: "Hello"})

	rr := postJSON(t, handler, "/api/clear", map[string]string{"session_id": "sess-1"})
	require.Equal(t, http.StatusOK, rr.Code)

	_, err := sessions.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestReportDownload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	id, err := srv.reports.Render(storage.Aggregate{TotalCount: 1}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rr.Body.Len())
}

func TestReportDownloadUnknownID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/returns_report_00000000-0000-0000-0000-000000000000.xlsx", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsExposed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChatCompletesReturnAndPersists(t *testing.T) {
	srv, store, _ := newTestServer(t)
	handler := srv.Handler()

	postJSON(t, handler, "/api/chat", ChatRequest{SessionID: "sess-1", Message: "I want to return something"})
	rr := postJSON(t, handler, "/api/chat", ChatRequest{
		SessionID: "sess-1",
		Message:   "Camera bought online for $650, not working properly",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.FollowUpNeeded)

	require.Len(t, store.records, 1)
	assert.Equal(t, "Camera", store.records[0].ProductName)
	assert.Equal(t, "Online Store", store.records[0].PurchaseLocation)
	assert.Equal(t, 650.0, store.records[0].PurchasePrice)
}
