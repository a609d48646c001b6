package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-engine/internal/cache"
	"github.com/cardio-risk-engine/internal/domain"
	"github.com/cardio-risk-engine/internal/history"
	"github.com/cardio-risk-engine/internal/risk"
)

// memStore is an in-memory history.Store for handler tests.
type memStore struct {
	records map[string][]*history.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]*history.Record)}
}

func (m *memStore) Save(_ context.Context, record *history.Record) error {
	m.records[record.UserID] = append([]*history.Record{record}, m.records[record.UserID]...)
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]*history.Record, error) {
	all := m.records[userID]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memStore) CountByUser(_ context.Context, userID string) (int64, error) {
	return int64(len(m.records[userID])), nil
}

func (m *memStore) DeleteByUser(_ context.Context, userID string) error {
	delete(m.records, userID)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestServer(t *testing.T, store history.Store) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	engine, err := risk.NewEngine(risk.DefaultModelSet(), risk.DefaultCohortTable(), logger)
	require.NoError(t, err)

	assessmentCache, err := cache.New(domain.CacheConfig{
		Enabled:    true,
		DefaultTTL: time.Hour,
		LRUSize:    64,
	}, nil, logger)
	require.NoError(t, err)

	cfg := &domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 0},
		Logging: domain.LoggingConfig{Level: "error"},
	}

	return NewServer(cfg, engine, store, assessmentCache, nil, logger)
}

func patientBody() map[string]interface{} {
	return map[string]interface{}{
		"age": 45.0, "systolic_bp": 130.0, "diastolic_bp": 85.0,
		"total_cholesterol": 220.0, "ldl_cholesterol": 130.0, "hdl_cholesterol": 45.0,
		"triglycerides": 180.0, "resting_heart_rate": 72.0,
		"height_cm": 175.0, "weight_kg": 80.0,
		"sex": "male", "smoking": "current", "diabetes": "prediabetic",
		"population_group": "north-american",
	}
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := doJSON(t, s, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, risk.EngineVersion, body["version"])
}

func TestHandleModelInfo(t *testing.T) {
	s := newTestServer(t, nil)
	w := doJSON(t, s, http.MethodGet, "/api/v1/model-info", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var meta domain.AssessmentMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, risk.EngineVersion, meta.EngineVersion)
	assert.Len(t, meta.Models, 3)
}

func TestHandleAssess(t *testing.T) {
	s := newTestServer(t, nil)
	w := doJSON(t, s, http.MethodPost, "/api/v1/assess", patientBody(), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var assessment domain.RiskAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assessment))

	assert.NotEmpty(t, assessment.AssessmentID)
	assert.False(t, assessment.CreatedAt.IsZero())
	assert.Greater(t, assessment.RiskScore, 0.0)
	assert.LessOrEqual(t, assessment.RiskScore, 100.0)
	assert.True(t, assessment.Stratification.Category.IsValid())
	assert.NotEmpty(t, assessment.TopRiskFactors)
}

func TestHandleAssess_CacheGivesFreshEnvelope(t *testing.T) {
	s := newTestServer(t, nil)

	first := doJSON(t, s, http.MethodPost, "/api/v1/assess", patientBody(), nil)
	second := doJSON(t, s, http.MethodPost, "/api/v1/assess", patientBody(), nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b domain.RiskAssessment
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.Equal(t, a.RiskScore, b.RiskScore, "scoring is deterministic")
	assert.NotEqual(t, a.AssessmentID, b.AssessmentID, "each request gets its own envelope")
}

func TestHandleAssess_MalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrInvalidInput, apiErr.Code)
}

func TestHandleAssess_ValidationFailure(t *testing.T) {
	s := newTestServer(t, nil)
	body := patientBody()
	body["age"] = 150.0

	w := doJSON(t, s, http.MethodPost, "/api/v1/assess", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrValidation, apiErr.Code)
	assert.Contains(t, apiErr.Details, "age")
}

func TestHandleAssessBatch(t *testing.T) {
	s := newTestServer(t, nil)

	bad := patientBody()
	bad["systolic_bp"] = 500.0
	body := map[string]interface{}{
		"patients": []map[string]interface{}{patientBody(), bad},
	}

	w := doJSON(t, s, http.MethodPost, "/api/v1/assess/batch", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Count   int         `json:"count"`
		Results []batchItem `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	assert.NotNil(t, resp.Results[0].Assessment)
	assert.Nil(t, resp.Results[0].Error)
	assert.Nil(t, resp.Results[1].Assessment)
	require.NotNil(t, resp.Results[1].Error)
	assert.Equal(t, domain.ErrValidation, resp.Results[1].Error.Code)
}

func TestHandleAssessBatch_Empty(t *testing.T) {
	s := newTestServer(t, nil)
	w := doJSON(t, s, http.MethodPost, "/api/v1/assess/batch",
		map[string]interface{}{"patients": []map[string]interface{}{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHistory(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store)

	// Two assessments for the same user, the second with worse numbers.
	doJSON(t, s, http.MethodPost, "/api/v1/assess", patientBody(), map[string]string{"X-User-Id": "user-9"})
	worse := patientBody()
	worse["systolic_bp"] = 175.0
	worse["ldl_cholesterol"] = 210.0
	doJSON(t, s, http.MethodPost, "/api/v1/assess", worse, map[string]string{"X-User-Id": "user-9"})

	w := doJSON(t, s, http.MethodGet, "/api/v1/history/user-9", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		UserID  string        `json:"user_id"`
		Total   int64         `json:"total"`
		Count   int           `json:"count"`
		Results []historyItem `json:"results"`
		Trend   string        `json:"trend"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-9", resp.UserID)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Greater(t, resp.Results[0].RiskScore, resp.Results[1].RiskScore, "newest first")
	assert.NotEmpty(t, resp.Trend)
}

func TestHandleHistory_Disabled(t *testing.T) {
	s := newTestServer(t, nil)
	w := doJSON(t, s, http.MethodGet, "/api/v1/history/user-1", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleHistory_BadPagination(t *testing.T) {
	s := newTestServer(t, newMemStore())
	w := doJSON(t, s, http.MethodGet, "/api/v1/history/user-1?limit=999", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
