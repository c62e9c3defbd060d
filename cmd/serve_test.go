package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vqt123/construction-cost-estimator/internal/model"
	"github.com/vqt123/construction-cost-estimator/internal/pipeline"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *mockLLM) Generate(ctx context.Context, prompt, model string) (string, error) {
	args := m.Called(ctx, prompt, model)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) TopSimilar(ctx context.Context, queryVec []float32, limit int) ([]model.ScoredDocument, error) {
	args := m.Called(ctx, queryVec, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredDocument), args.Error(1)
}

func (m *mockStore) ListMissingEmbeddings(ctx context.Context) ([]model.CostDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CostDocument), args.Error(1)
}

func (m *mockStore) SetEmbedding(ctx context.Context, docID int64, embedding []float32) error {
	args := m.Called(ctx, docID, embedding)
	return args.Error(0)
}

func (m *mockStore) FindRegion(ctx context.Context, query string) (*model.Region, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Region), args.Error(1)
}

func (m *mockStore) FindProjectType(ctx context.Context, query string) (*model.ProjectType, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProjectType), args.Error(1)
}

func (m *mockStore) CostItemsByProjectType(ctx context.Context, projectTypeID int64) ([]model.CostItem, error) {
	args := m.Called(ctx, projectTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CostItem), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestRouter(st *mockStore, llm *mockLLM) http.Handler {
	est := pipeline.NewEstimator(st, llm, pipeline.Config{})
	return newRouter(est, st, llm)
}

func TestHandleEstimate_MissingQuery(t *testing.T) {
	t.Parallel()

	router := newTestRouter(new(mockStore), new(mockLLM))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{"query": "  "}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Query is required", resp.Error)
}

func TestHandleEstimate_InvalidBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(new(mockStore), new(mockLLM))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{not json`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEstimate_UpstreamFailure(t *testing.T) {
	t.Parallel()

	llm := new(mockLLM)
	llm.On("Embed", mock.Anything, mock.Anything).Return(nil, eris.New("connection refused"))
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", eris.New("connection refused")).Maybe()

	router := newTestRouter(new(mockStore), llm)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{"query": "epoxy floor"}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate estimate", resp.Error)
	assert.NotEmpty(t, resp.Details)
}

func TestHandleEstimate_Success(t *testing.T) {
	t.Parallel()

	vec := []float32{0.1}

	llm := new(mockLLM)
	llm.On("Embed", mock.Anything, mock.Anything).Return(vec, nil)
	llm.On("Generate", mock.Anything, mock.Anything, "").
		Return(`{"projectType": "epoxy flooring", "area": 600, "location": "21093"}`, nil).Once()
	llm.On("Generate", mock.Anything, mock.Anything, "").Return("a narrative", nil).Once()

	st := new(mockStore)
	st.On("TopSimilar", mock.Anything, vec, 5).Return([]model.ScoredDocument{}, nil)
	st.On("FindRegion", mock.Anything, "21093").
		Return(&model.Region{ID: 1, Name: "Baltimore Metro", CostMultiplier: 1.15}, nil)
	st.On("FindProjectType", mock.Anything, "epoxy flooring").
		Return(&model.ProjectType{ID: 2, Name: "Epoxy Flooring"}, nil)
	st.On("CostItemsByProjectType", mock.Anything, int64(2)).Return([]model.CostItem{
		{Name: "Epoxy Coating", Unit: "sq ft", BaseCost: 4.50},
	}, nil)

	router := newTestRouter(st, llm)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{"query": "epoxy floor for 600 sq ft"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result model.EstimationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Epoxy Flooring", result.Estimate.ProjectType)
	assert.Equal(t, "a narrative", result.Explanation)
	assert.InDelta(t, 0.70, result.Confidence, 1e-9)
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	t.Parallel()

	llm := new(mockLLM)
	llm.On("Health", mock.Anything).Return(nil)

	st := new(mockStore)
	st.On("Ping", mock.Anything).Return(nil)

	router := newTestRouter(st, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["database"].Status)
	assert.Equal(t, "healthy", resp.Services["ollama"].Status)
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	t.Parallel()

	llm := new(mockLLM)
	llm.On("Health", mock.Anything).Return(nil)

	st := new(mockStore)
	st.On("Ping", mock.Anything).Return(eris.New("connection lost"))

	router := newTestRouter(st, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy", resp.Services["database"].Status)
	assert.Contains(t, resp.Services["database"].Message, "connection lost")
	assert.Equal(t, "healthy", resp.Services["ollama"].Status)
}
