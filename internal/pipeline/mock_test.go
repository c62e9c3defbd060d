package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// --- Ollama Mock ---

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

// --- Store Mock ---

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
