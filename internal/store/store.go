package store

import (
	"context"

	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// Store defines the persistence interface for the estimation pipeline.
// Lookup methods return (nil, nil) on a catalog miss; resolution defaults
// are the caller's concern.
type Store interface {
	// Corpus
	TopSimilar(ctx context.Context, queryVec []float32, limit int) ([]model.ScoredDocument, error)
	ListMissingEmbeddings(ctx context.Context) ([]model.CostDocument, error)
	SetEmbedding(ctx context.Context, docID int64, embedding []float32) error

	// Catalog
	FindRegion(ctx context.Context, query string) (*model.Region, error)
	FindProjectType(ctx context.Context, query string) (*model.ProjectType, error)
	CostItemsByProjectType(ctx context.Context, projectTypeID int64) ([]model.CostItem, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
