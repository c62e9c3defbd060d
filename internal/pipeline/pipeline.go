// Package pipeline implements the retrieval-augmented cost estimation
// pipeline: query embedding, similarity retrieval, structured parameter
// extraction with fallback, catalog resolution, deterministic breakdown
// computation and explanation synthesis.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vqt123/construction-cost-estimator/internal/model"
	"github.com/vqt123/construction-cost-estimator/internal/store"
	"github.com/vqt123/construction-cost-estimator/pkg/ollama"
)

// defaultRetrievalLimit bounds similarity retrieval width.
const defaultRetrievalLimit = 5

// ErrMissingQuery indicates an empty estimation query (caller error).
var ErrMissingQuery = eris.New("query is required")

// Request is one estimation request. Location and ProjectType are optional
// hints that take precedence over extracted values.
type Request struct {
	Query       string `json:"query"`
	Location    string `json:"location,omitempty"`
	ProjectType string `json:"projectType,omitempty"`
}

// Config tunes the estimator.
type Config struct {
	RetrievalLimit int `yaml:"retrieval_limit" mapstructure:"retrieval_limit"`
}

// Estimator runs the estimation pipeline against a store and an Ollama
// client. Safe for concurrent use: all per-request state is local.
type Estimator struct {
	store          store.Store
	llm            ollama.Client
	retrievalLimit int
}

// NewEstimator creates an Estimator.
func NewEstimator(st store.Store, llm ollama.Client, cfg Config) *Estimator {
	limit := cfg.RetrievalLimit
	if limit <= 0 {
		limit = defaultRetrievalLimit
	}
	return &Estimator{store: st, llm: llm, retrievalLimit: limit}
}

// Estimate runs the full pipeline for one request. It returns either a
// complete result or an error, never a partial result. Embedding and
// retrieval run concurrently with extraction; gateway failures in embedding
// or explanation are fatal to the request, while extraction failures are
// absorbed into defaults.
func (e *Estimator) Estimate(ctx context.Context, req Request) (*model.EstimationResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrMissingQuery
	}

	start := time.Now()
	log := zap.L().With(zap.String("component", "pipeline.estimator"))

	var (
		docs    []model.ScoredDocument
		details model.ProjectDetails
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := e.llm.Embed(gctx, req.Query)
		if err != nil {
			return eris.Wrap(err, "estimate: embed query")
		}
		docs, err = e.store.TopSimilar(gctx, vec, e.retrievalLimit)
		if err != nil {
			return eris.Wrap(err, "estimate: retrieve documents")
		}
		return nil
	})
	g.Go(func() error {
		details = e.extractDetails(gctx, req.Query, req.ProjectType)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	retrieved := time.Since(start)

	region, err := e.resolveRegion(ctx, req.Location, details.Location)
	if err != nil {
		return nil, err
	}

	projectType, err := e.resolveProjectType(ctx, req.ProjectType, details.ProjectType)
	if err != nil {
		return nil, err
	}

	items, err := e.store.CostItemsByProjectType(ctx, projectType.ID)
	if err != nil {
		return nil, eris.Wrap(err, "estimate: load cost items")
	}

	breakdown, total := ComputeBreakdown(items, region, details.Area)

	explanation, err := e.explain(ctx, breakdown, total, details.Area, region, projectType, docs)
	if err != nil {
		return nil, err
	}

	log.Info("estimate complete",
		zap.Int("documents", len(docs)),
		zap.String("region", region.Name),
		zap.String("project_type", projectType.Name),
		zap.Float64("area", details.Area),
		zap.Float64("total_cost", total),
		zap.Duration("retrieval", retrieved),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.EstimationResult{
		Estimate: model.Estimate{
			TotalCost:   total,
			Breakdown:   breakdown,
			Region:      region.Name,
			ProjectType: projectType.Name,
		},
		Explanation: explanation,
		Confidence:  Confidence(len(docs)),
	}, nil
}
