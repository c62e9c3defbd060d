// Package backfill implements the batch job that attaches embeddings to
// corpus documents still missing one. The job is idempotent: documents that
// already have an embedding are never touched, and a document whose attempt
// fails stays eligible for the next run.
package backfill

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vqt123/construction-cost-estimator/internal/resilience"
	"github.com/vqt123/construction-cost-estimator/internal/store"
	"github.com/vqt123/construction-cost-estimator/pkg/ollama"
)

// Config tunes the backfill job.
type Config struct {
	// Delay throttles outbound embedding requests (one document in flight
	// at a time, at most one request per Delay). Default: 1s.
	Delay time.Duration

	// ProbeAttempts and ProbeDelay control the startup health probe's
	// linear retry. Defaults: 30 attempts, 2s apart.
	ProbeAttempts int
	ProbeDelay    time.Duration
}

// Result reports what one run did.
type Result struct {
	Processed int // documents missing an embedding at run start
	Updated   int // embeddings attached
	Failed    int // per-document failures, skipped and left for a later run
}

// Job backfills missing embeddings sequentially.
type Job struct {
	store store.Store
	llm   ollama.Client
	cfg   Config
}

// New creates a backfill Job.
func New(st store.Store, llm ollama.Client, cfg Config) *Job {
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.ProbeAttempts <= 0 {
		cfg.ProbeAttempts = 30
	}
	if cfg.ProbeDelay <= 0 {
		cfg.ProbeDelay = 2 * time.Second
	}
	return &Job{store: st, llm: llm, cfg: cfg}
}

// Run executes one backfill pass. Embedding-service unreachability at
// startup is fatal and aborts the run; per-document failure is logged and
// skipped. Returns counts even on early context cancellation.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(
		zap.String("component", "backfill"),
		zap.String("run_id", uuid.New().String()),
	)

	// Fail-fast precondition: the embedding service must be reachable
	// before any documents are attempted.
	probe := resilience.LinearProbe(j.cfg.ProbeAttempts, j.cfg.ProbeDelay)
	probe.OnRetry = resilience.RetryLogger("ollama", "health probe")
	if err := resilience.Do(ctx, probe, j.llm.Health); err != nil {
		return nil, eris.Wrap(err, "backfill: embedding service unreachable")
	}

	docs, err := j.store.ListMissingEmbeddings(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list missing embeddings")
	}

	res := &Result{Processed: len(docs)}
	if len(docs) == 0 {
		log.Info("all documents already have embeddings")
		return res, nil
	}
	log.Info("starting embedding backfill", zap.Int("documents", len(docs)))

	limiter := rate.NewLimiter(rate.Every(j.cfg.Delay), 1)
	for i, doc := range docs {
		if err := limiter.Wait(ctx); err != nil {
			return res, eris.Wrap(err, "backfill: cancelled")
		}

		vec, err := j.llm.Embed(ctx, doc.Title+"\n\n"+doc.Content)
		if err != nil {
			res.Failed++
			log.Warn("embedding failed, skipping document",
				zap.Int64("doc_id", doc.ID),
				zap.Error(err),
			)
			continue
		}

		if err := j.store.SetEmbedding(ctx, doc.ID, vec); err != nil {
			res.Failed++
			log.Warn("persisting embedding failed, skipping document",
				zap.Int64("doc_id", doc.ID),
				zap.Error(err),
			)
			continue
		}

		res.Updated++
		log.Debug("embedded document",
			zap.Int64("doc_id", doc.ID),
			zap.Int("progress", i+1),
			zap.Int("total", len(docs)),
		)
	}

	log.Info("embedding backfill complete",
		zap.Int("processed", res.Processed),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
