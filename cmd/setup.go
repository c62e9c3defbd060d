package main

import (
	"context"

	"github.com/vqt123/construction-cost-estimator/internal/store"
	"github.com/vqt123/construction-cost-estimator/pkg/ollama"
)

// openStore builds the Postgres store from config. The caller owns Close.
func openStore(ctx context.Context) (*store.PostgresStore, error) {
	poolCfg := &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	}
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg, cfg.Ollama.EmbedDim)
}

// newOllamaClient builds the embedding/generation gateway client from config.
func newOllamaClient() ollama.Client {
	return ollama.NewClient(
		ollama.WithBaseURL(cfg.Ollama.BaseURL),
		ollama.WithEmbedModel(cfg.Ollama.EmbedModel),
		ollama.WithGenerateModel(cfg.Ollama.GenerateModel),
	)
}
