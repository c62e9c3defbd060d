package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vqt123/construction-cost-estimator/internal/db"
	"github.com/vqt123/construction-cost-estimator/internal/model"
)

// PostgresStore implements Store using pgxpool. Vector similarity relies on
// the pgvector extension's <=> (cosine distance) operator.
type PostgresStore struct {
	pool     db.Pool
	embedDim int
	closeFn  func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	topSimilarSQL = `SELECT id, title, content, source_tag, doc_type, metadata,
		1 - (embedding <=> $1::vector) AS similarity
		FROM cost_docs
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector, id
		LIMIT $2`

	findRegionSQL = `SELECT id, name, zip_code, cost_multiplier
		FROM regions
		WHERE zip_code = $1 OR name ILIKE $2
		ORDER BY id
		LIMIT 1`

	findProjectTypeSQL = `SELECT id, name, description
		FROM project_types
		WHERE name ILIKE $1
		ORDER BY id
		LIMIT 1`

	costItemsSQL = `SELECT id, project_type_id, name, description, unit,
		base_cost, labor_cost, material_cost, equipment_cost
		FROM cost_items
		WHERE project_type_id = $1
		ORDER BY id`

	missingEmbeddingsSQL = `SELECT id, title, content
		FROM cost_docs
		WHERE embedding IS NULL
		ORDER BY id`

	setEmbeddingSQL = `UPDATE cost_docs SET embedding = $1::vector WHERE id = $2`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the request-path store operations.
var preparedStatements = map[string]string{
	"top_similar":       topSimilarSQL,
	"find_region":       findRegionSQL,
	"find_project_type": findProjectTypeSQL,
	"cost_items":        costItemsSQL,
}

// NewPostgres creates a PostgresStore with a connection pool. embedDim is
// the dimensionality of the vector column created by Migrate.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, embedDim int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, embedDim: embedDim, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS cost_docs (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	source_tag TEXT NOT NULL DEFAULT '',
	doc_type   TEXT NOT NULL DEFAULT '',
	metadata   JSONB,
	embedding  vector(%d)
);

CREATE TABLE IF NOT EXISTS regions (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	zip_code        TEXT,
	cost_multiplier DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS project_types (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS cost_items (
	id              BIGSERIAL PRIMARY KEY,
	project_type_id BIGINT NOT NULL REFERENCES project_types(id),
	name            TEXT NOT NULL,
	description     TEXT,
	unit            TEXT NOT NULL,
	base_cost       DOUBLE PRECISION NOT NULL,
	labor_cost      DOUBLE PRECISION NOT NULL DEFAULT 0,
	material_cost   DOUBLE PRECISION NOT NULL DEFAULT 0,
	equipment_cost  DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_regions_zip_code ON regions(zip_code);
CREATE INDEX IF NOT EXISTS idx_cost_items_project_type ON cost_items(project_type_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigration, s.embedDim))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// TopSimilar returns up to limit embedded documents ordered by descending
// cosine similarity to queryVec, ties broken by ascending id.
func (s *PostgresStore) TopSimilar(ctx context.Context, queryVec []float32, limit int) ([]model.ScoredDocument, error) {
	rows, err := s.pool.Query(ctx, topSimilarSQL, db.VectorLiteral(queryVec), limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top similar")
	}
	defer rows.Close()

	var results []model.ScoredDocument
	for rows.Next() {
		var (
			doc       model.CostDocument
			sourceTag pgtype.Text
			docType   pgtype.Text
			metadata  []byte
			sim       float64
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &sourceTag, &docType, &metadata, &sim); err != nil {
			return nil, eris.Wrap(err, "postgres: scan similar doc")
		}
		doc.SourceTag = sourceTag.String
		doc.DocType = docType.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal metadata for doc %d", doc.ID)
			}
		}
		results = append(results, model.ScoredDocument{Document: doc, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate similar docs")
	}
	return results, nil
}

// ListMissingEmbeddings returns documents that still need an embedding,
// ordered by id for stable backfill progress.
func (s *PostgresStore) ListMissingEmbeddings(ctx context.Context) ([]model.CostDocument, error) {
	rows, err := s.pool.Query(ctx, missingEmbeddingsSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list missing embeddings")
	}
	defer rows.Close()

	var docs []model.CostDocument
	for rows.Next() {
		var doc model.CostDocument
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content); err != nil {
			return nil, eris.Wrap(err, "postgres: scan missing doc")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate missing docs")
	}
	return docs, nil
}

func (s *PostgresStore) SetEmbedding(ctx context.Context, docID int64, embedding []float32) error {
	tag, err := s.pool.Exec(ctx, setEmbeddingSQL, db.VectorLiteral(embedding), docID)
	if err != nil {
		return eris.Wrapf(err, "postgres: set embedding for doc %d", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("cost doc not found: %d", docID)
	}
	return nil
}

// FindRegion matches by exact zip code or case-insensitive name substring.
// Returns (nil, nil) when no region matches.
func (s *PostgresStore) FindRegion(ctx context.Context, query string) (*model.Region, error) {
	var (
		region  model.Region
		zipCode pgtype.Text
	)
	err := s.pool.QueryRow(ctx, findRegionSQL, query, "%"+query+"%").
		Scan(&region.ID, &region.Name, &zipCode, &region.CostMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find region %q", query)
	}
	region.ZipCode = zipCode.String
	return &region, nil
}

// FindProjectType matches by case-insensitive name substring. Returns
// (nil, nil) when no project type matches.
func (s *PostgresStore) FindProjectType(ctx context.Context, query string) (*model.ProjectType, error) {
	var (
		pt   model.ProjectType
		desc pgtype.Text
	)
	err := s.pool.QueryRow(ctx, findProjectTypeSQL, "%"+query+"%").
		Scan(&pt.ID, &pt.Name, &desc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find project type %q", query)
	}
	pt.Description = desc.String
	return &pt, nil
}

// CostItemsByProjectType returns the cost items for a project type in
// stable id order; breakdown lines preserve this order.
func (s *PostgresStore) CostItemsByProjectType(ctx context.Context, projectTypeID int64) ([]model.CostItem, error) {
	rows, err := s.pool.Query(ctx, costItemsSQL, projectTypeID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: cost items for project type %d", projectTypeID)
	}
	defer rows.Close()

	var items []model.CostItem
	for rows.Next() {
		var (
			item model.CostItem
			desc pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.ProjectTypeID, &item.Name, &desc, &item.Unit,
			&item.BaseCost, &item.LaborCost, &item.MaterialCost, &item.EquipmentCost); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cost item")
		}
		item.Description = desc.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cost items")
	}
	return items, nil
}
