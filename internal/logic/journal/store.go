package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store 落库接口，便于测试替换
type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertBatch(ctx context.Context, records []*ReactionRecord) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sniper_reaction (
	dedup_key        TEXT PRIMARY KEY,
	pool             TEXT        NOT NULL,
	target_mint      TEXT        NOT NULL,
	dex              TEXT        NOT NULL,
	instruction      TEXT        NOT NULL,
	slot             BIGINT      NOT NULL,
	source_signature TEXT        NOT NULL,
	started_at       TIMESTAMPTZ NOT NULL,
	success_count    INT         NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sniper_outcome (
	dedup_key  TEXT   NOT NULL REFERENCES sniper_reaction (dedup_key) ON DELETE CASCADE,
	backend    TEXT   NOT NULL,
	kind       TEXT   NOT NULL,
	outcome_id TEXT   NOT NULL,
	error      TEXT   NOT NULL,
	latency_ms BIGINT NOT NULL,
	PRIMARY KEY (dedup_key, backend)
);
CREATE INDEX IF NOT EXISTS idx_sniper_reaction_started_at ON sniper_reaction (started_at);
`

const (
	insertReactionSQL = `
		INSERT INTO sniper_reaction (
			dedup_key, pool, target_mint, dex, instruction, slot, source_signature, started_at, success_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (dedup_key) DO NOTHING`

	insertOutcomeSQL = `
		INSERT INTO sniper_outcome (dedup_key, backend, kind, outcome_id, error, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dedup_key, backend) DO NOTHING`
)

// PgStore 基于 pgxpool 的实现
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgPool 建立连接池并验证连通性
func NewPgPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// InsertBatch 单个事务内用 pgx.Batch 批量写入，重复 key 忽略
func (s *PgStore) InsertBatch(ctx context.Context, records []*ReactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertReactionSQL,
			r.DedupKey, r.Pool, r.TargetMint, r.Dex, r.Instruction,
			r.Slot, r.SourceSignature, r.StartedAt, r.SuccessCount,
		)
		for _, o := range r.Outcomes {
			batch.Queue(insertOutcomeSQL, r.DedupKey, o.Backend, o.Kind, o.OutcomeID, o.Error, o.LatencyMs)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert journal batch (%d reactions): %w", len(records), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeleteBefore 清理历史记录，outcome 随外键级联删除
func (s *PgStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sniper_reaction WHERE started_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete old reactions: %w", err)
	}
	return tag.RowsAffected(), nil
}
