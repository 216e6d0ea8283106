package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresDraftStore stores drafts in the exam_drafts table, one row per
// marked exercise. An empty draft is a row with an empty exercise ID.
type PostgresDraftStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDraftStore(pool *pgxpool.Pool) (*PostgresDraftStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresDraftStore{pool: pool}, nil
}

func (s *PostgresDraftStore) Get(key string) (map[string]Mark, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT exercise_id, mark
		 FROM exam_drafts
		 WHERE draft_key = $1`,
		key,
	)
	if err != nil {
		return nil, false, fmt.Errorf("get draft: %w", err)
	}
	defer rows.Close()

	marks := make(map[string]Mark)
	found := false
	for rows.Next() {
		found = true
		var id, mark string
		if err := rows.Scan(&id, &mark); err != nil {
			return nil, false, fmt.Errorf("scan draft: %w", err)
		}
		if id == "" {
			continue
		}
		marks[id] = Mark(mark)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate draft: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return marks, true, nil
}

func (s *PostgresDraftStore) Put(key string, marks map[string]Mark) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin draft tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM exam_drafts WHERE draft_key = $1`, key); err != nil {
		return fmt.Errorf("reset draft: %w", err)
	}

	batch := &pgx.Batch{}
	if len(marks) == 0 {
		batch.Queue(`INSERT INTO exam_drafts (draft_key, exercise_id, mark, updated_at)
		 VALUES ($1, '', '', NOW())`, key)
	}
	for id, m := range marks {
		batch.Queue(`INSERT INTO exam_drafts (draft_key, exercise_id, mark, updated_at)
		 VALUES ($1, $2, $3, NOW())`, key, id, string(m))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit draft: %w", err)
	}
	return nil
}

func (s *PostgresDraftStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM exam_drafts WHERE draft_key = $1`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
