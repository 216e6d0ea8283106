package mastery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStatusStore is a PostgreSQL-backed StatusStore implementation.
type PostgresStatusStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStatusStore creates a status store on the mastery_status table.
func NewPostgresStatusStore(pool *pgxpool.Pool) (*PostgresStatusStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStatusStore{pool: pool}, nil
}

func (s *PostgresStatusStore) GetStatus(tierID, topicKey, itemKey string) (Status, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT status
		 FROM mastery_status
		 WHERE tier_id = $1
		   AND topic_key = $2
		   AND item_key = $3`,
		tierID,
		topicKey,
		itemKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unknown, false, nil
		}
		return Unknown, false, fmt.Errorf("get status: %w", err)
	}

	st, err := ParseStatus(raw)
	if err != nil {
		return Unknown, false, err
	}
	return st, true, nil
}

func (s *PostgresStatusStore) SetStatus(tierID, topicKey, itemKey string, status Status) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if tierID == "" || topicKey == "" || itemKey == "" {
		return fmt.Errorf("tier, topic and item keys are required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO mastery_status (tier_id, topic_key, item_key, status, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (tier_id, topic_key, item_key)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		tierID,
		topicKey,
		itemKey,
		status.String(),
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (s *PostgresStatusStore) ClearTopic(tierID, topicKey string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`DELETE FROM mastery_status
		 WHERE tier_id = $1
		   AND topic_key = $2`,
		tierID,
		topicKey,
	)
	if err != nil {
		return fmt.Errorf("clear topic: %w", err)
	}
	return nil
}
