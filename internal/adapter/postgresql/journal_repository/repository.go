package journal_repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/adapter/postgresql"
	"orderflow/internal/core/domain/models"
	"orderflow/pkg/config"
)

// JournalRepository is the durable notification idempotency ledger. It
// shares the domain database, so a crash-and-restart sweep sees every
// notification that was journaled before the crash.
type JournalRepository struct {
	pool *pgxpool.Pool
}

func NewJournalRepository(ctx context.Context, cfg config.Config) (*JournalRepository, error) {
	pool, err := pgxpool.New(ctx, postgresql.BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &JournalRepository{
		pool: pool,
	}, nil
}

// Has reports whether a successful notification was already journaled for
// the violation key.
func (repo *JournalRepository) Has(ctx context.Context, violationKey string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notification_journal WHERE violation_key = $1)`

	var exists bool
	if err := repo.pool.QueryRow(ctx, query, violationKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check journal: %w", err)
	}
	return exists, nil
}

// Record appends one journal entry. The unique index on violation_key makes
// the append idempotent: a concurrent duplicate is a no-op, never an error.
func (repo *JournalRepository) Record(ctx context.Context, entry models.JournalEntry) error {
	query := `
INSERT INTO notification_journal (id, violation_key, type, recipients, sent_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (violation_key) DO NOTHING
`

	_, err := repo.pool.Exec(ctx, query,
		entry.ID, entry.ViolationKey, entry.Type, entry.Recipients, entry.SentAt)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

func (repo *JournalRepository) Close() {
	repo.pool.Close()
}
