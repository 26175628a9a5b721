package sweep_lock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/adapter/postgresql"
	"orderflow/pkg/config"
)

// sweepLockID identifies the audit sweep in the advisory lock space. Every
// process sweeping the same database contends on this one id.
const sweepLockID = int64(724401371)

// SweepLock serializes audit sweeps across processes through a session-level
// Postgres advisory lock. The scheduler mutex only covers one process; the
// api and audit modes both sweep the same store, so the guard has to live in
// the database.
type SweepLock struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
}

func NewSweepLock(ctx context.Context, cfg config.Config) (*SweepLock, error) {
	pool, err := pgxpool.New(ctx, postgresql.BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SweepLock{
		pool: pool,
	}, nil
}

// Acquire tries to take the advisory lock without waiting. It returns false
// when another process already holds it. The lock is session-scoped, so the
// connection is pinned until Release.
func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, sweepLockID).Scan(&locked); err != nil {
		conn.Release()
		return false, fmt.Errorf("failed to take sweep lock: %w", err)
	}
	if !locked {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release unlocks and returns the pinned connection to the pool. Closing the
// connection would release the lock too; the explicit unlock keeps the pool
// connection reusable.
func (l *SweepLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}

	_, err := l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, sweepLockID)
	l.conn.Release()
	l.conn = nil
	if err != nil {
		return fmt.Errorf("failed to release sweep lock: %w", err)
	}
	return nil
}

func (l *SweepLock) Close() {
	l.pool.Close()
}
