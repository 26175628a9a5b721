package directory_repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/adapter/postgresql"
	"orderflow/pkg/config"
)

// DirectoryRepository resolves recipient groups to member emails.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(ctx context.Context, cfg config.Config) (*DirectoryRepository, error) {
	pool, err := pgxpool.New(ctx, postgresql.BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DirectoryRepository{
		pool: pool,
	}, nil
}

// ResolveRecipients returns the deduplicated member emails of the given
// groups. A user in several groups appears once.
func (repo *DirectoryRepository) ResolveRecipients(ctx context.Context, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	query := `
SELECT DISTINCT u.email
FROM users u
JOIN group_members gm ON gm.user_id = u.id
WHERE gm.group_id = ANY($1) AND u.email <> ''
ORDER BY u.email
`

	rows, err := repo.pool.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	return emails, nil
}

func (repo *DirectoryRepository) Close() {
	repo.pool.Close()
}
