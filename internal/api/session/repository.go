package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// PgxPool is the slice of pgxpool.Pool the repository needs. pgxmock satisfies
// it too, which keeps the tests off a live database.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Repository = (*PostgresRepository)(nil)

// Repository archives conversation turns for analytics and session recovery.
// The in-memory store stays authoritative for live turns; archival is
// best-effort and never blocks a response.
type Repository interface {
	ArchiveTurn(ctx context.Context, sessionID uuid.UUID, question, answer string, destination *string) error
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.Message, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresRepository(pgpool PgxPool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

// ArchiveTurn upserts the session row and appends the user/assistant message
// pair in one transaction.
func (r *PostgresRepository) ArchiveTurn(ctx context.Context, sessionID uuid.UUID, question, answer string, destination *string) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sessionQuery := `
        INSERT INTO travel_sessions (id, current_destination)
        VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE
        SET current_destination = EXCLUDED.current_destination, updated_at = now()
    `
	if _, err = tx.Exec(ctx, sessionQuery, sessionID, destination); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	messageQuery := `
        INSERT INTO travel_messages (session_id, role, content)
        VALUES ($1, $2, $3), ($1, $4, $5)
    `
	if _, err = tx.Exec(ctx, messageQuery,
		sessionID, types.RoleUser, question, types.RoleAssistant, answer,
	); err != nil {
		return fmt.Errorf("failed to insert messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentMessages returns the newest messages for a session in chronological
// order. An unknown session yields an empty slice.
func (r *PostgresRepository) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = DefaultMaxMessages
	}

	query := `
        SELECT role, content, created_at
        FROM (
            SELECT role, content, created_at
            FROM travel_messages
            WHERE session_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC
    `
	rows, err := r.pgpool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading messages: %w", err)
	}
	return messages, nil
}

// DeleteSession removes the archived session and its messages.
func (r *PostgresRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM travel_sessions WHERE id = $1`
	if _, err := r.pgpool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
