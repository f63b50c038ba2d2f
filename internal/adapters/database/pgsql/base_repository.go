// Package pgsql implements the repository ports on PostgreSQL through pgx.
package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/utils/refcode"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, "failed to commit transaction")
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// mapPgError translates driver errors into the application's error kinds.
func mapPgError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s: %s", apperrors.ErrDuplicate, msg, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s: %s", apperrors.ErrConflict, msg, pgErr.ConstraintName)
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return fmt.Errorf("%w: %s: %v", apperrors.ErrConcurrency, msg, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// nextReference bumps the (prefix, day) counter inside q's transaction and
// formats the resulting code. Rolled back transactions leave gaps.
func nextReference(ctx context.Context, q querier, prefix string, createdAt time.Time) (string, error) {
	day := domain.StartOfDay(createdAt)
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO reference_counters (prefix, day, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET last_seq = reference_counters.last_seq + 1
		RETURNING last_seq;
	`, prefix, day).Scan(&seq)
	if err != nil {
		return "", mapPgError(err, "failed to allocate reference code for "+prefix)
	}
	return refcode.Format(prefix, day, seq), nil
}
