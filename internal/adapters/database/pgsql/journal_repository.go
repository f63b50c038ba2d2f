package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/models"
)

const (
	entryColumns = `entry_id, reference_code, entry_date, description, status, lifecycle, original_entry_id, reversing_entry_id, source_type, source_id, created_at, created_by, last_updated_at, last_updated_by`
	lineColumns  = `line_id, entry_id, line_no, account_id, debit, credit, notes, lifecycle`
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// SaveJournal stores the header, its lines and the next reference code in one transaction.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, entry domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // no-op after commit

	stored, err := insertEntry(ctx, tx, entry, refPrefix)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	ref, err := nextReference(ctx, tx, refPrefix, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.ReferenceCode = ref
	m := toModelJournalEntry(entry)

	_, err = tx.Exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`,
		m.EntryID,
		m.ReferenceCode,
		m.EntryDate,
		m.Description,
		m.Status,
		m.Lifecycle,
		m.OriginalEntryID,
		m.ReversingEntryID,
		m.SourceType,
		m.SourceID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapPgError(err, "failed to insert journal entry "+m.EntryID)
	}

	batch := &pgx.Batch{}
	lineQuery := `INSERT INTO journal_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	for _, l := range entry.Lines {
		batch.Queue(lineQuery, l.LineID, entry.EntryID, l.LineNo, l.AccountID, l.Debit, l.Credit, l.Notes, string(l.Lifecycle))
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, mapPgError(err, "failed to insert lines for journal entry "+m.EntryID)
	}
	return &entry, nil
}

// SaveReversal locks the original, stores the reversal and links both.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversal domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	if reversal.OriginalEntryID == nil {
		return nil, fmt.Errorf("reversal %s has no original entry: %w", reversal.EntryID, apperrors.ErrValidation)
	}
	originalID := *reversal.OriginalEntryID

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var (
		status      string
		lifecycle   string
		reference   string
		reversingID *string
	)
	err = tx.QueryRow(ctx, `
		SELECT status, lifecycle, reference_code, reversing_entry_id
		FROM journal_entries
		WHERE entry_id = $1
		FOR UPDATE;
	`, originalID).Scan(&status, &lifecycle, &reference, &reversingID)
	if err != nil {
		return nil, mapPgError(err, "journal entry "+originalID)
	}
	if reversingID != nil || domain.JournalStatus(status) == domain.Reversed {
		return nil, fmt.Errorf("%w: journal entry %s is already reversed", apperrors.ErrConflict, reference)
	}
	if domain.Lifecycle(lifecycle) == domain.LifecycleVoided {
		return nil, fmt.Errorf("%w: journal entry %s is voided", apperrors.ErrConflict, reference)
	}

	stored, err := insertEntry(ctx, tx, reversal, refPrefix)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE journal_entries
		SET status = $2, reversing_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;
	`, originalID, string(domain.Reversed), stored.EntryID, reversal.CreatedAt, reversal.CreatedBy)
	if err != nil {
		return nil, mapPgError(err, "failed to mark journal entry "+originalID+" reversed")
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *PgxJournalRepository) VoidJournal(ctx context.Context, entryID string, userID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Reversal pairs stay live; SaveReversal holds the same row lock.
	tag, err := tx.Exec(ctx, `
		UPDATE journal_entries
		SET lifecycle = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND lifecycle = $5
		  AND reversing_entry_id IS NULL AND original_entry_id IS NULL;
	`, entryID, string(domain.LifecycleVoided), now, userID, string(domain.LifecycleActive))
	if err != nil {
		return mapPgError(err, "failed to void journal entry "+entryID)
	}
	if tag.RowsAffected() == 0 {
		var (
			reference string
			lifecycle string
		)
		err := tx.QueryRow(ctx, `SELECT reference_code, lifecycle FROM journal_entries WHERE entry_id = $1`, entryID).Scan(&reference, &lifecycle)
		if err != nil {
			return mapPgError(err, "journal entry "+entryID)
		}
		if domain.Lifecycle(lifecycle) == domain.LifecycleVoided {
			return fmt.Errorf("%w: journal entry %s is already voided", apperrors.ErrConflict, reference)
		}
		return fmt.Errorf("%w: journal entry %s is linked to a reversal", apperrors.ErrConflict, reference)
	}
	_, err = tx.Exec(ctx, `UPDATE journal_lines SET lifecycle = $2 WHERE entry_id = $1`, entryID, string(domain.LifecycleVoided))
	if err != nil {
		return mapPgError(err, "failed to void lines of journal entry "+entryID)
	}
	return r.Commit(ctx, tx)
}

// FindJournalByID retrieves an entry and its lines ordered by line number.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1`, entryID)
	if err != nil {
		return nil, mapPgError(err, "failed to query journal entry")
	}
	header, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, mapPgError(err, "journal entry "+entryID)
	}

	rows, err = r.Pool.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE entry_id = $1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, mapPgError(err, "failed to query journal lines")
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalLine])
	if err != nil {
		return nil, mapPgError(err, "failed to scan journal lines")
	}

	entry := toDomainJournalEntry(header, lines)
	return &entry, nil
}

// SumAccountLines totals the account's Active lines of Active entries.
func (r *PgxJournalRepository) SumAccountLines(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND l.lifecycle = $2 AND e.lifecycle = $2;
	`, accountID, string(domain.LifecycleActive)).Scan(&debit, &credit)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, decimal.Zero, mapPgError(err, "failed to sum lines for account "+accountID)
	}
	return debit, credit, nil
}
