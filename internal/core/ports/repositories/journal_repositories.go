package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalByID retrieves an entry together with its lines.
	FindJournalByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalWriter defines write operations for journal data.
// Every method is a single atomic unit: either everything is stored or nothing is.
type JournalWriter interface {
	// SaveJournal persists the entry header and lines and assigns the next
	// reference code for refPrefix on the entry's creation day.
	SaveJournal(ctx context.Context, entry domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error)

	// SaveReversal persists a reversing entry and marks the original REVERSED.
	// It fails with apperrors.ErrConflict when the original was already reversed.
	SaveReversal(ctx context.Context, reversal domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error)

	// VoidJournal moves an entry and its lines to the Voided lifecycle.
	VoidJournal(ctx context.Context, entryID string, userID string, now time.Time) error
}

// BalanceReader aggregates journal lines for the balance calculator.
type BalanceReader interface {
	// SumAccountLines returns Σdebit and Σcredit over the account's Active lines.
	SumAccountLines(ctx context.Context, accountID string) (totalDebit decimal.Decimal, totalCredit decimal.Decimal, err error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	BalanceReader
}
