package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID          string    `db:"entry_id"`
	ReferenceCode    string    `db:"reference_code"`
	EntryDate        time.Time `db:"entry_date"`
	Description      string    `db:"description"`
	Status           string    `db:"status"`
	Lifecycle        string    `db:"lifecycle"`
	OriginalEntryID  *string   `db:"original_entry_id"`  // Nullable
	ReversingEntryID *string   `db:"reversing_entry_id"` // Nullable
	SourceType       string    `db:"source_type"`
	SourceID         string    `db:"source_id"`
	AuditFields
}

// JournalLine is a row of the journal_lines table. Exactly one of Debit and
// Credit is positive.
type JournalLine struct {
	LineID    string          `db:"line_id"`
	EntryID   string          `db:"entry_id"`
	LineNo    int             `db:"line_no"`
	AccountID string          `db:"account_id"`
	Debit     decimal.Decimal `db:"debit"`
	Credit    decimal.Decimal `db:"credit"`
	Notes     string          `db:"notes"`
	Lifecycle string          `db:"lifecycle"`
}
