package services

import (
	"context"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournalEntry retrieves an entry with its lines.
	GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// PostJournalEntry validates and persists a balanced entry.
	PostJournalEntry(ctx context.Context, req dto.PostJournalEntryRequest, userID string) (*domain.JournalEntry, error)

	// ReverseJournalEntry creates an entry with every line's sides swapped.
	ReverseJournalEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)

	// VoidJournalEntry removes an entry from the live set so balances ignore it.
	VoidJournalEntry(ctx context.Context, entryID string, userID string) error
}

// BalanceSvc derives account balances from journal lines.
type BalanceSvc interface {
	// GetAccountBalance aggregates the account's live lines. It may be slightly stale.
	GetAccountBalance(ctx context.Context, accountID string) (*domain.AccountBalance, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
