package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
)

func (s *Store) SaveJournal(_ context.Context, entry domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEntry(entry, refPrefix)
}

// insertEntry stores a copy of entry with a fresh reference code. Callers hold mu.
func (s *Store) insertEntry(entry domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	if _, ok := s.entries[entry.EntryID]; ok {
		return nil, fmt.Errorf("journal entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
	}
	entry = copyEntry(entry)
	entry.ReferenceCode = s.nextReference(refPrefix, entry.CreatedAt)
	s.entries[entry.EntryID] = entry
	stored := copyEntry(entry)
	return &stored, nil
}

func (s *Store) SaveReversal(_ context.Context, reversal domain.JournalEntry, refPrefix string) (*domain.JournalEntry, error) {
	if reversal.OriginalEntryID == nil {
		return nil, fmt.Errorf("reversal %s has no original entry: %w", reversal.EntryID, apperrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.entries[*reversal.OriginalEntryID]
	if !ok {
		return nil, fmt.Errorf("journal entry %s: %w", *reversal.OriginalEntryID, apperrors.ErrNotFound)
	}
	if original.ReversingEntryID != nil || original.Status == domain.Reversed {
		return nil, fmt.Errorf("%w: journal entry %s is already reversed", apperrors.ErrConflict, original.ReferenceCode)
	}
	if original.Lifecycle == domain.LifecycleVoided {
		return nil, fmt.Errorf("%w: journal entry %s is voided", apperrors.ErrConflict, original.ReferenceCode)
	}

	stored, err := s.insertEntry(reversal, refPrefix)
	if err != nil {
		return nil, err
	}
	reversingID := stored.EntryID
	original.Status = domain.Reversed
	original.ReversingEntryID = &reversingID
	original.LastUpdatedAt = reversal.CreatedAt
	original.LastUpdatedBy = reversal.CreatedBy
	s.entries[original.EntryID] = original
	return stored, nil
}

func (s *Store) VoidJournal(_ context.Context, entryID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	if entry.Lifecycle == domain.LifecycleVoided {
		return fmt.Errorf("%w: journal entry %s is already voided", apperrors.ErrConflict, entry.ReferenceCode)
	}
	if entry.OriginalEntryID != nil || entry.ReversingEntryID != nil {
		return fmt.Errorf("%w: journal entry %s is linked to a reversal", apperrors.ErrConflict, entry.ReferenceCode)
	}
	entry = copyEntry(entry)
	entry.Lifecycle = domain.LifecycleVoided
	for i := range entry.Lines {
		entry.Lines[i].Lifecycle = domain.LifecycleVoided
	}
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID
	s.entries[entryID] = entry
	return nil
}

func (s *Store) FindJournalByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	found := copyEntry(entry)
	return &found, nil
}

// SumAccountLines totals the account's lines, skipping voided entries and lines.
func (s *Store) SumAccountLines(_ context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	debit, credit := decimal.Zero, decimal.Zero
	for _, entry := range s.entries {
		if entry.Lifecycle != domain.LifecycleActive {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountID != accountID || line.Lifecycle != domain.LifecycleActive {
				continue
			}
			debit = debit.Add(line.Debit)
			credit = credit.Add(line.Credit)
		}
	}
	return debit, credit, nil
}
