package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/platform/metrics"
)

// journalService validates and persists journal entries.
type journalService struct {
	BaseService
	accounts  portsrepo.AccountReader
	repo      portsrepo.JournalRepositoryFacade
	refPrefix string
}

// NewJournalService creates a new JournalService.
func NewJournalService(accounts portsrepo.AccountReader, repo portsrepo.JournalRepositoryFacade, options ...ServiceOption) portssvc.JournalSvcFacade {
	o := applyOptions(options)
	return &journalService{
		BaseService: newBaseService(o),
		accounts:    accounts,
		repo:        repo,
		refPrefix:   o.journalRefPrefix,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// validateLines runs the posting rules in order: line count, account
// existence and activity, one-sided amounts, balance.
func (s *journalService) validateLines(ctx context.Context, lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return apperrors.NewValidationError(apperrors.RuleMinLines, "journal entry needs at least 2 lines, got %d", len(lines))
	}

	entry := domain.JournalEntry{Lines: lines}
	accounts, err := s.accounts.FindAccountsByIDs(ctx, entry.AccountIDs())
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, line := range lines {
		acc, found := accounts[line.AccountID]
		if !found {
			return apperrors.NewValidationError(apperrors.RuleAccountExists, "line %d references unknown account %s", line.LineNo, line.AccountID)
		}
		if !acc.IsActive {
			return apperrors.NewValidationError(apperrors.RuleAccountActive, "line %d references inactive account %s", line.LineNo, acc.Code)
		}
	}

	for _, line := range lines {
		if !line.HasSingleSide() {
			return apperrors.NewValidationError(apperrors.RuleDebitXorCredit, "line %d must carry a positive debit or a positive credit, not both", line.LineNo)
		}
	}

	debit := domain.Round2(entry.TotalDebit())
	credit := domain.Round2(entry.TotalCredit())
	if !debit.Equal(credit) {
		return apperrors.NewValidationError(apperrors.RuleBalanced, "debits %s do not equal credits %s", debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

// PostJournalEntry validates and persists an entry with its lines.
// Balances are not recomputed here; cached balances of the touched accounts are dropped.
func (s *journalService) PostJournalEntry(ctx context.Context, req dto.PostJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperrors.NewValidationError(apperrors.RuleRequired, "journal description is required")
	}

	now := s.Now()
	entryDate := req.Date
	if entryDate.IsZero() {
		entryDate = now
	}
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:    uuid.NewString(),
			EntryID:   entryID,
			LineNo:    i + 1,
			AccountID: strings.TrimSpace(l.AccountID),
			Debit:     domain.Round2(l.Debit),
			Credit:    domain.Round2(l.Credit),
			Notes:     l.Notes,
			Lifecycle: domain.LifecycleActive,
		}
	}

	if err := s.validateLines(ctx, lines); err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			metrics.JournalRejections.WithLabelValues(vErr.Rule).Inc()
			s.LogWarn(ctx, "Journal entry rejected", slog.String("rule", vErr.Rule), slog.String("error", err.Error()))
		} else {
			s.LogError(ctx, err, "Failed to validate journal entry")
		}
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:     entryID,
		EntryDate:   entryDate,
		Description: description,
		Status:      domain.Posted,
		Lifecycle:   domain.LifecycleActive,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Lines:       lines,
		AuditFields: audit,
	}

	var stored *domain.JournalEntry
	err := s.retryOnConcurrency(ctx, "post_journal", func() error {
		var saveErr error
		stored, saveErr = s.repo.SaveJournal(ctx, entry, s.refPrefix)
		return saveErr
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save journal entry",
			slog.String("entry_id", entryID),
			slog.Any("account_ids", entry.AccountIDs()),
			slog.String("total_debit", entry.TotalDebit().StringFixed(2)))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	s.invalidateBalances(ctx, entry.AccountIDs()...)
	metrics.JournalEntries.WithLabelValues("posted").Inc()
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", stored.EntryID),
		slog.String("reference_code", stored.ReferenceCode),
		slog.String("amount", stored.TotalDebit().StringFixed(2)))
	return stored, nil
}

// GetJournalEntry retrieves an entry with its lines.
func (s *journalService) GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.repo.FindJournalByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

// ReverseJournalEntry books an entry that mirrors the original with every
// line's sides swapped. The original is only marked REVERSED and linked.
func (s *journalService) ReverseJournalEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	original, err := s.repo.FindJournalByID(ctx, entryID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find journal entry to reverse", slog.String("entry_id", entryID))
		return nil, err
	}

	switch {
	case original.Lifecycle == domain.LifecycleVoided:
		return nil, fmt.Errorf("%w: journal entry %s is voided", apperrors.ErrConflict, original.ReferenceCode)
	case original.Status == domain.Reversed || original.ReversingEntryID != nil:
		return nil, fmt.Errorf("%w: journal entry %s is already reversed", apperrors.ErrConflict, original.ReferenceCode)
	case original.OriginalEntryID != nil:
		return nil, fmt.Errorf("%w: journal entry %s is itself a reversal", apperrors.ErrConflict, original.ReferenceCode)
	}

	now := s.Now()
	reversalID := uuid.NewString()
	lines := make([]domain.JournalLine, len(original.Lines))
	for i, l := range original.Lines {
		swapped := l.Swapped()
		swapped.LineID = uuid.NewString()
		swapped.EntryID = reversalID
		swapped.Lifecycle = domain.LifecycleActive
		lines[i] = swapped
	}
	originalID := original.EntryID
	reversal := domain.JournalEntry{
		EntryID:         reversalID,
		EntryDate:       now,
		Description:     fmt.Sprintf("Reversal of %s: %s", original.ReferenceCode, original.Description),
		Status:          domain.Posted,
		Lifecycle:       domain.LifecycleActive,
		OriginalEntryID: &originalID,
		SourceType:      original.SourceType,
		SourceID:        original.SourceID,
		Lines:           lines,
		AuditFields:     domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
	}

	var stored *domain.JournalEntry
	err = s.retryOnConcurrency(ctx, "reverse_journal", func() error {
		var saveErr error
		stored, saveErr = s.repo.SaveReversal(ctx, reversal, s.refPrefix)
		return saveErr
	})
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to save journal reversal", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to reverse journal entry: %w", err)
	}

	s.invalidateBalances(ctx, original.AccountIDs()...)
	metrics.JournalEntries.WithLabelValues("reversed").Inc()
	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", stored.EntryID),
		slog.String("reference_code", stored.ReferenceCode))
	return stored, nil
}

// VoidJournalEntry drops an entry and its lines from every balance.
// Entries linked to a reversal must stay live so the pair keeps netting to zero.
func (s *journalService) VoidJournalEntry(ctx context.Context, entryID string, userID string) error {
	entry, err := s.repo.FindJournalByID(ctx, entryID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find journal entry to void", slog.String("entry_id", entryID))
		return err
	}
	if entry.Lifecycle == domain.LifecycleVoided {
		return fmt.Errorf("%w: journal entry %s is already voided", apperrors.ErrConflict, entry.ReferenceCode)
	}
	if entry.OriginalEntryID != nil || entry.ReversingEntryID != nil {
		return fmt.Errorf("%w: journal entry %s is linked to a reversal", apperrors.ErrConflict, entry.ReferenceCode)
	}

	if err := s.repo.VoidJournal(ctx, entryID, userID, s.Now()); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to void journal entry", slog.String("entry_id", entryID))
		return fmt.Errorf("failed to void journal entry: %w", err)
	}

	s.invalidateBalances(ctx, entry.AccountIDs()...)
	metrics.JournalEntries.WithLabelValues("voided").Inc()
	s.LogInfo(ctx, "Journal entry voided", slog.String("entry_id", entryID), slog.String("amount", entry.TotalDebit().StringFixed(2)))
	return nil
}
