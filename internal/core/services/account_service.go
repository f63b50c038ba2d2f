package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/google/uuid"
)

const (
	defaultAccountPageSize = 50
	maxAccountPageSize     = 500
)

type accountService struct {
	BaseService
	repo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the chart-of-accounts service.
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	o := applyOptions(options)
	return &accountService{
		BaseService: newBaseService(o),
		repo:        repo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" {
		return nil, apperrors.NewValidationError(apperrors.RuleRequired, "account code is required")
	}
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.RuleRequired, "account name is required")
	}
	category := domain.NormalizeAccountCategory(string(req.Category))
	if !category.IsValid() {
		return nil, apperrors.NewValidationError(apperrors.RuleInvalidCategory, "unknown account category %q", req.Category)
	}

	now := s.Now()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		Code:        code,
		Name:        name,
		Category:    category,
		Description: req.Description,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.repo.SaveAccount(ctx, account); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to save account", slog.String("account_code", code))
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("account code %s: %w", code, err)
		}
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("account_code", code))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("account_code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	accounts, err := s.repo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts by IDs", slog.Int("count", len(accountIDs)))
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultAccountPageSize
	}
	if limit > maxAccountPageSize {
		limit = maxAccountPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.repo.ListAccounts(ctx, params.IncludeInactive, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.Int("limit", limit), slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// UpdateAccount changes name, category or description. Once any journal
// line references the account it can only be deactivated.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find account for update", slog.String("account_id", accountID))
		return nil, err
	}

	hasHistory, err := s.repo.AccountHasHistory(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to check account history", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to check account history: %w", err)
	}
	if hasHistory {
		return nil, fmt.Errorf("%w: account %s is referenced by posted entries and cannot be edited", apperrors.ErrConflict, account.Code)
	}

	updated := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError(apperrors.RuleRequired, "account name cannot be empty")
		}
		account.Name = name
		updated = true
	}
	if req.Category != nil {
		category := domain.NormalizeAccountCategory(string(*req.Category))
		if !category.IsValid() {
			return nil, apperrors.NewValidationError(apperrors.RuleInvalidCategory, "unknown account category %q", *req.Category)
		}
		account.Category = category
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = s.Now()
	account.LastUpdatedBy = userID
	if err := s.repo.UpdateAccount(ctx, *account); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	s.invalidateBalances(ctx, accountID)

	s.LogInfo(ctx, "Account updated", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	if err := s.repo.DeactivateAccount(ctx, accountID, userID, s.Now()); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}

// DeleteAccount hard-deletes an account without history; anything else must be deactivated.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string, userID string) error {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find account for delete", slog.String("account_id", accountID))
		return err
	}
	hasHistory, err := s.repo.AccountHasHistory(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to check account history", slog.String("account_id", accountID))
		return fmt.Errorf("failed to check account history: %w", err)
	}
	if hasHistory {
		return fmt.Errorf("%w: account %s has history; deactivate it instead", apperrors.ErrConflict, accountID)
	}
	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return err
	}
	s.invalidateBalances(ctx, accountID)
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID), slog.String("user_id", userID))
	return nil
}
