package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
)

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountID]; ok {
		return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
	}
	if _, ok := s.accountCodes[account.Code]; ok {
		return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
	}
	s.accounts[account.AccountID] = account
	s.accountCodes[account.Code] = account.AccountID
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return &account, nil
}

func (s *Store) FindAccountByCode(_ context.Context, code string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.accountCodes[code]
	if !ok {
		return nil, fmt.Errorf("account code %s: %w", code, apperrors.ErrNotFound)
	}
	account := s.accounts[id]
	return &account, nil
}

func (s *Store) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

func (s *Store) ListAccounts(_ context.Context, includeInactive bool, limit int, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	all := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if account.IsActive || includeInactive {
			all = append(all, account)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (s *Store) AccountHasHistory(_ context.Context, accountID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		for _, line := range entry.Lines {
			if line.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) UpdateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[account.AccountID]
	if !ok {
		return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrNotFound)
	}
	current.Name = account.Name
	current.Category = account.Category
	current.Description = account.Description
	current.LastUpdatedAt = account.LastUpdatedAt
	current.LastUpdatedBy = account.LastUpdatedBy
	s.accounts[account.AccountID] = current
	return nil
}

func (s *Store) DeactivateAccount(_ context.Context, accountID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	if !account.IsActive {
		return apperrors.NewValidationError(apperrors.RuleAccountActive, "account %s is already inactive", account.Code)
	}
	account.IsActive = false
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	s.accounts[accountID] = account
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	delete(s.accounts, accountID)
	delete(s.accountCodes, account.Code)
	return nil
}
