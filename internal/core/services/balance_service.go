package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/platform/metrics"
)

type balanceService struct {
	BaseService
	accounts portsrepo.AccountReader
	lines    portsrepo.BalanceReader
}

// NewBalanceService creates the balance calculator. With WithBalanceCache,
// results are served from the cache until a posting invalidates them.
func NewBalanceService(accounts portsrepo.AccountReader, lines portsrepo.BalanceReader, options ...ServiceOption) portssvc.BalanceSvc {
	o := applyOptions(options)
	return &balanceService{
		BaseService: newBaseService(o),
		accounts:    accounts,
		lines:       lines,
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) GetAccountBalance(ctx context.Context, accountID string) (*domain.AccountBalance, error) {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find account for balance", slog.String("account_id", accountID))
		return nil, err
	}

	if cached, ok := s.cachedBalance(ctx, accountID); ok {
		return cached, nil
	}
	version, cacheable := s.cacheVersion(ctx, accountID)

	debit, credit, err := s.lines.SumAccountLines(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate account lines", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to calculate balance for account %s: %w", accountID, err)
	}

	balance := domain.AccountBalance{
		AccountID:   account.AccountID,
		Code:        account.Code,
		Category:    account.Category,
		TotalDebit:  domain.Round2(debit),
		TotalCredit: domain.Round2(credit),
		Balance:     domain.SignedBalance(account.Category, debit, credit),
		AsOf:        s.Now(),
	}

	if cacheable {
		if err := s.balanceCache.Set(ctx, balance, version); err != nil {
			s.LogWarn(ctx, "Failed to cache balance", slog.String("account_id", accountID), slog.String("error", err.Error()))
		}
	}

	s.LogDebug(ctx, "Balance calculated", slog.String("account_id", accountID), slog.String("balance", balance.Balance.StringFixed(2)))
	return &balance, nil
}

func (s *balanceService) cachedBalance(ctx context.Context, accountID string) (*domain.AccountBalance, bool) {
	if s.balanceCache == nil {
		return nil, false
	}
	cached, ok, err := s.balanceCache.Get(ctx, accountID)
	switch {
	case err != nil:
		metrics.BalanceCacheLookups.WithLabelValues("error").Inc()
		s.LogWarn(ctx, "Balance cache lookup failed", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, false
	case !ok:
		metrics.BalanceCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.BalanceCacheLookups.WithLabelValues("hit").Inc()
	return cached, true
}

// cacheVersion reads the version a computed balance must be stored under.
// Without it the balance is served but not cached.
func (s *balanceService) cacheVersion(ctx context.Context, accountID string) (int64, bool) {
	if s.balanceCache == nil {
		return 0, false
	}
	version, err := s.balanceCache.Version(ctx, accountID)
	if err != nil {
		s.LogWarn(ctx, "Balance cache version lookup failed", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return 0, false
	}
	return version, true
}
