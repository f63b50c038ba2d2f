package repositories

import (
	"context"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
)

// BalanceCache stores derived balances. Reads through it may be slightly stale.
//
// Every Invalidate bumps the account's version. Set stores a balance only
// while the version still equals the one read before the balance was
// computed, so a read racing a posting cannot cache the pre-posting value.
type BalanceCache interface {
	Get(ctx context.Context, accountID string) (*domain.AccountBalance, bool, error)
	Version(ctx context.Context, accountID string) (int64, error)
	Set(ctx context.Context, balance domain.AccountBalance, version int64) error
	Invalidate(ctx context.Context, accountIDs ...string) error
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	JournalRepo     JournalRepositoryFacade
	PaymentPlanRepo PaymentPlanRepositoryFacade
	BalanceCache    BalanceCache // optional
}
