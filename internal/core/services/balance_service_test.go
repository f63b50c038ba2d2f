package services_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/core/services"
)

// MockBalanceCache is a mock type for the BalanceCache interface
type MockBalanceCache struct {
	mock.Mock
}

var _ portsrepo.BalanceCache = (*MockBalanceCache)(nil)

func (m *MockBalanceCache) Get(ctx context.Context, accountID string) (*domain.AccountBalance, bool, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.AccountBalance), args.Bool(1), args.Error(2)
}

func (m *MockBalanceCache) Version(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceCache) Set(ctx context.Context, balance domain.AccountBalance, version int64) error {
	args := m.Called(ctx, balance, version)
	return args.Error(0)
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	args := m.Called(ctx, accountIDs)
	return args.Error(0)
}

type BalanceCacheTestSuite struct {
	ledgerSuite
	cache   *MockBalanceCache
	cash    *domain.Account
	revenue *domain.Account
}

func (suite *BalanceCacheTestSuite) SetupTest() {
	suite.cache = new(MockBalanceCache)
	suite.newContainer(nil, services.WithBalanceCache(suite.cache))
	suite.cash = suite.account("1000", domain.Asset)
	suite.revenue = suite.account("4000", domain.Revenue)
}

func (suite *BalanceCacheTestSuite) TearDownTest() {
	suite.cache.AssertExpectations(suite.T())
}

func (suite *BalanceCacheTestSuite) TestMissComputesAndStores() {
	suite.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Once()
	_, err := suite.post("sale", debit(suite.cash.AccountID, "75"), credit(suite.revenue.AccountID, "75"))
	suite.Require().NoError(err)

	suite.cache.On("Get", mock.Anything, suite.cash.AccountID).Return(nil, false, nil).Once()
	suite.cache.On("Version", mock.Anything, suite.cash.AccountID).Return(int64(3), nil).Once()
	suite.cache.On("Set", mock.Anything, mock.MatchedBy(func(b domain.AccountBalance) bool {
		return b.AccountID == suite.cash.AccountID && b.Balance.Equal(dec("75"))
	}), int64(3)).Return(nil).Once()

	suite.True(suite.balance(suite.cash.AccountID).Equal(dec("75")))
}

func (suite *BalanceCacheTestSuite) TestHitSkipsAggregation() {
	cached := &domain.AccountBalance{AccountID: suite.cash.AccountID, Code: "1000", Balance: dec("12.34")}
	suite.cache.On("Get", mock.Anything, suite.cash.AccountID).Return(cached, true, nil).Once()

	suite.True(suite.balance(suite.cash.AccountID).Equal(dec("12.34")))
}

func (suite *BalanceCacheTestSuite) TestCacheErrorsFallBackToStore() {
	suite.cache.On("Get", mock.Anything, suite.cash.AccountID).Return(nil, false, assert.AnError).Once()
	suite.cache.On("Version", mock.Anything, suite.cash.AccountID).Return(int64(0), nil).Once()
	suite.cache.On("Set", mock.Anything, mock.Anything, int64(0)).Return(assert.AnError).Once()

	suite.True(suite.balance(suite.cash.AccountID).IsZero())
}

func (suite *BalanceCacheTestSuite) TestVersionErrorSkipsCaching() {
	suite.cache.On("Get", mock.Anything, suite.cash.AccountID).Return(nil, false, nil).Once()
	suite.cache.On("Version", mock.Anything, suite.cash.AccountID).Return(int64(0), assert.AnError).Once()

	suite.True(suite.balance(suite.cash.AccountID).IsZero())
	suite.cache.AssertNotCalled(suite.T(), "Set", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BalanceCacheTestSuite) TestVersionIsReadBeforeAggregation() {
	suite.cache.On("Get", mock.Anything, suite.cash.AccountID).Return(nil, false, nil).Once()
	suite.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Once()
	// A posting commits after the version was read: the balance must be
	// stored under the pre-posting version so the cache can drop it.
	suite.cache.On("Version", mock.Anything, suite.cash.AccountID).Return(int64(7), nil).Once().Run(func(mock.Arguments) {
		_, err := suite.post("sale", debit(suite.cash.AccountID, "40"), credit(suite.revenue.AccountID, "40"))
		suite.Require().NoError(err)
	})
	suite.cache.On("Set", mock.Anything, mock.MatchedBy(func(b domain.AccountBalance) bool {
		return b.Balance.Equal(dec("40"))
	}), int64(7)).Return(nil).Once()

	suite.True(suite.balance(suite.cash.AccountID).Equal(dec("40")))
}

func (suite *BalanceCacheTestSuite) TestPostingInvalidatesTouchedAccounts() {
	suite.cache.On("Invalidate", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 2 && slices.Contains(ids, suite.cash.AccountID) && slices.Contains(ids, suite.revenue.AccountID)
	})).Return(nil).Twice()

	entry, err := suite.post("sale", debit(suite.cash.AccountID, "10"), credit(suite.revenue.AccountID, "10"))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.svc.Journal.VoidJournalEntry(suite.ctx, entry.EntryID, suite.userID))
}

func TestBalanceCacheTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceCacheTestSuite))
}
