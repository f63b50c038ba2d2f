//go:build integration

package pgsql_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/estate_ledger_core/internal/adapters/database/pgsql"
	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/core/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
	"github.com/SscSPs/estate_ledger_core/pkg/database"
)

// PostgresTestSuite runs the repositories against a real database.
// Run with: PGSQL_TEST_URL=postgres://... go test -tags integration ./internal/adapters/database/pgsql/
type PostgresTestSuite struct {
	suite.Suite
	ctx    context.Context
	pool   *pgxpool.Pool
	repos  portsrepo.RepositoryProvider
	svc    *portssvc.ServiceContainer
	prefix string
	now    time.Time
	userID string
}

func (suite *PostgresTestSuite) SetupSuite() {
	url := os.Getenv("PGSQL_TEST_URL")
	if url == "" {
		suite.T().Skip("PGSQL_TEST_URL not set")
	}
	suite.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_, err := database.Migrate(url, "file://../../../../migrations", database.Up, logger)
	suite.Require().NoError(err)

	suite.pool, err = database.NewPgxPool(suite.ctx, url)
	suite.Require().NoError(err)
	suite.repos = pgsql.NewRepositoryProvider(suite.pool)
}

func (suite *PostgresTestSuite) TearDownSuite() {
	database.ClosePgxPool(suite.pool)
}

// SetupTest isolates tests through fresh ids and a fresh reference prefix.
func (suite *PostgresTestSuite) SetupTest() {
	suite.prefix = "T" + strings.ToUpper(uuid.NewString()[:6])
	suite.now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	suite.userID = uuid.NewString()
	suite.svc = services.NewServiceContainer(&config.Config{
		JournalRefPrefix: suite.prefix,
		ReceiptRefPrefix: suite.prefix + "R",
	}, suite.repos, services.WithClock(func() time.Time { return suite.now }))
}

func (suite *PostgresTestSuite) account(category domain.AccountCategory) *domain.Account {
	acc, err := suite.svc.Account.CreateAccount(suite.ctx, dto.CreateAccountRequest{
		Code:     suite.prefix + "-" + uuid.NewString()[:8],
		Name:     "Integration account",
		Category: category,
	}, suite.userID)
	suite.Require().NoError(err)
	return acc
}

func (suite *PostgresTestSuite) dealWithPlan(amount string) string {
	dealID := "D-" + uuid.NewString()
	_, err := suite.svc.Deal.RegisterDeal(suite.ctx, dto.RegisterDealRequest{DealID: dealID, ClientID: "C-1", Amount: decimal.RequireFromString(amount)}, suite.userID)
	suite.Require().NoError(err)
	_, err = suite.svc.PaymentPlan.CreatePaymentPlan(suite.ctx, dto.CreatePaymentPlanRequest{
		DealID: dealID,
		Installments: []dto.InstallmentRequest{
			{Amount: decimal.RequireFromString(amount), DueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
	}, suite.userID)
	suite.Require().NoError(err)
	return dealID
}

func (suite *PostgresTestSuite) TestReferenceCounterIsSequentialUnderConcurrency() {
	cash := suite.account(domain.Asset)
	revenue := suite.account(domain.Revenue)

	const posts = 8
	codes := make([]string, posts)
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := suite.svc.Journal.PostJournalEntry(suite.ctx, dto.PostJournalEntryRequest{
				Description: "sale",
				Lines: []dto.JournalLineRequest{
					{AccountID: cash.AccountID, Debit: decimal.NewFromInt(10)},
					{AccountID: revenue.AccountID, Credit: decimal.NewFromInt(10)},
				},
			}, suite.userID)
			if suite.NoError(err) {
				codes[i] = entry.ReferenceCode
			}
		}(i)
	}
	wg.Wait()

	sort.Strings(codes)
	for i, code := range codes {
		suite.Equal(fmt.Sprintf("%s-20240315-%03d", suite.prefix, i+1), code)
	}
}

func (suite *PostgresTestSuite) TestWithinDealLockSerializesOneDeal() {
	dealID := "D-" + uuid.NewString()
	entered := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- suite.repos.PaymentPlanRepo.WithinDealLock(suite.ctx, dealID, func(context.Context, portsrepo.PlanTx) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	// Another deal is not blocked.
	suite.Require().NoError(suite.repos.PaymentPlanRepo.WithinDealLock(suite.ctx, "D-"+uuid.NewString(), func(context.Context, portsrepo.PlanTx) error {
		return nil
	}))

	waiterIn := make(chan struct{})
	waiterDone := make(chan error, 1)
	go func() {
		waiterDone <- suite.repos.PaymentPlanRepo.WithinDealLock(suite.ctx, dealID, func(context.Context, portsrepo.PlanTx) error {
			close(waiterIn)
			return nil
		})
	}()

	select {
	case <-waiterIn:
		suite.FailNow("second caller entered while the deal lock was held")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	suite.Require().NoError(<-holderDone)
	suite.Require().NoError(<-waiterDone)
	<-waiterIn
}

func (suite *PostgresTestSuite) TestConcurrentReceiptsAllocateOnce() {
	dealID := suite.dealWithPlan("1000")

	var wg sync.WaitGroup
	results := make([]*domain.Receipt, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := suite.svc.Receipt.CreateReceipt(suite.ctx, dto.CreateReceiptRequest{DealID: dealID, Amount: decimal.NewFromInt(600), Method: domain.Bank}, suite.userID)
			if suite.NoError(err) {
				results[i] = r
			}
		}(i)
	}
	wg.Wait()
	suite.Require().NotNil(results[0])
	suite.Require().NotNil(results[1])

	allocated := results[0].AllocatedAmount.Add(results[1].AllocatedAmount)
	unallocated := results[0].UnallocatedAmount.Add(results[1].UnallocatedAmount)
	suite.True(allocated.Equal(decimal.NewFromInt(1000)), allocated.String())
	suite.True(unallocated.Equal(decimal.NewFromInt(200)), unallocated.String())

	plan, err := suite.svc.PaymentPlan.GetPaymentPlanByDeal(suite.ctx, dealID)
	suite.Require().NoError(err)
	suite.True(plan.Remaining.IsZero())
	suite.Equal(domain.PlanCompleted, plan.Status)
}

func (suite *PostgresTestSuite) TestLinkingVoidedReceiptConflicts() {
	dealID := suite.dealWithPlan("500")
	receipt, err := suite.svc.Receipt.CreateReceipt(suite.ctx, dto.CreateReceiptRequest{DealID: dealID, Amount: decimal.NewFromInt(100), Method: domain.Cash}, suite.userID)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.svc.Receipt.DeleteReceipt(suite.ctx, receipt.ReceiptID, suite.userID))

	cash := suite.account(domain.Asset)
	receivable := suite.account(domain.Asset)
	entry, err := suite.svc.Journal.PostJournalEntry(suite.ctx, dto.PostJournalEntryRequest{
		Description: "late posting",
		Lines: []dto.JournalLineRequest{
			{AccountID: cash.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: receivable.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}, suite.userID)
	suite.Require().NoError(err)

	err = suite.repos.PaymentPlanRepo.WithinDealLock(suite.ctx, dealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
		return tx.SetReceiptJournalEntry(ctx, receipt.ReceiptID, entry.EntryID)
	})
	suite.ErrorIs(err, apperrors.ErrConflict)

	err = suite.repos.PaymentPlanRepo.WithinDealLock(suite.ctx, dealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
		return tx.SetReceiptJournalEntry(ctx, "missing", entry.EntryID)
	})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *PostgresTestSuite) TestVoidRefusesReversalPairs() {
	cash := suite.account(domain.Asset)
	revenue := suite.account(domain.Revenue)
	entry, err := suite.svc.Journal.PostJournalEntry(suite.ctx, dto.PostJournalEntryRequest{
		Description: "sale",
		Lines: []dto.JournalLineRequest{
			{AccountID: cash.AccountID, Debit: decimal.NewFromInt(25)},
			{AccountID: revenue.AccountID, Credit: decimal.NewFromInt(25)},
		},
	}, suite.userID)
	suite.Require().NoError(err)
	reversal, err := suite.svc.Journal.ReverseJournalEntry(suite.ctx, entry.EntryID, suite.userID)
	suite.Require().NoError(err)

	journal := suite.repos.JournalRepo
	suite.ErrorIs(journal.VoidJournal(suite.ctx, entry.EntryID, suite.userID, suite.now), apperrors.ErrConflict)
	suite.ErrorIs(journal.VoidJournal(suite.ctx, reversal.EntryID, suite.userID, suite.now), apperrors.ErrConflict)

	balance, err := suite.svc.Balance.GetAccountBalance(suite.ctx, cash.AccountID)
	suite.Require().NoError(err)
	suite.True(balance.Balance.IsZero())
}

func (suite *PostgresTestSuite) TestDuplicateAccountCode() {
	acc := suite.account(domain.Asset)
	_, err := suite.svc.Account.CreateAccount(suite.ctx, dto.CreateAccountRequest{Code: acc.Code, Name: "Copy", Category: domain.Asset}, suite.userID)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func TestPostgresTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}
