package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/estate_ledger_core/internal/adapters/database/memory"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/core/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
)

// ledgerSuite runs services against the in-memory store with a fixed clock.
type ledgerSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	svc    *portssvc.ServiceContainer
	now    time.Time
	userID string
}

func (s *ledgerSuite) newContainer(cfg *config.Config, extra ...services.ServiceOption) {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.userID = uuid.NewString()
	if s.now.IsZero() {
		s.now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	}
	if cfg == nil {
		cfg = &config.Config{JournalRefPrefix: "JE", ReceiptRefPrefix: "RCP"}
	}
	options := append([]services.ServiceOption{services.WithClock(func() time.Time { return s.now })}, extra...)
	s.svc = services.NewServiceContainer(cfg, s.store.Repositories(), options...)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ledgerSuite) account(code string, category domain.AccountCategory) *domain.Account {
	acc, err := s.svc.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{Code: code, Name: "Account " + code, Category: category}, s.userID)
	s.Require().NoError(err)
	return acc
}

func (s *ledgerSuite) post(description string, lines ...dto.JournalLineRequest) (*domain.JournalEntry, error) {
	return s.svc.Journal.PostJournalEntry(s.ctx, dto.PostJournalEntryRequest{Description: description, Lines: lines}, s.userID)
}

func debit(accountID, amount string) dto.JournalLineRequest {
	return dto.JournalLineRequest{AccountID: accountID, Debit: dec(amount)}
}

func credit(accountID, amount string) dto.JournalLineRequest {
	return dto.JournalLineRequest{AccountID: accountID, Credit: dec(amount)}
}

func (s *ledgerSuite) balance(accountID string) decimal.Decimal {
	b, err := s.svc.Balance.GetAccountBalance(s.ctx, accountID)
	s.Require().NoError(err)
	return b.Balance
}

func (s *ledgerSuite) deal(dealID, clientID, amount string) {
	s.Require().NoError(s.store.SaveDeal(s.ctx, domain.Deal{DealID: dealID, ClientID: clientID, Title: "Unit " + dealID, Amount: dec(amount)}))
}

func (s *ledgerSuite) plan(dealID, downPayment string, installments ...dto.InstallmentRequest) *domain.PaymentPlan {
	req := dto.CreatePaymentPlanRequest{DealID: dealID, Installments: installments}
	if downPayment != "" {
		req.DownPayment = dec(downPayment)
	}
	plan, err := s.svc.PaymentPlan.CreatePaymentPlan(s.ctx, req, s.userID)
	s.Require().NoError(err)
	return plan
}

func inst(amount string, due time.Time) dto.InstallmentRequest {
	return dto.InstallmentRequest{Amount: dec(amount), DueDate: due}
}

func (s *ledgerSuite) receipt(dealID, amount string, method domain.PaymentMethod) (*domain.Receipt, error) {
	return s.svc.Receipt.CreateReceipt(s.ctx, dto.CreateReceiptRequest{DealID: dealID, Amount: dec(amount), Method: method}, s.userID)
}

// installmentByNumber finds an installment of a freshly loaded plan.
func (s *ledgerSuite) installmentByNumber(planID string, number int) domain.Installment {
	plan, err := s.svc.PaymentPlan.GetPaymentPlan(s.ctx, planID)
	s.Require().NoError(err)
	for _, i := range plan.Installments {
		if i.InstallmentNumber == number {
			return i
		}
	}
	s.FailNow("installment not found", "plan %s has no installment %d", planID, number)
	return domain.Installment{}
}
