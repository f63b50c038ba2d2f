package services

import (
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, extra ...ServiceOption) *portssvc.ServiceContainer {
	options := []ServiceOption{
		WithJournalRefPrefix(cfg.JournalRefPrefix),
		WithReceiptRefPrefix(cfg.ReceiptRefPrefix),
	}
	if repos.BalanceCache != nil {
		options = append(options, WithBalanceCache(repos.BalanceCache))
	}
	options = append(options, extra...)

	container := &portssvc.ServiceContainer{}
	container.Account = NewAccountService(repos.AccountRepo, options...)
	container.Journal = NewJournalService(repos.AccountRepo, repos.JournalRepo, options...)
	container.Balance = NewBalanceService(repos.AccountRepo, repos.JournalRepo, options...)
	container.PaymentPlan = NewPaymentPlanService(repos.PaymentPlanRepo, options...)
	container.Deal = NewDealService(repos.PaymentPlanRepo, options...)

	receiptOptions := options
	if cfg.ReceiptPostingEnabled {
		receiptOptions = append(receiptOptions[:len(receiptOptions):len(receiptOptions)], WithReceiptPosting(ReceiptPosting{
			Journal:           container.Journal,
			Accounts:          container.Account,
			CashAccount:       cfg.ReceiptCashAccount,
			BankAccount:       cfg.ReceiptBankAccount,
			ReceivableAccount: cfg.ReceiptReceivableAccount,
		}))
	}
	container.Receipt = NewReceiptService(repos.PaymentPlanRepo, receiptOptions...)

	return container
}
