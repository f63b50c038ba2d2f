package repositories

import (
	"context"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
)

// DealReader resolves deals owned by the CRM.
type DealReader interface {
	FindDealByID(ctx context.Context, dealID string) (*domain.Deal, error)
}

// DealWriter seeds deals into the store.
type DealWriter interface {
	SaveDeal(ctx context.Context, deal domain.Deal) error
}

// PlanReader defines read operations for payment plans.
// Returned plans carry their installments.
type PlanReader interface {
	FindPlanByID(ctx context.Context, planID string) (*domain.PaymentPlan, error)

	// FindActivePlanByDeal returns apperrors.ErrNotFound when the deal has no active plan.
	FindActivePlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error)
}

// ReceiptReader defines read operations for receipts.
// Returned receipts carry their allocations.
type ReceiptReader interface {
	FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error)
}

// PaymentPlanRepositoryFacade combines plan and receipt persistence.
type PaymentPlanRepositoryFacade interface {
	DealReader
	DealWriter
	PlanReader
	ReceiptReader
	DealLocker

	// ListReceiptsByDeal returns Active receipts newest first, with a token for the next page.
	ListReceiptsByDeal(ctx context.Context, dealID string, limit int, nextToken *string) ([]domain.Receipt, *string, error)
}

// DealRepositoryFacade stores the deal references pushed by the CRM.
type DealRepositoryFacade interface {
	DealReader
	DealWriter
}
