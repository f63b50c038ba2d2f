package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
)

// DealLocker runs a unit of work with exclusive access to one deal's payment plan.
// Implementations must commit all writes made through the PlanTx when fn
// returns nil and discard all of them otherwise. Work on different deals may
// run in parallel.
type DealLocker interface {
	WithinDealLock(ctx context.Context, dealID string, fn func(ctx context.Context, tx PlanTx) error) error
}

// PlanTx is the transactional view of plans, installments and receipts.
type PlanTx interface {
	PlanReader
	ReceiptReader

	// InsertPlan stores a plan together with its installments.
	InsertPlan(ctx context.Context, plan domain.PaymentPlan) error

	// UpdatePlan stores totals, status and the active flag of a plan.
	UpdatePlan(ctx context.Context, plan domain.PaymentPlan) error

	// UpdateInstallments stores paid amount, remaining, status and the editable fields.
	UpdateInstallments(ctx context.Context, installments []domain.Installment) error

	// InsertReceipt stores a receipt and its allocations and assigns the next
	// reference code for refPrefix.
	InsertReceipt(ctx context.Context, receipt domain.Receipt, refPrefix string) (*domain.Receipt, error)

	// VoidReceipt moves a receipt to the Voided lifecycle.
	VoidReceipt(ctx context.Context, receiptID string, userID string, now time.Time) error

	// SetReceiptJournalEntry links an Active receipt to the journal entry that
	// booked it. A voided receipt yields apperrors.ErrConflict.
	SetReceiptJournalEntry(ctx context.Context, receiptID string, entryID string) error
}
