package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a row of the receipts table.
type Receipt struct {
	ReceiptID         string          `db:"receipt_id"`
	ReferenceCode     string          `db:"reference_code"`
	DealID            string          `db:"deal_id"`
	ClientID          string          `db:"client_id"`
	PlanID            string          `db:"plan_id"`
	Amount            decimal.Decimal `db:"amount"`
	AllocatedAmount   decimal.Decimal `db:"allocated_amount"`
	UnallocatedAmount decimal.Decimal `db:"unallocated_amount"`
	Method            string          `db:"method"`
	ReceiptDate       time.Time       `db:"receipt_date"`
	Notes             string          `db:"notes"`
	ReceivedBy        string          `db:"received_by"`
	Lifecycle         string          `db:"lifecycle"`
	JournalEntryID    *string         `db:"journal_entry_id"` // Nullable
	AuditFields
}

// Allocation is a row of the allocations table.
type Allocation struct {
	AllocationID      string          `db:"allocation_id"`
	ReceiptID         string          `db:"receipt_id"`
	InstallmentID     string          `db:"installment_id"`
	InstallmentNumber int             `db:"installment_number"`
	AmountAllocated   decimal.Decimal `db:"amount_allocated"`
}
