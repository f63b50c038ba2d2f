package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a receipt was paid.
type PaymentMethod string

const (
	Cash PaymentMethod = "Cash"
	Bank PaymentMethod = "Bank"
)

// NormalizePaymentMethod maps case variants onto the known methods.
// Unknown values are returned trimmed so the caller can reject them.
func NormalizePaymentMethod(s string) PaymentMethod {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "cash":
		return Cash
	case "bank", "bank_transfer":
		return Bank
	}
	return PaymentMethod(s)
}

// IsValid reports whether m is Cash or Bank.
func (m PaymentMethod) IsValid() bool {
	return m == Cash || m == Bank
}

// UnmarshalJSON normalizes the method at the JSON boundary.
func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = NormalizePaymentMethod(s)
	return nil
}

// Receipt is a single incoming payment and the allocations it produced.
type Receipt struct {
	ReceiptID         string          `json:"receiptID"`
	ReferenceCode     string          `json:"referenceCode"`
	DealID            string          `json:"dealID"`
	ClientID          string          `json:"clientID"`
	PlanID            string          `json:"planID"`
	Amount            decimal.Decimal `json:"amount"`
	AllocatedAmount   decimal.Decimal `json:"allocatedAmount"`
	UnallocatedAmount decimal.Decimal `json:"unallocatedAmount"` // carried as client credit
	Method            PaymentMethod   `json:"method"`
	ReceiptDate       time.Time       `json:"receiptDate"`
	Notes             string          `json:"notes"`
	ReceivedBy        string          `json:"receivedBy"`
	Lifecycle         Lifecycle       `json:"lifecycle"`
	JournalEntryID    *string         `json:"journalEntryID,omitempty"`
	Allocations       []Allocation    `json:"allocations"`
	AuditFields
}

// Allocation records how much of a receipt went to one installment.
type Allocation struct {
	AllocationID      string          `json:"allocationID"`
	ReceiptID         string          `json:"receiptID"`
	InstallmentID     string          `json:"installmentID"`
	InstallmentNumber int             `json:"installmentNumber"`
	AmountAllocated   decimal.Decimal `json:"amountAllocated"`
}

// AllocationResult is the outcome of walking a schedule with a payment.
type AllocationResult struct {
	Allocations []Allocation
	Updated     []Installment // only installments that received money
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
}

// AllocateFIFO distributes amount over installments with remaining > 0,
// earliest due date first (installment number breaks ties).
// The input slice is not modified.
func AllocateFIFO(installments []Installment, amount decimal.Decimal) AllocationResult {
	open := make([]Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Remaining.IsPositive() {
			open = append(open, inst)
		}
	}
	SortForAllocation(open)

	res := AllocationResult{Allocated: decimal.Zero}
	unallocated := amount
	for _, inst := range open {
		take := decimal.Min(unallocated, inst.Remaining)
		if !take.IsPositive() {
			break
		}
		inst.PaidAmount = inst.PaidAmount.Add(take)
		inst.Remaining = inst.Remaining.Sub(take)
		if inst.Remaining.IsZero() {
			inst.Status = InstallmentPaid
		} else {
			inst.Status = InstallmentPartial
		}
		res.Updated = append(res.Updated, inst)
		res.Allocations = append(res.Allocations, Allocation{
			InstallmentID:     inst.InstallmentID,
			InstallmentNumber: inst.InstallmentNumber,
			AmountAllocated:   take,
		})
		unallocated = unallocated.Sub(take)
		if unallocated.IsZero() {
			break
		}
	}
	res.Unallocated = unallocated
	res.Allocated = amount.Sub(unallocated)
	return res
}

// ReleaseAllocations undoes allocations against installments and returns the
// touched installments. It fails when an allocation references an unknown
// installment or would leave a negative paid amount.
func ReleaseAllocations(installments []Installment, allocations []Allocation) ([]Installment, error) {
	byID := make(map[string]Installment, len(installments))
	for _, inst := range installments {
		byID[inst.InstallmentID] = inst
	}
	order := make([]string, 0, len(allocations))
	for _, alloc := range allocations {
		inst, ok := byID[alloc.InstallmentID]
		if !ok {
			return nil, fmt.Errorf("allocation %s references unknown installment %s", alloc.AllocationID, alloc.InstallmentID)
		}
		inst.PaidAmount = inst.PaidAmount.Sub(alloc.AmountAllocated)
		if inst.PaidAmount.IsNegative() {
			return nil, fmt.Errorf("releasing %s from installment %s leaves a negative paid amount", alloc.AmountAllocated, inst.InstallmentID)
		}
		inst.Remaining = inst.Remaining.Add(alloc.AmountAllocated)
		inst.RefreshStatus()
		byID[inst.InstallmentID] = inst
		order = append(order, inst.InstallmentID)
	}
	released := make([]Installment, 0, len(order))
	done := make(map[string]bool, len(order))
	for _, id := range order {
		if done[id] {
			continue
		}
		done[id] = true
		released = append(released, byID[id])
	}
	return released, nil
}
