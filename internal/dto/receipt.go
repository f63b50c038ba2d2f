package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateReceiptRequest defines an incoming payment.
type CreateReceiptRequest struct {
	DealID     string               `json:"dealID" binding:"required"`
	ClientID   string               `json:"clientID"`
	Amount     decimal.Decimal      `json:"amount"`
	Method     domain.PaymentMethod `json:"method"`
	Date       time.Time            `json:"date"`
	Notes      string               `json:"notes"`
	ReceivedBy string               `json:"receivedBy"`
}

// ListReceiptsParams holds paging for receipt listing.
type ListReceiptsParams struct {
	Limit     int     `form:"limit" binding:"min=0,max=100"`
	NextToken *string `form:"nextToken"`
}

// AllocationResponse defines the data returned for an allocation.
type AllocationResponse struct {
	InstallmentID     string `json:"installmentID"`
	InstallmentNumber int    `json:"installmentNumber"`
	AmountAllocated   string `json:"amountAllocated"`
}

// ReceiptResponse defines the data returned for a receipt.
type ReceiptResponse struct {
	ReceiptID         string               `json:"receiptID"`
	ReferenceCode     string               `json:"referenceCode"`
	DealID            string               `json:"dealID"`
	ClientID          string               `json:"clientID"`
	PlanID            string               `json:"planID"`
	Amount            string               `json:"amount"`
	AllocatedAmount   string               `json:"allocatedAmount"`
	UnallocatedAmount string               `json:"unallocatedAmount"`
	Method            domain.PaymentMethod `json:"method"`
	Date              time.Time            `json:"date"`
	Notes             string               `json:"notes"`
	ReceivedBy        string               `json:"receivedBy"`
	JournalEntryID    *string              `json:"journalEntryID,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
}

// ListReceiptsResponse is one page of receipts.
type ListReceiptsResponse struct {
	Receipts  []ReceiptResponse `json:"receipts"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToReceiptResponse converts a domain.Receipt to ReceiptResponse DTO.
func ToReceiptResponse(r *domain.Receipt) ReceiptResponse {
	allocations := make([]AllocationResponse, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = AllocationResponse{
			InstallmentID:     a.InstallmentID,
			InstallmentNumber: a.InstallmentNumber,
			AmountAllocated:   money(a.AmountAllocated),
		}
	}
	return ReceiptResponse{
		ReceiptID:         r.ReceiptID,
		ReferenceCode:     r.ReferenceCode,
		DealID:            r.DealID,
		ClientID:          r.ClientID,
		PlanID:            r.PlanID,
		Amount:            money(r.Amount),
		AllocatedAmount:   money(r.AllocatedAmount),
		UnallocatedAmount: money(r.UnallocatedAmount),
		Method:            r.Method,
		Date:              r.ReceiptDate,
		Notes:             r.Notes,
		ReceivedBy:        r.ReceivedBy,
		JournalEntryID:    r.JournalEntryID,
		Allocations:       allocations,
	}
}

// ToReceiptResponses converts a slice of receipts.
func ToReceiptResponses(receipts []domain.Receipt) []ReceiptResponse {
	out := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = ToReceiptResponse(&receipts[i])
	}
	return out
}
