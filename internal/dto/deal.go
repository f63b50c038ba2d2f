package dto

import (
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterDealRequest carries a deal as pushed by the CRM.
type RegisterDealRequest struct {
	DealID   string          `json:"dealID" binding:"required"`
	ClientID string          `json:"clientID"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
}

// DealResponse defines the data returned for a deal.
type DealResponse struct {
	DealID   string `json:"dealID"`
	ClientID string `json:"clientID"`
	Title    string `json:"title"`
	Amount   string `json:"amount"`
}

func ToDealResponse(d *domain.Deal) DealResponse {
	return DealResponse{
		DealID:   d.DealID,
		ClientID: d.ClientID,
		Title:    d.Title,
		Amount:   d.Amount.StringFixed(2),
	}
}
