package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
// An empty category defaults to ASSET.
type CreateAccountRequest struct {
	Code        string                 `json:"code" binding:"required,max=32"`
	Name        string                 `json:"name" binding:"required"`
	Category    domain.AccountCategory `json:"category"`
	Description string                 `json:"description"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name        *string                 `json:"name"`
	Category    *domain.AccountCategory `json:"category"`
	Description *string                 `json:"description"`
}

// ListAccountsParams holds paging for account listing.
type ListAccountsParams struct {
	IncludeInactive bool `form:"includeInactive"`
	Limit           int  `form:"limit" binding:"min=0,max=500"`
	Offset          int  `form:"offset" binding:"min=0"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string                 `json:"accountID"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Category      domain.AccountCategory `json:"category"`
	Description   string                 `json:"description"`
	IsActive      bool                   `json:"isActive"`
	CreatedAt     time.Time              `json:"createdAt"`
	CreatedBy     string                 `json:"createdBy"`
	LastUpdatedAt time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy string                 `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Code:          acc.Code,
		Name:          acc.Name,
		Category:      acc.Category,
		Description:   acc.Description,
		IsActive:      acc.IsActive,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// AccountBalanceResponse is the derived balance of an account.
type AccountBalanceResponse struct {
	AccountID   string                 `json:"accountID"`
	Code        string                 `json:"code"`
	Category    domain.AccountCategory `json:"category"`
	TotalDebit  string                 `json:"totalDebit"`
	TotalCredit string                 `json:"totalCredit"`
	Balance     string                 `json:"balance"`
	AsOf        time.Time              `json:"asOf"`
}

// ToAccountBalanceResponse formats amounts with two decimals.
func ToAccountBalanceResponse(b *domain.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountID:   b.AccountID,
		Code:        b.Code,
		Category:    b.Category,
		TotalDebit:  money(b.TotalDebit),
		TotalCredit: money(b.TotalCredit),
		Balance:     money(b.Balance),
		AsOf:        b.AsOf,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
