package domain

import (
	"encoding/json"
	"strings"
)

// AccountCategory classifies an account for balance arithmetic.
type AccountCategory string

const (
	Asset     AccountCategory = "ASSET"
	Liability AccountCategory = "LIABILITY"
	Equity    AccountCategory = "EQUITY"
	Revenue   AccountCategory = "REVENUE"
	Expense   AccountCategory = "EXPENSE"
)

// NormalizeAccountCategory upper-cases the input and defaults an empty value to Asset.
// Unknown values are returned as-is so the caller can reject them.
func NormalizeAccountCategory(s string) AccountCategory {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Asset
	}
	if s == "INCOME" {
		return Revenue
	}
	return AccountCategory(s)
}

// IsValid reports whether c is one of the five known categories.
func (c AccountCategory) IsValid() bool {
	switch c {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the category follows the debit-minus-credit rule.
// Unknown categories fall back to the asset rule.
func (c AccountCategory) IsDebitNormal() bool {
	switch c {
	case Liability, Equity, Revenue:
		return false
	}
	return true
}

// UnmarshalJSON normalizes the category at the JSON boundary.
func (c *AccountCategory) UnmarshalJSON(b []byte) error {
	var s string
	if string(b) != "null" {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*c = NormalizeAccountCategory(s)
	return nil
}

// Account is an entry in the chart of accounts.
type Account struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"` // unique, human-assigned
	Name        string          `json:"name"`
	Category    AccountCategory `json:"category"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
	AuditFields
}
