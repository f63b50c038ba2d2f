package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is the derived balance of one account.
type AccountBalance struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"`
	Category    AccountCategory `json:"category"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Balance     decimal.Decimal `json:"balance"`
	AsOf        time.Time       `json:"asOf"`
}

// SignedBalance applies the category sign rule to debit and credit totals:
// asset/expense (and unknown) accounts are debit minus credit, the rest credit minus debit.
// The result is rounded to 2 decimal places.
func SignedBalance(category AccountCategory, totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	if category.IsDebitNormal() {
		return Round2(totalDebit.Sub(totalCredit))
	}
	return Round2(totalCredit.Sub(totalDebit))
}
