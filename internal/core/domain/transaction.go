package domain

import "github.com/shopspring/decimal"

// JournalLine is a single line of a journal entry affecting one account.
// Exactly one of Debit and Credit is positive.
type JournalLine struct {
	LineID    string          `json:"lineID"`
	EntryID   string          `json:"entryID"`
	LineNo    int             `json:"lineNo"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes"`
	Lifecycle Lifecycle       `json:"lifecycle"`
}

// HasSingleSide reports whether the line carries a strictly positive debit xor credit.
func (l JournalLine) HasSingleSide() bool {
	debit := l.Debit.IsPositive()
	credit := l.Credit.IsPositive()
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return false
	}
	return debit != credit
}

// Swapped returns a copy with the debit and credit sides exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}
