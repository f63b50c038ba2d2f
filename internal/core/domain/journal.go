package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// JournalEntry is a dated, balanced container of journal lines.
type JournalEntry struct {
	EntryID          string        `json:"entryID"`
	ReferenceCode    string        `json:"referenceCode"` // PREFIX-YYYYMMDD-NNN
	EntryDate        time.Time     `json:"entryDate"`
	Description      string        `json:"description"`
	Status           JournalStatus `json:"status"`
	Lifecycle        Lifecycle     `json:"lifecycle"`
	OriginalEntryID  *string       `json:"originalEntryID,omitempty"`  // set on a reversal
	ReversingEntryID *string       `json:"reversingEntryID,omitempty"` // set on a reversed entry
	SourceType       string        `json:"sourceType,omitempty"`       // e.g. "receipt"
	SourceID         string        `json:"sourceID,omitempty"`
	Lines            []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// TotalDebit sums the debit side of all lines.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// AccountIDs returns the distinct accounts touched by the entry, in line order.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}
