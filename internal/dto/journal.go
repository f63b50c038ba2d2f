package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of a journal posting.
// Amounts may arrive as JSON strings or numbers; a missing side is zero.
type JournalLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes"`
}

// PostJournalEntryRequest defines the data needed to post a journal entry.
type PostJournalEntryRequest struct {
	Date        time.Time            `json:"date"`
	Description string               `json:"description" binding:"required"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,dive"`
	SourceType  string               `json:"sourceType"`
	SourceID    string               `json:"sourceID"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID    string           `json:"lineID"`
	LineNo    int              `json:"lineNo"`
	AccountID string           `json:"accountID"`
	Debit     string           `json:"debit"`
	Credit    string           `json:"credit"`
	Notes     string           `json:"notes"`
	Lifecycle domain.Lifecycle `json:"lifecycle"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	EntryID          string                `json:"entryID"`
	ReferenceCode    string                `json:"referenceCode"`
	Date             time.Time             `json:"date"`
	Description      string                `json:"description"`
	Status           domain.JournalStatus  `json:"status"`
	Lifecycle        domain.Lifecycle      `json:"lifecycle"`
	OriginalEntryID  *string               `json:"originalEntryID,omitempty"`
	ReversingEntryID *string               `json:"reversingEntryID,omitempty"`
	TotalDebit       string                `json:"totalDebit"`
	TotalCredit      string                `json:"totalCredit"`
	Lines            []JournalLineResponse `json:"lines"`
	CreatedAt        time.Time             `json:"createdAt"`
	CreatedBy        string                `json:"createdBy"`
}

// ToJournalResponse converts a domain.JournalEntry to JournalResponse DTO.
func ToJournalResponse(e *domain.JournalEntry) JournalResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:    l.LineID,
			LineNo:    l.LineNo,
			AccountID: l.AccountID,
			Debit:     money(l.Debit),
			Credit:    money(l.Credit),
			Notes:     l.Notes,
			Lifecycle: l.Lifecycle,
		}
	}
	return JournalResponse{
		EntryID:          e.EntryID,
		ReferenceCode:    e.ReferenceCode,
		Date:             e.EntryDate,
		Description:      e.Description,
		Status:           e.Status,
		Lifecycle:        e.Lifecycle,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		TotalDebit:       money(e.TotalDebit()),
		TotalCredit:      money(e.TotalCredit()),
		Lines:            lines,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
}
