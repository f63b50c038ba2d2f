package pgsql

import (
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/models"
)

func toModelAudit(a domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}

func toDomainAudit(a models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}

func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:   d.AccountID,
		Code:        d.Code,
		Name:        d.Name,
		Category:    string(d.Category),
		Description: d.Description,
		IsActive:    d.IsActive,
		AuditFields: toModelAudit(d.AuditFields),
	}
}

func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:   m.AccountID,
		Code:        m.Code,
		Name:        m.Name,
		Category:    domain.AccountCategory(m.Category),
		Description: m.Description,
		IsActive:    m.IsActive,
		AuditFields: toDomainAudit(m.AuditFields),
	}
}

func toModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:          d.EntryID,
		ReferenceCode:    d.ReferenceCode,
		EntryDate:        d.EntryDate,
		Description:      d.Description,
		Status:           string(d.Status),
		Lifecycle:        string(d.Lifecycle),
		OriginalEntryID:  d.OriginalEntryID,
		ReversingEntryID: d.ReversingEntryID,
		SourceType:       d.SourceType,
		SourceID:         d.SourceID,
		AuditFields:      toModelAudit(d.AuditFields),
	}
}

func toDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	entry := domain.JournalEntry{
		EntryID:          m.EntryID,
		ReferenceCode:    m.ReferenceCode,
		EntryDate:        m.EntryDate,
		Description:      m.Description,
		Status:           domain.JournalStatus(m.Status),
		Lifecycle:        domain.Lifecycle(m.Lifecycle),
		OriginalEntryID:  m.OriginalEntryID,
		ReversingEntryID: m.ReversingEntryID,
		SourceType:       m.SourceType,
		SourceID:         m.SourceID,
		AuditFields:      toDomainAudit(m.AuditFields),
		Lines:            make([]domain.JournalLine, 0, len(lines)),
	}
	for _, l := range lines {
		entry.Lines = append(entry.Lines, domain.JournalLine{
			LineID:    l.LineID,
			EntryID:   l.EntryID,
			LineNo:    l.LineNo,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Notes:     l.Notes,
			Lifecycle: domain.Lifecycle(l.Lifecycle),
		})
	}
	return entry
}

func toDomainPlan(m models.PaymentPlan, installments []models.Installment) domain.PaymentPlan {
	plan := domain.PaymentPlan{
		PlanID:       m.PlanID,
		DealID:       m.DealID,
		ClientID:     m.ClientID,
		TotalAmount:  m.TotalAmount,
		DownPayment:  m.DownPayment,
		TotalPaid:    m.TotalPaid,
		Remaining:    m.Remaining,
		Status:       domain.PlanStatus(m.Status),
		IsActive:     m.IsActive,
		AuditFields:  toDomainAudit(m.AuditFields),
		Installments: make([]domain.Installment, 0, len(installments)),
	}
	for _, i := range installments {
		plan.Installments = append(plan.Installments, toDomainInstallment(i))
	}
	return plan
}

func toDomainInstallment(m models.Installment) domain.Installment {
	return domain.Installment{
		InstallmentID:     m.InstallmentID,
		PlanID:            m.PlanID,
		InstallmentNumber: m.InstallmentNumber,
		Type:              domain.InstallmentType(m.Type),
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		PaidAmount:        m.PaidAmount,
		Remaining:         m.Remaining,
		Status:            domain.InstallmentStatus(m.Status),
		PaymentMode:       m.PaymentMode,
		Notes:             m.Notes,
		AuditFields:       toDomainAudit(m.AuditFields),
	}
}

func toDomainReceipt(m models.Receipt, allocations []models.Allocation) domain.Receipt {
	receipt := domain.Receipt{
		ReceiptID:         m.ReceiptID,
		ReferenceCode:     m.ReferenceCode,
		DealID:            m.DealID,
		ClientID:          m.ClientID,
		PlanID:            m.PlanID,
		Amount:            m.Amount,
		AllocatedAmount:   m.AllocatedAmount,
		UnallocatedAmount: m.UnallocatedAmount,
		Method:            domain.PaymentMethod(m.Method),
		ReceiptDate:       m.ReceiptDate,
		Notes:             m.Notes,
		ReceivedBy:        m.ReceivedBy,
		Lifecycle:         domain.Lifecycle(m.Lifecycle),
		JournalEntryID:    m.JournalEntryID,
		AuditFields:       toDomainAudit(m.AuditFields),
		Allocations:       make([]domain.Allocation, 0, len(allocations)),
	}
	for _, a := range allocations {
		receipt.Allocations = append(receipt.Allocations, domain.Allocation{
			AllocationID:      a.AllocationID,
			ReceiptID:         a.ReceiptID,
			InstallmentID:     a.InstallmentID,
			InstallmentNumber: a.InstallmentNumber,
			AmountAllocated:   a.AmountAllocated,
		})
	}
	return receipt
}
