package services

import (
	"context"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

// PaymentPlanReaderSvc defines read operations for payment plans.
type PaymentPlanReaderSvc interface {
	GetPaymentPlan(ctx context.Context, planID string) (*domain.PaymentPlan, error)

	// GetPaymentPlanByDeal returns the deal's active plan.
	GetPaymentPlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error)

	// SummarizePlan derives installment counts and paid totals.
	SummarizePlan(ctx context.Context, planID string) (*domain.PlanSummary, error)
}

// PaymentPlanWriterSvc defines write operations for payment plans.
type PaymentPlanWriterSvc interface {
	// CreatePaymentPlan creates a deal's schedule. The schedule must add up to the deal amount.
	CreatePaymentPlan(ctx context.Context, req dto.CreatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error)

	// UpdatePaymentPlan always fails: plans are immutable after creation.
	UpdatePaymentPlan(ctx context.Context, planID string, req dto.UpdatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error)

	// UpdateInstallment edits the due date, notes or payment mode of an unpaid installment.
	UpdateInstallment(ctx context.Context, planID string, installmentID string, req dto.UpdateInstallmentRequest, userID string) (*domain.Installment, error)

	// SupersedePlan replaces a deal's plan that has not received any money yet.
	SupersedePlan(ctx context.Context, planID string, req dto.CreatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error)
}

// PaymentPlanSvcFacade combines all plan-related service interfaces
type PaymentPlanSvcFacade interface {
	PaymentPlanReaderSvc
	PaymentPlanWriterSvc
}

// ReceiptReaderSvc defines read operations for receipts.
type ReceiptReaderSvc interface {
	GetReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error)
	ListReceiptsByDeal(ctx context.Context, dealID string, params dto.ListReceiptsParams) (*dto.ListReceiptsResponse, error)
}

// ReceiptWriterSvc defines write operations for receipts.
type ReceiptWriterSvc interface {
	// CreateReceipt records a payment and allocates it oldest installment first.
	CreateReceipt(ctx context.Context, req dto.CreateReceiptRequest, userID string) (*domain.Receipt, error)

	// DeleteReceipt reverses every allocation of the receipt and voids it.
	DeleteReceipt(ctx context.Context, receiptID string, userID string) error
}

// ReceiptSvcFacade combines all receipt-related service interfaces
type ReceiptSvcFacade interface {
	ReceiptReaderSvc
	ReceiptWriterSvc
}
