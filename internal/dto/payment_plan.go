package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InstallmentRequest is one regular installment of a new plan.
type InstallmentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	PaymentMode string          `json:"paymentMode"`
	Notes       string          `json:"notes"`
}

// CreatePaymentPlanRequest defines the data needed to create a plan.
// Installments are numbered 1..N in the given order; a positive DownPayment
// becomes installment 0.
type CreatePaymentPlanRequest struct {
	DealID             string               `json:"dealID" binding:"required"`
	ClientID           string               `json:"clientID"`
	DownPayment        decimal.Decimal      `json:"downPayment"`
	DownPaymentDueDate *time.Time           `json:"downPaymentDueDate"`
	Installments       []InstallmentRequest `json:"installments"`
}

// UpdatePaymentPlanRequest exists so callers get an explicit rejection; plans are immutable.
type UpdatePaymentPlanRequest struct {
	DownPayment  *decimal.Decimal     `json:"downPayment"`
	Installments []InstallmentRequest `json:"installments"`
}

// UpdateInstallmentRequest carries the fields editable before any payment.
type UpdateInstallmentRequest struct {
	Amount      *decimal.Decimal `json:"amount"` // always rejected; kept to report it explicitly
	DueDate     *time.Time       `json:"dueDate"`
	PaymentMode *string          `json:"paymentMode"`
	Notes       *string          `json:"notes"`
}

// InstallmentResponse defines the data returned for an installment.
type InstallmentResponse struct {
	InstallmentID     string                   `json:"installmentID"`
	InstallmentNumber int                      `json:"installmentNumber"`
	Type              domain.InstallmentType   `json:"type"`
	Amount            string                   `json:"amount"`
	DueDate           time.Time                `json:"dueDate"`
	PaidAmount        string                   `json:"paidAmount"`
	Remaining         string                   `json:"remaining"`
	Status            domain.InstallmentStatus `json:"status"`
	PaymentMode       string                   `json:"paymentMode"`
	Notes             string                   `json:"notes"`
}

// PaymentPlanResponse defines the data returned for a plan.
type PaymentPlanResponse struct {
	PlanID       string                `json:"planID"`
	DealID       string                `json:"dealID"`
	ClientID     string                `json:"clientID"`
	TotalAmount  string                `json:"totalAmount"`
	DownPayment  string                `json:"downPayment"`
	TotalPaid    string                `json:"totalPaid"`
	Remaining    string                `json:"remaining"`
	Status       domain.PlanStatus     `json:"status"`
	IsActive     bool                  `json:"isActive"`
	Installments []InstallmentResponse `json:"installments"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// ToInstallmentResponse converts an installment, reporting Overdue as of now.
func ToInstallmentResponse(inst domain.Installment, now time.Time) InstallmentResponse {
	return InstallmentResponse{
		InstallmentID:     inst.InstallmentID,
		InstallmentNumber: inst.InstallmentNumber,
		Type:              inst.Type,
		Amount:            money(inst.Amount),
		DueDate:           inst.DueDate,
		PaidAmount:        money(inst.PaidAmount),
		Remaining:         money(inst.Remaining),
		Status:            inst.EffectiveStatus(now),
		PaymentMode:       inst.PaymentMode,
		Notes:             inst.Notes,
	}
}

// ToPaymentPlanResponse converts a plan; installment statuses show Overdue as of now.
func ToPaymentPlanResponse(p *domain.PaymentPlan, now time.Time) PaymentPlanResponse {
	installments := make([]InstallmentResponse, len(p.Installments))
	for i, inst := range p.Installments {
		installments[i] = ToInstallmentResponse(inst, now)
	}
	return PaymentPlanResponse{
		PlanID:       p.PlanID,
		DealID:       p.DealID,
		ClientID:     p.ClientID,
		TotalAmount:  money(p.TotalAmount),
		DownPayment:  money(p.DownPayment),
		TotalPaid:    money(p.TotalPaid),
		Remaining:    money(p.Remaining),
		Status:       p.Status,
		IsActive:     p.IsActive,
		Installments: installments,
		CreatedAt:    p.CreatedAt,
	}
}
