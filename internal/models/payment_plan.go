package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal is a row of the deals table, mirrored from the CRM.
type Deal struct {
	DealID   string          `db:"deal_id"`
	ClientID string          `db:"client_id"`
	Title    string          `db:"title"`
	Amount   decimal.Decimal `db:"amount"`
}

// PaymentPlan is a row of the payment_plans table.
type PaymentPlan struct {
	PlanID      string          `db:"plan_id"`
	DealID      string          `db:"deal_id"`
	ClientID    string          `db:"client_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	DownPayment decimal.Decimal `db:"down_payment"`
	TotalPaid   decimal.Decimal `db:"total_paid"`
	Remaining   decimal.Decimal `db:"remaining"`
	Status      string          `db:"status"`
	IsActive    bool            `db:"is_active"`
	AuditFields
}

// Installment is a row of the installments table.
type Installment struct {
	InstallmentID     string          `db:"installment_id"`
	PlanID            string          `db:"plan_id"`
	InstallmentNumber int             `db:"installment_number"`
	Type              string          `db:"installment_type"`
	Amount            decimal.Decimal `db:"amount"`
	DueDate           time.Time       `db:"due_date"`
	PaidAmount        decimal.Decimal `db:"paid_amount"`
	Remaining         decimal.Decimal `db:"remaining"`
	Status            string          `db:"status"`
	PaymentMode       string          `db:"payment_mode"`
	Notes             string          `db:"notes"`
	AuditFields
}
