package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PlanStatus is the lifecycle of a payment plan.
type PlanStatus string

const (
	PlanActive     PlanStatus = "ACTIVE"
	PlanCompleted  PlanStatus = "COMPLETED"
	PlanSuperseded PlanStatus = "SUPERSEDED"
)

// InstallmentStatus is the payment state of an installment.
// Overdue is never stored; see Installment.EffectiveStatus.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "Pending"
	InstallmentPartial InstallmentStatus = "Partial"
	InstallmentPaid    InstallmentStatus = "Paid"
	InstallmentOverdue InstallmentStatus = "Overdue"
)

// InstallmentType distinguishes the down payment from regular installments.
type InstallmentType string

const (
	InstallmentTypeDownPayment InstallmentType = "down_payment"
	InstallmentTypeRegular     InstallmentType = "installment"
)

// Deal is the sale a payment plan amortizes. Deals are owned by the CRM.
type Deal struct {
	DealID   string          `json:"dealID"`
	ClientID string          `json:"clientID"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
}

// PaymentPlan is the amortization structure of one deal.
type PaymentPlan struct {
	PlanID       string          `json:"planID"`
	DealID       string          `json:"dealID"`
	ClientID     string          `json:"clientID"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	DownPayment  decimal.Decimal `json:"downPayment"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	Remaining    decimal.Decimal `json:"remaining"`
	Status       PlanStatus      `json:"status"`
	IsActive     bool            `json:"isActive"`
	Installments []Installment   `json:"installments,omitempty"`
	AuditFields
}

// ApplyPayment adds delta (negative to release) to TotalPaid and refreshes
// Remaining and Status.
func (p *PaymentPlan) ApplyPayment(delta decimal.Decimal) {
	p.TotalPaid = Round2(p.TotalPaid.Add(delta))
	p.Remaining = NonNegative(Round2(p.TotalAmount.Sub(p.TotalPaid)))
	if !p.IsActive {
		return
	}
	if p.Remaining.IsZero() {
		p.Status = PlanCompleted
	} else {
		p.Status = PlanActive
	}
}

// Installment is one scheduled portion of a plan.
type Installment struct {
	InstallmentID     string            `json:"installmentID"`
	PlanID            string            `json:"planID"`
	InstallmentNumber int               `json:"installmentNumber"` // 0 = down payment
	Type              InstallmentType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	DueDate           time.Time         `json:"dueDate"`
	PaidAmount        decimal.Decimal   `json:"paidAmount"`
	Remaining         decimal.Decimal   `json:"remaining"`
	Status            InstallmentStatus `json:"status"`
	PaymentMode       string            `json:"paymentMode"`
	Notes             string            `json:"notes"`
	AuditFields
}

// IsOverdue reports whether the installment is unpaid past its due date.
func (i Installment) IsOverdue(now time.Time) bool {
	return i.Status != InstallmentPaid && i.DueDate.Before(now)
}

// EffectiveStatus returns the stored status, or Overdue when IsOverdue holds.
func (i Installment) EffectiveStatus(now time.Time) InstallmentStatus {
	if i.IsOverdue(now) {
		return InstallmentOverdue
	}
	return i.Status
}

// RefreshStatus derives the stored status from amount and paid amount.
func (i *Installment) RefreshStatus() {
	switch {
	case i.Remaining.IsZero():
		i.Status = InstallmentPaid
	case i.PaidAmount.IsPositive() && i.PaidAmount.LessThan(i.Amount):
		i.Status = InstallmentPartial
	default:
		i.Status = InstallmentPending
	}
}

// SortForAllocation orders installments by due date, then installment number.
func SortForAllocation(installments []Installment) {
	sort.SliceStable(installments, func(a, b int) bool {
		da, db := installments[a].DueDate, installments[b].DueDate
		if !da.Equal(db) {
			return da.Before(db)
		}
		return installments[a].InstallmentNumber < installments[b].InstallmentNumber
	})
}

// PlanSummary is a derived view of a plan's schedule.
type PlanSummary struct {
	PlanID           string          `json:"planID"`
	DealID           string          `json:"dealID"`
	Status           PlanStatus      `json:"status"`
	InstallmentCount int             `json:"installmentCount"`
	PaidCount        int             `json:"paidCount"`
	UnpaidCount      int             `json:"unpaidCount"`
	PartialCount     int             `json:"partialCount"`
	OverdueCount     int             `json:"overdueCount"`
	TotalScheduled   decimal.Decimal `json:"totalScheduled"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	Remaining        decimal.Decimal `json:"remaining"`
	NextDueDate      *time.Time      `json:"nextDueDate,omitempty"`
	AsOf             time.Time       `json:"asOf"`
}

// Summarize derives counts and totals for a plan as of now.
// TotalPaid is read from the plan, never re-summed from installments.
func Summarize(plan PaymentPlan, now time.Time) PlanSummary {
	s := PlanSummary{
		PlanID:           plan.PlanID,
		DealID:           plan.DealID,
		Status:           plan.Status,
		InstallmentCount: len(plan.Installments),
		TotalScheduled:   decimal.Zero,
		TotalAmount:      plan.TotalAmount,
		TotalPaid:        plan.TotalPaid,
		Remaining:        NonNegative(Round2(plan.TotalAmount.Sub(plan.TotalPaid))),
		AsOf:             now,
	}
	ordered := append([]Installment(nil), plan.Installments...)
	SortForAllocation(ordered)
	for _, inst := range ordered {
		s.TotalScheduled = s.TotalScheduled.Add(inst.Amount)
		switch inst.Status {
		case InstallmentPaid:
			s.PaidCount++
			continue
		case InstallmentPartial:
			s.PartialCount++
		}
		s.UnpaidCount++
		if inst.IsOverdue(now) {
			s.OverdueCount++
		}
		if s.NextDueDate == nil {
			due := inst.DueDate
			s.NextDueDate = &due
		}
	}
	s.TotalScheduled = Round2(s.TotalScheduled)
	return s
}
