package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/platform/metrics"
)

// ErrImmutablePlan is returned for any structural edit of an existing plan.
var ErrImmutablePlan = fmt.Errorf("%w: payment plans are immutable after creation", apperrors.ErrConflict)

type paymentPlanService struct {
	BaseService
	repo portsrepo.PaymentPlanRepositoryFacade
}

// NewPaymentPlanService creates the payment plan service.
func NewPaymentPlanService(repo portsrepo.PaymentPlanRepositoryFacade, options ...ServiceOption) portssvc.PaymentPlanSvcFacade {
	o := applyOptions(options)
	return &paymentPlanService{
		BaseService: newBaseService(o),
		repo:        repo,
	}
}

var _ portssvc.PaymentPlanSvcFacade = (*paymentPlanService)(nil)

// resolveDeal loads the deal and checks the client against it.
// An empty clientID takes the deal's client.
func resolveDeal(ctx context.Context, deals portsrepo.DealReader, dealID, clientID string) (*domain.Deal, string, error) {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return nil, "", apperrors.NewValidationError(apperrors.RuleRequired, "dealID is required")
	}
	deal, err := deals.FindDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("deal %s: %w", dealID, err)
		}
		return nil, "", fmt.Errorf("failed to find deal %s: %w", dealID, err)
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return deal, deal.ClientID, nil
	}
	if deal.ClientID != "" && deal.ClientID != clientID {
		return nil, "", apperrors.NewValidationError(apperrors.RuleClientMismatch, "client %s does not own deal %s", clientID, dealID)
	}
	return deal, clientID, nil
}

// buildPlan turns a request into a plan with its installments. The schedule
// must add up to the deal amount within 0.01.
func (s *paymentPlanService) buildPlan(deal *domain.Deal, clientID string, req dto.CreatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error) {
	if req.DownPayment.IsNegative() {
		return nil, apperrors.NewValidationError(apperrors.RuleNonPositiveAmount, "down payment cannot be negative")
	}
	downPayment := domain.Round2(req.DownPayment)
	if len(req.Installments) == 0 && !downPayment.IsPositive() {
		return nil, apperrors.NewValidationError(apperrors.RuleSchedule, "a plan needs at least one installment or a down payment")
	}

	now := s.Now()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}
	planID := uuid.NewString()

	scheduled := decimal.Zero
	var earliest time.Time
	regular := make([]domain.Installment, 0, len(req.Installments))
	for i, in := range req.Installments {
		amount := domain.Round2(in.Amount)
		if !amount.IsPositive() {
			return nil, apperrors.NewValidationError(apperrors.RuleNonPositiveAmount, "installment %d amount must be positive", i+1)
		}
		if in.DueDate.IsZero() {
			return nil, apperrors.NewValidationError(apperrors.RuleRequired, "installment %d due date is required", i+1)
		}
		if earliest.IsZero() || in.DueDate.Before(earliest) {
			earliest = in.DueDate
		}
		scheduled = scheduled.Add(amount)
		regular = append(regular, domain.Installment{
			InstallmentID:     uuid.NewString(),
			PlanID:            planID,
			InstallmentNumber: i + 1,
			Type:              domain.InstallmentTypeRegular,
			Amount:            amount,
			DueDate:           in.DueDate,
			PaidAmount:        decimal.Zero,
			Remaining:         amount,
			Status:            domain.InstallmentPending,
			PaymentMode:       in.PaymentMode,
			Notes:             in.Notes,
			AuditFields:       audit,
		})
	}

	installments := make([]domain.Installment, 0, len(regular)+1)
	if downPayment.IsPositive() {
		scheduled = scheduled.Add(downPayment)
		dueDate := domain.StartOfDay(now)
		if req.DownPaymentDueDate != nil && !req.DownPaymentDueDate.IsZero() {
			dueDate = *req.DownPaymentDueDate
		} else if !earliest.IsZero() && earliest.Before(dueDate) {
			dueDate = earliest
		}
		if !earliest.IsZero() && dueDate.After(earliest) {
			return nil, apperrors.NewValidationError(apperrors.RuleSchedule, "down payment cannot be due after the first installment")
		}
		installments = append(installments, domain.Installment{
			InstallmentID:     uuid.NewString(),
			PlanID:            planID,
			InstallmentNumber: 0,
			Type:              domain.InstallmentTypeDownPayment,
			Amount:            downPayment,
			DueDate:           dueDate,
			PaidAmount:        decimal.Zero,
			Remaining:         downPayment,
			Status:            domain.InstallmentPending,
			AuditFields:       audit,
		})
	}
	installments = append(installments, regular...)

	total := domain.Round2(deal.Amount)
	if !domain.WithinTolerance(scheduled, total) {
		return nil, &apperrors.AmountMismatchError{Expected: total, Actual: domain.Round2(scheduled)}
	}

	return &domain.PaymentPlan{
		PlanID:       planID,
		DealID:       deal.DealID,
		ClientID:     clientID,
		TotalAmount:  total,
		DownPayment:  downPayment,
		TotalPaid:    decimal.Zero,
		Remaining:    total,
		Status:       domain.PlanActive,
		IsActive:     true,
		Installments: installments,
		AuditFields:  audit,
	}, nil
}

// CreatePaymentPlan creates the deal's plan. A deal has at most one active plan.
func (s *paymentPlanService) CreatePaymentPlan(ctx context.Context, req dto.CreatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error) {
	deal, clientID, err := resolveDeal(ctx, s.repo, req.DealID, req.ClientID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Cannot create payment plan", slog.String("deal_id", req.DealID))
		return nil, err
	}

	plan, err := s.buildPlan(deal, clientID, req, userID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Payment plan rejected",
			slog.String("deal_id", deal.DealID),
			slog.String("deal_amount", deal.Amount.StringFixed(2)))
		return nil, err
	}

	err = s.retryOnConcurrency(ctx, "create_plan", func() error {
		return s.repo.WithinDealLock(ctx, deal.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
			existing, findErr := tx.FindActivePlanByDeal(ctx, deal.DealID)
			if findErr == nil {
				return fmt.Errorf("%w: deal %s already has payment plan %s", apperrors.ErrConflict, deal.DealID, existing.PlanID)
			}
			if !errors.Is(findErr, apperrors.ErrNotFound) {
				return findErr
			}
			return tx.InsertPlan(ctx, *plan)
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			err = fmt.Errorf("%w: deal %s already has a payment plan", apperrors.ErrConflict, deal.DealID)
		}
		s.logUnlessExpected(ctx, err, "Failed to create payment plan", slog.String("deal_id", deal.DealID), slog.String("plan_id", plan.PlanID))
		return nil, err
	}

	metrics.PlansCreated.Inc()
	s.LogInfo(ctx, "Payment plan created",
		slog.String("plan_id", plan.PlanID),
		slog.String("deal_id", plan.DealID),
		slog.String("total_amount", plan.TotalAmount.StringFixed(2)),
		slog.Int("installments", len(plan.Installments)))
	return plan, nil
}

func (s *paymentPlanService) GetPaymentPlan(ctx context.Context, planID string) (*domain.PaymentPlan, error) {
	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find payment plan", slog.String("plan_id", planID))
		return nil, err
	}
	return plan, nil
}

func (s *paymentPlanService) GetPaymentPlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error) {
	plan, err := s.repo.FindActivePlanByDeal(ctx, dealID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find payment plan for deal", slog.String("deal_id", dealID))
		return nil, err
	}
	return plan, nil
}

func (s *paymentPlanService) SummarizePlan(ctx context.Context, planID string) (*domain.PlanSummary, error) {
	plan, err := s.GetPaymentPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(*plan, s.Now())
	return &summary, nil
}

// UpdatePaymentPlan rejects every request. A plan changes only through
// receipts, installment edits before payment, or being superseded.
func (s *paymentPlanService) UpdatePaymentPlan(ctx context.Context, planID string, _ dto.UpdatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error) {
	if _, err := s.repo.FindPlanByID(ctx, planID); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find payment plan for update", slog.String("plan_id", planID))
		return nil, err
	}
	s.LogWarn(ctx, "Rejected payment plan update", slog.String("plan_id", planID), slog.String("user_id", userID))
	return nil, ErrImmutablePlan
}

// UpdateInstallment edits due date, notes or payment mode of an installment
// that has not received any money. Amounts never change after creation.
func (s *paymentPlanService) UpdateInstallment(ctx context.Context, planID string, installmentID string, req dto.UpdateInstallmentRequest, userID string) (*domain.Installment, error) {
	if req.Amount != nil {
		return nil, fmt.Errorf("%w: installment amounts cannot change; supersede the plan instead", apperrors.ErrConflict)
	}
	if req.DueDate != nil && req.DueDate.IsZero() {
		return nil, apperrors.NewValidationError(apperrors.RuleRequired, "due date cannot be empty")
	}

	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find payment plan", slog.String("plan_id", planID))
		return nil, err
	}

	var updated domain.Installment
	err = s.retryOnConcurrency(ctx, "update_installment", func() error {
		return s.repo.WithinDealLock(ctx, plan.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
			current, err := tx.FindPlanByID(ctx, planID)
			if err != nil {
				return err
			}
			if !current.IsActive {
				return fmt.Errorf("%w: payment plan %s is no longer active", apperrors.ErrConflict, planID)
			}
			idx := -1
			for i := range current.Installments {
				if current.Installments[i].InstallmentID == installmentID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("installment %s in plan %s: %w", installmentID, planID, apperrors.ErrNotFound)
			}
			inst := current.Installments[idx]
			if !inst.PaidAmount.IsZero() {
				return fmt.Errorf("%w: installment %d already received payments", apperrors.ErrConflict, inst.InstallmentNumber)
			}

			if req.DueDate != nil {
				inst.DueDate = *req.DueDate
			}
			if req.Notes != nil {
				inst.Notes = *req.Notes
			}
			if req.PaymentMode != nil {
				inst.PaymentMode = *req.PaymentMode
			}
			if err := checkDownPaymentFirst(current.Installments, inst); err != nil {
				return err
			}
			inst.LastUpdatedAt = s.Now()
			inst.LastUpdatedBy = userID

			if err := tx.UpdateInstallments(ctx, []domain.Installment{inst}); err != nil {
				return err
			}
			updated = inst
			return nil
		})
	})
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to update installment", slog.String("plan_id", planID), slog.String("installment_id", installmentID))
		return nil, err
	}

	s.LogInfo(ctx, "Installment updated", slog.String("plan_id", planID), slog.String("installment_id", installmentID))
	return &updated, nil
}

// checkDownPaymentFirst keeps installment 0 no later than any regular installment.
func checkDownPaymentFirst(installments []domain.Installment, changed domain.Installment) error {
	var downPayment *domain.Installment
	earliest := time.Time{}
	for i := range installments {
		inst := installments[i]
		if inst.InstallmentID == changed.InstallmentID {
			inst = changed
		}
		if inst.Type == domain.InstallmentTypeDownPayment {
			downPayment = &inst
			continue
		}
		if earliest.IsZero() || inst.DueDate.Before(earliest) {
			earliest = inst.DueDate
		}
	}
	if downPayment != nil && !earliest.IsZero() && downPayment.DueDate.After(earliest) {
		return apperrors.NewValidationError(apperrors.RuleSchedule, "down payment cannot be due after the first installment")
	}
	return nil
}

// SupersedePlan retires a plan that never received money and creates its replacement.
func (s *paymentPlanService) SupersedePlan(ctx context.Context, planID string, req dto.CreatePaymentPlanRequest, userID string) (*domain.PaymentPlan, error) {
	current, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find payment plan to supersede", slog.String("plan_id", planID))
		return nil, err
	}
	if req.DealID == "" {
		req.DealID = current.DealID
	}
	if req.DealID != current.DealID {
		return nil, apperrors.NewValidationError(apperrors.RuleSchedule, "replacement plan must belong to deal %s", current.DealID)
	}
	if req.ClientID == "" {
		req.ClientID = current.ClientID
	}

	deal, clientID, err := resolveDeal(ctx, s.repo, req.DealID, req.ClientID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Cannot supersede payment plan", slog.String("plan_id", planID))
		return nil, err
	}
	replacement, err := s.buildPlan(deal, clientID, req, userID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Replacement payment plan rejected", slog.String("plan_id", planID))
		return nil, err
	}

	err = s.retryOnConcurrency(ctx, "supersede_plan", func() error {
		return s.repo.WithinDealLock(ctx, deal.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
			old, err := tx.FindPlanByID(ctx, planID)
			if err != nil {
				return err
			}
			if !old.IsActive {
				return fmt.Errorf("%w: payment plan %s is no longer active", apperrors.ErrConflict, planID)
			}
			if !old.TotalPaid.IsZero() {
				return fmt.Errorf("%w: payment plan %s already received %s", apperrors.ErrConflict, planID, old.TotalPaid.StringFixed(2))
			}
			now := s.Now()
			old.IsActive = false
			old.Status = domain.PlanSuperseded
			old.LastUpdatedAt = now
			old.LastUpdatedBy = userID
			if err := tx.UpdatePlan(ctx, *old); err != nil {
				return err
			}
			return tx.InsertPlan(ctx, *replacement)
		})
	})
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to supersede payment plan", slog.String("plan_id", planID), slog.String("deal_id", deal.DealID))
		return nil, err
	}

	metrics.PlansCreated.Inc()
	s.LogInfo(ctx, "Payment plan superseded",
		slog.String("plan_id", planID),
		slog.String("replacement_id", replacement.PlanID),
		slog.String("deal_id", deal.DealID))
	return replacement, nil
}
