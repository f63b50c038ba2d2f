package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/platform/metrics"
)

const (
	defaultReceiptPageSize = 20
	maxReceiptPageSize     = 100

	receiptSourceType = "receipt"
)

// ReceiptPosting books receipts into the journal: the cash or bank account
// is debited and the receivable account credited with the allocated amount.
// Account fields hold account codes.
type ReceiptPosting struct {
	Journal           portssvc.JournalSvcFacade
	Accounts          portssvc.AccountReaderSvc
	CashAccount       string
	BankAccount       string
	ReceivableAccount string
}

type receiptService struct {
	BaseService
	repo      portsrepo.PaymentPlanRepositoryFacade
	posting   *ReceiptPosting
	refPrefix string
}

// NewReceiptService creates the receipt allocation service.
func NewReceiptService(repo portsrepo.PaymentPlanRepositoryFacade, options ...ServiceOption) portssvc.ReceiptSvcFacade {
	o := applyOptions(options)
	return &receiptService{
		BaseService: newBaseService(o),
		repo:        repo,
		posting:     o.receiptPosting,
		refPrefix:   o.receiptRefPrefix,
	}
}

var _ portssvc.ReceiptSvcFacade = (*receiptService)(nil)

// CreateReceipt records a payment against the deal's active plan and
// allocates it to open installments, earliest due first. Money beyond the
// plan's outstanding total stays on the receipt as unallocated client credit.
func (s *receiptService) CreateReceipt(ctx context.Context, req dto.CreateReceiptRequest, userID string) (*domain.Receipt, error) {
	amount := domain.Round2(req.Amount)
	if !req.Amount.IsPositive() || !amount.IsPositive() {
		return nil, apperrors.NewValidationError(apperrors.RuleNonPositiveAmount, "receipt amount must be positive, got %s", req.Amount.String())
	}
	method := domain.NormalizePaymentMethod(string(req.Method))
	if !method.IsValid() {
		return nil, apperrors.NewValidationError(apperrors.RuleInvalidMethod, "payment method %q is not Cash or Bank", req.Method)
	}

	deal, clientID, err := resolveDeal(ctx, s.repo, req.DealID, req.ClientID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Cannot record receipt", slog.String("deal_id", req.DealID), slog.String("amount", amount.StringFixed(2)))
		return nil, err
	}

	now := s.Now()
	receiptDate := req.Date
	if receiptDate.IsZero() {
		receiptDate = now
	}
	receivedBy := req.ReceivedBy
	if receivedBy == "" {
		receivedBy = userID
	}

	var stored *domain.Receipt
	err = s.retryOnConcurrency(ctx, "create_receipt", func() error {
		return s.repo.WithinDealLock(ctx, deal.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
			plan, err := tx.FindActivePlanByDeal(ctx, deal.DealID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return fmt.Errorf("active payment plan for deal %s: %w", deal.DealID, err)
				}
				return err
			}

			result := domain.AllocateFIFO(plan.Installments, amount)
			audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

			receipt := domain.Receipt{
				ReceiptID:         uuid.NewString(),
				DealID:            deal.DealID,
				ClientID:          clientID,
				PlanID:            plan.PlanID,
				Amount:            amount,
				AllocatedAmount:   result.Allocated,
				UnallocatedAmount: result.Unallocated,
				Method:            method,
				ReceiptDate:       receiptDate,
				Notes:             req.Notes,
				ReceivedBy:        receivedBy,
				Lifecycle:         domain.LifecycleActive,
				Allocations:       result.Allocations,
				AuditFields:       audit,
			}
			for i := range receipt.Allocations {
				receipt.Allocations[i].AllocationID = uuid.NewString()
				receipt.Allocations[i].ReceiptID = receipt.ReceiptID
			}
			for i := range result.Updated {
				result.Updated[i].LastUpdatedAt = now
				result.Updated[i].LastUpdatedBy = userID
			}

			plan.ApplyPayment(result.Allocated)
			plan.LastUpdatedAt = now
			plan.LastUpdatedBy = userID

			if len(result.Updated) > 0 {
				if err := tx.UpdateInstallments(ctx, result.Updated); err != nil {
					return err
				}
			}
			if err := tx.UpdatePlan(ctx, *plan); err != nil {
				return err
			}
			saved, err := tx.InsertReceipt(ctx, receipt, s.refPrefix)
			if err != nil {
				return err
			}
			stored = saved
			return nil
		})
	})
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to record receipt",
			slog.String("deal_id", deal.DealID),
			slog.String("client_id", clientID),
			slog.String("amount", amount.StringFixed(2)))
		return nil, err
	}

	metrics.Receipts.WithLabelValues("created").Inc()
	metrics.AllocatedAmount.Add(stored.AllocatedAmount.InexactFloat64())
	s.LogInfo(ctx, "Receipt recorded",
		slog.String("receipt_id", stored.ReceiptID),
		slog.String("reference_code", stored.ReferenceCode),
		slog.String("deal_id", stored.DealID),
		slog.String("plan_id", stored.PlanID),
		slog.String("amount", stored.Amount.StringFixed(2)),
		slog.String("allocated", stored.AllocatedAmount.StringFixed(2)),
		slog.Int("allocations", len(stored.Allocations)))
	if stored.UnallocatedAmount.IsPositive() {
		metrics.UnallocatedAmount.Add(stored.UnallocatedAmount.InexactFloat64())
		s.LogWarn(ctx, "Receipt exceeds outstanding plan balance; excess kept as client credit",
			slog.String("receipt_id", stored.ReceiptID),
			slog.String("deal_id", stored.DealID),
			slog.String("unallocated", stored.UnallocatedAmount.StringFixed(2)))
	}

	s.postReceipt(ctx, stored, userID)
	return stored, nil
}

// postReceipt books the allocated part of a committed receipt. A failure
// leaves the receipt in place and is logged for reconciliation.
func (s *receiptService) postReceipt(ctx context.Context, receipt *domain.Receipt, userID string) {
	if s.posting == nil || !receipt.AllocatedAmount.IsPositive() {
		return
	}
	logAttrs := []any{
		slog.String("receipt_id", receipt.ReceiptID),
		slog.String("deal_id", receipt.DealID),
		slog.String("amount", receipt.AllocatedAmount.StringFixed(2)),
	}

	debitCode := s.posting.CashAccount
	if receipt.Method == domain.Bank {
		debitCode = s.posting.BankAccount
	}
	debit, err := s.posting.Accounts.GetAccountByCode(ctx, debitCode)
	if err != nil {
		s.LogError(ctx, err, "Receipt not posted: debit account unavailable", append(logAttrs, slog.String("account_code", debitCode))...)
		return
	}
	credit, err := s.posting.Accounts.GetAccountByCode(ctx, s.posting.ReceivableAccount)
	if err != nil {
		s.LogError(ctx, err, "Receipt not posted: receivable account unavailable", append(logAttrs, slog.String("account_code", s.posting.ReceivableAccount))...)
		return
	}

	entry, err := s.posting.Journal.PostJournalEntry(ctx, dto.PostJournalEntryRequest{
		Date:        receipt.ReceiptDate,
		Description: fmt.Sprintf("Receipt %s for deal %s", receipt.ReferenceCode, receipt.DealID),
		SourceType:  receiptSourceType,
		SourceID:    receipt.ReceiptID,
		Lines: []dto.JournalLineRequest{
			{AccountID: debit.AccountID, Debit: receipt.AllocatedAmount, Notes: string(receipt.Method)},
			{AccountID: credit.AccountID, Credit: receipt.AllocatedAmount, Notes: "client " + receipt.ClientID},
		},
	}, userID)
	if err != nil {
		s.LogError(ctx, err, "Receipt not posted to journal", logAttrs...)
		return
	}

	// Linking under the deal lock orders it against DeleteReceipt: either the
	// delete sees the link and reverses the entry, or the link finds the
	// receipt voided and the entry is reversed here.
	err = s.repo.WithinDealLock(ctx, receipt.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
		return tx.SetReceiptJournalEntry(ctx, receipt.ReceiptID, entry.EntryID)
	})
	if err != nil {
		logAttrs = append(logAttrs, slog.String("entry_id", entry.EntryID))
		if !errors.Is(err, apperrors.ErrConflict) {
			s.LogError(ctx, err, "Failed to link receipt to journal entry", logAttrs...)
			return
		}
		s.LogWarn(ctx, "Receipt deleted while posting; reversing its journal entry", logAttrs...)
		if _, err := s.posting.Journal.ReverseJournalEntry(ctx, entry.EntryID, userID); err != nil {
			s.LogError(ctx, err, "Failed to reverse journal entry of deleted receipt", logAttrs...)
		}
		return
	}
	entryID := entry.EntryID
	receipt.JournalEntryID = &entryID
}

// DeleteReceipt releases every allocation of the receipt, restores the plan
// totals and voids the receipt, all in one unit of work.
func (s *receiptService) DeleteReceipt(ctx context.Context, receiptID string, userID string) error {
	existing, err := s.repo.FindReceiptByID(ctx, receiptID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find receipt to delete", slog.String("receipt_id", receiptID))
		return err
	}
	if existing.Lifecycle == domain.LifecycleVoided {
		return fmt.Errorf("receipt %s: %w", receiptID, apperrors.ErrNotFound)
	}

	var voided domain.Receipt
	err = s.retryOnConcurrency(ctx, "delete_receipt", func() error {
		return s.repo.WithinDealLock(ctx, existing.DealID, func(ctx context.Context, tx portsrepo.PlanTx) error {
			receipt, err := tx.FindReceiptByID(ctx, receiptID)
			if err != nil {
				return err
			}
			if receipt.Lifecycle == domain.LifecycleVoided {
				return fmt.Errorf("receipt %s: %w", receiptID, apperrors.ErrNotFound)
			}
			plan, err := tx.FindPlanByID(ctx, receipt.PlanID)
			if err != nil {
				return err
			}

			released, err := domain.ReleaseAllocations(plan.Installments, receipt.Allocations)
			if err != nil {
				return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
			}
			now := s.Now()
			for i := range released {
				released[i].LastUpdatedAt = now
				released[i].LastUpdatedBy = userID
			}
			plan.ApplyPayment(receipt.AllocatedAmount.Neg())
			plan.LastUpdatedAt = now
			plan.LastUpdatedBy = userID

			if len(released) > 0 {
				if err := tx.UpdateInstallments(ctx, released); err != nil {
					return err
				}
			}
			if err := tx.UpdatePlan(ctx, *plan); err != nil {
				return err
			}
			if err := tx.VoidReceipt(ctx, receiptID, userID, now); err != nil {
				return err
			}
			voided = *receipt
			return nil
		})
	})
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to delete receipt",
			slog.String("receipt_id", receiptID),
			slog.String("deal_id", existing.DealID),
			slog.String("plan_id", existing.PlanID),
			slog.String("allocated", existing.AllocatedAmount.StringFixed(2)))
		return err
	}

	metrics.Receipts.WithLabelValues("deleted").Inc()
	s.LogInfo(ctx, "Receipt deleted",
		slog.String("receipt_id", receiptID),
		slog.String("deal_id", voided.DealID),
		slog.String("plan_id", voided.PlanID),
		slog.String("released", voided.AllocatedAmount.StringFixed(2)))

	if voided.JournalEntryID != nil && s.posting != nil {
		if _, err := s.posting.Journal.ReverseJournalEntry(ctx, *voided.JournalEntryID, userID); err != nil {
			s.LogError(ctx, err, "Failed to reverse receipt journal entry",
				slog.String("receipt_id", receiptID),
				slog.String("entry_id", *voided.JournalEntryID))
		}
	}
	return nil
}

func (s *receiptService) GetReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	receipt, err := s.repo.FindReceiptByID(ctx, receiptID)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find receipt", slog.String("receipt_id", receiptID))
		return nil, err
	}
	return receipt, nil
}

// ListReceiptsByDeal returns live receipts newest first.
func (s *receiptService) ListReceiptsByDeal(ctx context.Context, dealID string, params dto.ListReceiptsParams) (*dto.ListReceiptsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReceiptPageSize
	}
	if limit > maxReceiptPageSize {
		limit = maxReceiptPageSize
	}

	receipts, nextToken, err := s.repo.ListReceiptsByDeal(ctx, dealID, limit, params.NextToken)
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to list receipts", slog.String("deal_id", dealID))
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	return &dto.ListReceiptsResponse{
		Receipts:  dto.ToReceiptResponses(receipts),
		NextToken: nextToken,
	}, nil
}
