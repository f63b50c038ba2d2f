package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/utils/pagination"
)

func (s *Store) SaveDeal(_ context.Context, deal domain.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[deal.DealID]; ok {
		return fmt.Errorf("deal %s: %w", deal.DealID, apperrors.ErrDuplicate)
	}
	s.deals[deal.DealID] = deal
	return nil
}

func (s *Store) FindDealByID(_ context.Context, dealID string) (*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deal, ok := s.deals[dealID]
	if !ok {
		return nil, fmt.Errorf("deal %s: %w", dealID, apperrors.ErrNotFound)
	}
	return &deal, nil
}

func (s *Store) FindPlanByID(_ context.Context, planID string) (*domain.PaymentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("payment plan %s: %w", planID, apperrors.ErrNotFound)
	}
	found := copyPlan(plan)
	return &found, nil
}

func (s *Store) FindActivePlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error) {
	s.mu.RLock()
	planID, ok := s.activePlanBy[dealID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("active payment plan for deal %s: %w", dealID, apperrors.ErrNotFound)
	}
	return s.FindPlanByID(ctx, planID)
}

func (s *Store) FindReceiptByID(_ context.Context, receiptID string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[receiptID]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, apperrors.ErrNotFound)
	}
	found := copyReceipt(receipt)
	return &found, nil
}

func (s *Store) ListReceiptsByDeal(_ context.Context, dealID string, limit int, nextToken *string) ([]domain.Receipt, *string, error) {
	var (
		cursorTime time.Time
		cursorID   string
		hasCursor  bool
	)
	if nextToken != nil && *nextToken != "" {
		t, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursorTime, cursorID, hasCursor = t, id, true
	}

	s.mu.RLock()
	matching := make([]domain.Receipt, 0)
	for _, receipt := range s.receipts {
		if receipt.DealID != dealID || receipt.Lifecycle != domain.LifecycleActive {
			continue
		}
		if hasCursor && !pagination.After(receipt.CreatedAt, receipt.ReceiptID, cursorTime, cursorID) {
			continue
		}
		matching = append(matching, copyReceipt(receipt))
	}
	s.mu.RUnlock()

	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.After(matching[j].CreatedAt)
		}
		return matching[i].ReceiptID > matching[j].ReceiptID
	})

	if limit <= 0 || len(matching) <= limit {
		return matching, nil, nil
	}
	page := matching[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.ReceiptID)
	return page, &token, nil
}

// WithinDealLock serializes work per deal. Writes made through the PlanTx are
// applied to the store only when fn returns nil.
func (s *Store) WithinDealLock(ctx context.Context, dealID string, fn func(ctx context.Context, tx portsrepo.PlanTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.dealLock(dealID)
	lock.Lock()
	defer lock.Unlock()

	tx := &planTx{
		store:    s,
		plans:    make(map[string]*domain.PaymentPlan),
		receipts: make(map[string]*domain.Receipt),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

// planTx buffers plan and receipt changes as working copies.
type planTx struct {
	store    *Store
	plans    map[string]*domain.PaymentPlan
	receipts map[string]*domain.Receipt
}

var _ portsrepo.PlanTx = (*planTx)(nil)

func (tx *planTx) plan(planID string) (*domain.PaymentPlan, error) {
	if p, ok := tx.plans[planID]; ok {
		return p, nil
	}
	tx.store.mu.RLock()
	stored, ok := tx.store.plans[planID]
	tx.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("payment plan %s: %w", planID, apperrors.ErrNotFound)
	}
	working := copyPlan(stored)
	tx.plans[planID] = &working
	return &working, nil
}

func (tx *planTx) receipt(receiptID string) (*domain.Receipt, error) {
	if r, ok := tx.receipts[receiptID]; ok {
		return r, nil
	}
	tx.store.mu.RLock()
	stored, ok := tx.store.receipts[receiptID]
	tx.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, apperrors.ErrNotFound)
	}
	working := copyReceipt(stored)
	tx.receipts[receiptID] = &working
	return &working, nil
}

func (tx *planTx) FindPlanByID(_ context.Context, planID string) (*domain.PaymentPlan, error) {
	p, err := tx.plan(planID)
	if err != nil {
		return nil, err
	}
	found := copyPlan(*p)
	return &found, nil
}

func (tx *planTx) FindActivePlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error) {
	for _, p := range tx.plans {
		if p.DealID == dealID && p.IsActive {
			return tx.FindPlanByID(ctx, p.PlanID)
		}
	}
	tx.store.mu.RLock()
	planID, ok := tx.store.activePlanBy[dealID]
	tx.store.mu.RUnlock()
	if ok {
		// Deactivated in this transaction.
		if _, touched := tx.plans[planID]; !touched {
			return tx.FindPlanByID(ctx, planID)
		}
	}
	return nil, fmt.Errorf("active payment plan for deal %s: %w", dealID, apperrors.ErrNotFound)
}

func (tx *planTx) FindReceiptByID(_ context.Context, receiptID string) (*domain.Receipt, error) {
	r, err := tx.receipt(receiptID)
	if err != nil {
		return nil, err
	}
	found := copyReceipt(*r)
	return &found, nil
}

func (tx *planTx) InsertPlan(ctx context.Context, plan domain.PaymentPlan) error {
	if _, ok := tx.plans[plan.PlanID]; ok {
		return fmt.Errorf("payment plan %s: %w", plan.PlanID, apperrors.ErrDuplicate)
	}
	tx.store.mu.RLock()
	_, exists := tx.store.plans[plan.PlanID]
	tx.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("payment plan %s: %w", plan.PlanID, apperrors.ErrDuplicate)
	}
	if plan.IsActive {
		if _, err := tx.FindActivePlanByDeal(ctx, plan.DealID); err == nil {
			return fmt.Errorf("active payment plan for deal %s: %w", plan.DealID, apperrors.ErrDuplicate)
		}
	}
	working := copyPlan(plan)
	tx.plans[plan.PlanID] = &working
	return nil
}

func (tx *planTx) UpdatePlan(_ context.Context, plan domain.PaymentPlan) error {
	working, err := tx.plan(plan.PlanID)
	if err != nil {
		return err
	}
	working.TotalPaid = plan.TotalPaid
	working.Remaining = plan.Remaining
	working.Status = plan.Status
	working.IsActive = plan.IsActive
	working.LastUpdatedAt = plan.LastUpdatedAt
	working.LastUpdatedBy = plan.LastUpdatedBy
	return nil
}

func (tx *planTx) UpdateInstallments(_ context.Context, installments []domain.Installment) error {
	for _, inst := range installments {
		working, err := tx.plan(inst.PlanID)
		if err != nil {
			return err
		}
		found := false
		for i := range working.Installments {
			if working.Installments[i].InstallmentID == inst.InstallmentID {
				working.Installments[i] = inst
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("installment %s: %w", inst.InstallmentID, apperrors.ErrNotFound)
		}
	}
	return nil
}

func (tx *planTx) InsertReceipt(_ context.Context, receipt domain.Receipt, refPrefix string) (*domain.Receipt, error) {
	if _, ok := tx.receipts[receipt.ReceiptID]; ok {
		return nil, fmt.Errorf("receipt %s: %w", receipt.ReceiptID, apperrors.ErrDuplicate)
	}
	tx.store.mu.Lock()
	if _, ok := tx.store.receipts[receipt.ReceiptID]; ok {
		tx.store.mu.Unlock()
		return nil, fmt.Errorf("receipt %s: %w", receipt.ReceiptID, apperrors.ErrDuplicate)
	}
	// A rolled back receipt leaves a gap in the day's sequence.
	receipt.ReferenceCode = tx.store.nextReference(refPrefix, receipt.CreatedAt)
	tx.store.mu.Unlock()

	working := copyReceipt(receipt)
	tx.receipts[receipt.ReceiptID] = &working
	stored := copyReceipt(working)
	return &stored, nil
}

func (tx *planTx) VoidReceipt(_ context.Context, receiptID string, userID string, now time.Time) error {
	working, err := tx.receipt(receiptID)
	if err != nil {
		return err
	}
	if working.Lifecycle == domain.LifecycleVoided {
		return fmt.Errorf("%w: receipt %s is already voided", apperrors.ErrConflict, working.ReferenceCode)
	}
	working.Lifecycle = domain.LifecycleVoided
	working.LastUpdatedAt = now
	working.LastUpdatedBy = userID
	return nil
}

func (tx *planTx) SetReceiptJournalEntry(_ context.Context, receiptID string, entryID string) error {
	working, err := tx.receipt(receiptID)
	if err != nil {
		return err
	}
	if working.Lifecycle != domain.LifecycleActive {
		return fmt.Errorf("%w: receipt %s is not active", apperrors.ErrConflict, working.ReferenceCode)
	}
	working.JournalEntryID = &entryID
	return nil
}

func (tx *planTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range tx.plans {
		if !p.IsActive {
			continue
		}
		current, ok := s.activePlanBy[p.DealID]
		if !ok || current == p.PlanID {
			continue
		}
		// A supersede deactivates the current plan in the same transaction.
		if replaced, touched := tx.plans[current]; touched && !replaced.IsActive {
			continue
		}
		return fmt.Errorf("active payment plan for deal %s: %w", p.DealID, apperrors.ErrDuplicate)
	}

	for id, p := range tx.plans {
		s.plans[id] = copyPlan(*p)
		if !p.IsActive && s.activePlanBy[p.DealID] == id {
			delete(s.activePlanBy, p.DealID)
		}
	}
	for id, p := range tx.plans {
		if p.IsActive {
			s.activePlanBy[p.DealID] = id
		}
	}
	for id, r := range tx.receipts {
		s.receipts[id] = copyReceipt(*r)
	}
	return nil
}
