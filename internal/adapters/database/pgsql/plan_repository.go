package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/models"
	"github.com/SscSPs/estate_ledger_core/internal/utils/pagination"
)

const (
	planColumns        = `plan_id, deal_id, client_id, total_amount, down_payment, total_paid, remaining, status, is_active, created_at, created_by, last_updated_at, last_updated_by`
	installmentColumns = `installment_id, plan_id, installment_number, installment_type, amount, due_date, paid_amount, remaining, status, payment_mode, notes, created_at, created_by, last_updated_at, last_updated_by`
	receiptColumns     = `receipt_id, reference_code, deal_id, client_id, plan_id, amount, allocated_amount, unallocated_amount, method, receipt_date, notes, received_by, lifecycle, journal_entry_id, created_at, created_by, last_updated_at, last_updated_by`
	allocationColumns  = `allocation_id, receipt_id, installment_id, installment_number, amount_allocated`
)

type PgxPaymentPlanRepository struct {
	BaseRepository
}

// newPgxPaymentPlanRepository creates a new repository for deals, plans and receipts.
func newPgxPaymentPlanRepository(pool *pgxpool.Pool) *PgxPaymentPlanRepository {
	return &PgxPaymentPlanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxPaymentPlanRepository implements portsrepo.PaymentPlanRepositoryFacade
var _ portsrepo.PaymentPlanRepositoryFacade = (*PgxPaymentPlanRepository)(nil)

func (r *PgxPaymentPlanRepository) SaveDeal(ctx context.Context, deal domain.Deal) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO deals (deal_id, client_id, title, amount)
		VALUES ($1, $2, $3, $4);
	`, deal.DealID, deal.ClientID, deal.Title, deal.Amount)
	if err != nil {
		return mapPgError(err, "failed to save deal "+deal.DealID)
	}
	return nil
}

func (r *PgxPaymentPlanRepository) FindDealByID(ctx context.Context, dealID string) (*domain.Deal, error) {
	rows, err := r.Pool.Query(ctx, `SELECT deal_id, client_id, title, amount FROM deals WHERE deal_id = $1`, dealID)
	if err != nil {
		return nil, mapPgError(err, "failed to query deal")
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Deal])
	if err != nil {
		return nil, mapPgError(err, "deal "+dealID)
	}
	return &domain.Deal{DealID: m.DealID, ClientID: m.ClientID, Title: m.Title, Amount: m.Amount}, nil
}

func (r *PgxPaymentPlanRepository) FindPlanByID(ctx context.Context, planID string) (*domain.PaymentPlan, error) {
	return loadPlan(ctx, r.Pool, "plan_id = $1", planID, false)
}

func (r *PgxPaymentPlanRepository) FindActivePlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error) {
	return loadPlan(ctx, r.Pool, "deal_id = $1 AND is_active", dealID, false)
}

func (r *PgxPaymentPlanRepository) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	return loadReceipt(ctx, r.Pool, receiptID, false)
}

// ListReceiptsByDeal pages Active receipts by (created_at, receipt_id) descending.
func (r *PgxPaymentPlanRepository) ListReceiptsByDeal(ctx context.Context, dealID string, limit int, nextToken *string) ([]domain.Receipt, *string, error) {
	var (
		cursorTime *time.Time
		cursorID   *string
	)
	if nextToken != nil && *nextToken != "" {
		t, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursorTime, cursorID = &t, &id
	}

	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE deal_id = $1
		  AND lifecycle = $2
		  AND ($3::timestamptz IS NULL OR (created_at, receipt_id) < ($3, $4))
		ORDER BY created_at DESC, receipt_id DESC
		LIMIT $5;
	`
	rows, err := r.Pool.Query(ctx, query, dealID, string(domain.LifecycleActive), cursorTime, cursorID, limit+1)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to list receipts")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Receipt])
	if err != nil {
		return nil, nil, mapPgError(err, "failed to scan receipts")
	}

	var token *string
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		next := pagination.EncodeToken(last.CreatedAt, last.ReceiptID)
		token = &next
	}

	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ReceiptID)
	}
	byReceipt, err := loadAllocations(ctx, r.Pool, ids)
	if err != nil {
		return nil, nil, err
	}
	receipts := make([]domain.Receipt, 0, len(list))
	for _, m := range list {
		receipts = append(receipts, toDomainReceipt(m, byReceipt[m.ReceiptID]))
	}
	return receipts, token, nil
}

// WithinDealLock runs fn in a transaction holding an advisory lock on the deal.
func (r *PgxPaymentPlanRepository) WithinDealLock(ctx context.Context, dealID string, fn func(ctx context.Context, tx portsrepo.PlanTx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, dealID); err != nil {
		return mapPgError(err, "failed to lock deal "+dealID)
	}
	if err := fn(ctx, &pgxPlanTx{tx: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func loadPlan(ctx context.Context, q querier, where string, arg any, forUpdate bool) (*domain.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPgError(err, "failed to query payment plan")
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.PaymentPlan])
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("payment plan (%v)", arg))
	}

	rows, err = q.Query(ctx, `SELECT `+installmentColumns+` FROM installments WHERE plan_id = $1 ORDER BY installment_number`, m.PlanID)
	if err != nil {
		return nil, mapPgError(err, "failed to query installments")
	}
	installments, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Installment])
	if err != nil {
		return nil, mapPgError(err, "failed to scan installments")
	}
	plan := toDomainPlan(m, installments)
	return &plan, nil
}

func loadReceipt(ctx context.Context, q querier, receiptID string, forUpdate bool) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, receiptID)
	if err != nil {
		return nil, mapPgError(err, "failed to query receipt")
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Receipt])
	if err != nil {
		return nil, mapPgError(err, "receipt "+receiptID)
	}
	byReceipt, err := loadAllocations(ctx, q, []string{receiptID})
	if err != nil {
		return nil, err
	}
	receipt := toDomainReceipt(m, byReceipt[receiptID])
	return &receipt, nil
}

func loadAllocations(ctx context.Context, q querier, receiptIDs []string) (map[string][]models.Allocation, error) {
	byReceipt := make(map[string][]models.Allocation, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return byReceipt, nil
	}
	rows, err := q.Query(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE receipt_id = ANY($1)
		ORDER BY receipt_id, installment_number;
	`, receiptIDs)
	if err != nil {
		return nil, mapPgError(err, "failed to query allocations")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Allocation])
	if err != nil {
		return nil, mapPgError(err, "failed to scan allocations")
	}
	for _, a := range list {
		byReceipt[a.ReceiptID] = append(byReceipt[a.ReceiptID], a)
	}
	return byReceipt, nil
}

// pgxPlanTx is the PlanTx of one WithinDealLock call. Reads lock rows FOR UPDATE.
type pgxPlanTx struct {
	tx pgx.Tx
}

var _ portsrepo.PlanTx = (*pgxPlanTx)(nil)

func (t *pgxPlanTx) FindPlanByID(ctx context.Context, planID string) (*domain.PaymentPlan, error) {
	return loadPlan(ctx, t.tx, "plan_id = $1", planID, true)
}

func (t *pgxPlanTx) FindActivePlanByDeal(ctx context.Context, dealID string) (*domain.PaymentPlan, error) {
	return loadPlan(ctx, t.tx, "deal_id = $1 AND is_active", dealID, true)
}

func (t *pgxPlanTx) FindReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	return loadReceipt(ctx, t.tx, receiptID, true)
}

func (t *pgxPlanTx) InsertPlan(ctx context.Context, plan domain.PaymentPlan) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payment_plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`,
		plan.PlanID,
		plan.DealID,
		plan.ClientID,
		plan.TotalAmount,
		plan.DownPayment,
		plan.TotalPaid,
		plan.Remaining,
		string(plan.Status),
		plan.IsActive,
		plan.CreatedAt,
		plan.CreatedBy,
		plan.LastUpdatedAt,
		plan.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "failed to insert payment plan "+plan.PlanID)
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO installments (` + installmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`
	for _, i := range plan.Installments {
		batch.Queue(query,
			i.InstallmentID,
			plan.PlanID,
			i.InstallmentNumber,
			string(i.Type),
			i.Amount,
			i.DueDate,
			i.PaidAmount,
			i.Remaining,
			string(i.Status),
			i.PaymentMode,
			i.Notes,
			i.CreatedAt,
			i.CreatedBy,
			i.LastUpdatedAt,
			i.LastUpdatedBy,
		)
	}
	br := t.tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return mapPgError(err, "failed to insert installments for plan "+plan.PlanID)
	}
	return nil
}

func (t *pgxPlanTx) UpdatePlan(ctx context.Context, plan domain.PaymentPlan) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE payment_plans
		SET total_paid = $2, remaining = $3, status = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE plan_id = $1;
	`, plan.PlanID, plan.TotalPaid, plan.Remaining, string(plan.Status), plan.IsActive, plan.LastUpdatedAt, plan.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "failed to update payment plan "+plan.PlanID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment plan %s: %w", plan.PlanID, apperrors.ErrNotFound)
	}
	return nil
}

func (t *pgxPlanTx) UpdateInstallments(ctx context.Context, installments []domain.Installment) error {
	for _, i := range installments {
		tag, err := t.tx.Exec(ctx, `
			UPDATE installments
			SET paid_amount = $2, remaining = $3, status = $4, due_date = $5, payment_mode = $6, notes = $7,
			    last_updated_at = $8, last_updated_by = $9
			WHERE installment_id = $1;
		`, i.InstallmentID, i.PaidAmount, i.Remaining, string(i.Status), i.DueDate, i.PaymentMode, i.Notes, i.LastUpdatedAt, i.LastUpdatedBy)
		if err != nil {
			return mapPgError(err, "failed to update installment "+i.InstallmentID)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("installment %s: %w", i.InstallmentID, apperrors.ErrNotFound)
		}
	}
	return nil
}

func (t *pgxPlanTx) InsertReceipt(ctx context.Context, receipt domain.Receipt, refPrefix string) (*domain.Receipt, error) {
	ref, err := nextReference(ctx, t.tx, refPrefix, receipt.CreatedAt)
	if err != nil {
		return nil, err
	}
	receipt.ReferenceCode = ref

	_, err = t.tx.Exec(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`,
		receipt.ReceiptID,
		receipt.ReferenceCode,
		receipt.DealID,
		receipt.ClientID,
		receipt.PlanID,
		receipt.Amount,
		receipt.AllocatedAmount,
		receipt.UnallocatedAmount,
		string(receipt.Method),
		receipt.ReceiptDate,
		receipt.Notes,
		receipt.ReceivedBy,
		string(receipt.Lifecycle),
		receipt.JournalEntryID,
		receipt.CreatedAt,
		receipt.CreatedBy,
		receipt.LastUpdatedAt,
		receipt.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapPgError(err, "failed to insert receipt "+receipt.ReceiptID)
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO allocations (` + allocationColumns + `) VALUES ($1, $2, $3, $4, $5);`
	for _, a := range receipt.Allocations {
		batch.Queue(query, a.AllocationID, receipt.ReceiptID, a.InstallmentID, a.InstallmentNumber, a.AmountAllocated)
	}
	br := t.tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, mapPgError(err, "failed to insert allocations for receipt "+receipt.ReceiptID)
	}
	return &receipt, nil
}

func (t *pgxPlanTx) VoidReceipt(ctx context.Context, receiptID string, userID string, now time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE receipts
		SET lifecycle = $2, last_updated_at = $3, last_updated_by = $4
		WHERE receipt_id = $1 AND lifecycle = $5;
	`, receiptID, string(domain.LifecycleVoided), now, userID, string(domain.LifecycleActive))
	if err != nil {
		return mapPgError(err, "failed to void receipt "+receiptID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: receipt %s is not active", apperrors.ErrConflict, receiptID)
	}
	return nil
}

func (t *pgxPlanTx) SetReceiptJournalEntry(ctx context.Context, receiptID string, entryID string) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE receipts
		SET journal_entry_id = $2
		WHERE receipt_id = $1 AND lifecycle = $3;
	`, receiptID, entryID, string(domain.LifecycleActive))
	if err != nil {
		return mapPgError(err, "failed to link receipt "+receiptID)
	}
	if tag.RowsAffected() == 0 {
		if _, err := loadReceipt(ctx, t.tx, receiptID, false); err != nil {
			return err
		}
		return fmt.Errorf("%w: receipt %s is not active", apperrors.ErrConflict, receiptID)
	}
	return nil
}
