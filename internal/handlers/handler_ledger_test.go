package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

func (suite *HandlerTestSuite) TestPostJournalEntry_UnbalancedIsRejected() {
	body := map[string]any{
		"description": "Office rent",
		"lines": []map[string]any{
			{"accountID": "a1", "debit": "100.00"},
			{"accountID": "a2", "credit": "90.00"},
		},
	}
	suite.journals.On("PostJournalEntry", mock.Anything, mock.MatchedBy(func(req dto.PostJournalEntryRequest) bool {
		return len(req.Lines) == 2 && req.Lines[0].Debit.Equal(decimal.NewFromInt(100))
	}), suite.actorUserID).Return(nil, apperrors.NewValidationError(apperrors.RuleBalanced, "debits 100.00 != credits 90.00")).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries", body, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apperrors.RuleBalanced, suite.decode(w)["rule"])
}

func (suite *HandlerTestSuite) TestPostJournalEntry_Created() {
	entry := &domain.JournalEntry{
		EntryID:       "e1",
		ReferenceCode: "JE-20240315-001",
		Description:   "Office rent",
		Status:        domain.Posted,
		Lifecycle:     domain.LifecycleActive,
		Lines: []domain.JournalLine{
			{LineID: "l1", LineNo: 1, AccountID: "a1", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
			{LineID: "l2", LineNo: 2, AccountID: "a2", Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
		},
	}
	suite.journals.On("PostJournalEntry", mock.Anything, mock.Anything, suite.actorUserID).Return(entry, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"description": "Office rent",
		"lines": []map[string]any{
			{"accountID": "a1", "debit": 100},
			{"accountID": "a2", "credit": 100},
		},
	}, true)

	suite.Equal(http.StatusCreated, w.Code)
	suite.Equal("JE-20240315-001", suite.decode(w)["referenceCode"])
}

func (suite *HandlerTestSuite) TestReverseJournalEntry_AlreadyReversed() {
	suite.journals.On("ReverseJournalEntry", mock.Anything, "e1", suite.actorUserID).
		Return(nil, fmt.Errorf("%w: journal entry JE-20240315-001 is already reversed", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries/e1/reverse", nil, true)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestVoidJournalEntry() {
	suite.journals.On("VoidJournalEntry", mock.Anything, "e1", suite.actorUserID).Return(nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries/e1/void", nil, true)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestCreatePaymentPlan_AmountMismatch() {
	suite.plans.On("CreatePaymentPlan", mock.Anything, mock.Anything, suite.actorUserID).Return(nil, &apperrors.AmountMismatchError{
		Expected: decimal.NewFromInt(1000),
		Actual:   decimal.NewFromInt(900),
	}).Once()

	w := suite.do(http.MethodPost, "/api/v1/payment-plans", map[string]any{
		"dealID":      "d1",
		"downPayment": "100",
		"installments": []map[string]any{
			{"amount": "800", "dueDate": "2024-04-01T00:00:00Z"},
		},
	}, true)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	resp := suite.decode(w)
	suite.Equal("1000.00", resp["expected"])
	suite.Equal("900.00", resp["actual"])
}

func (suite *HandlerTestSuite) TestCreatePaymentPlan_Created() {
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	plan := &domain.PaymentPlan{
		PlanID:      "p1",
		DealID:      "d1",
		TotalAmount: decimal.NewFromInt(1000),
		Remaining:   decimal.NewFromInt(1000),
		Status:      domain.PlanActive,
		IsActive:    true,
		Installments: []domain.Installment{
			{InstallmentID: "i1", InstallmentNumber: 1, Type: domain.InstallmentTypeRegular, Amount: decimal.NewFromInt(1000), Remaining: decimal.NewFromInt(1000), DueDate: due, Status: domain.InstallmentPending},
		},
	}
	suite.plans.On("CreatePaymentPlan", mock.Anything, mock.MatchedBy(func(req dto.CreatePaymentPlanRequest) bool {
		return req.DealID == "d1" && len(req.Installments) == 1 && req.Installments[0].DueDate.Equal(due)
	}), suite.actorUserID).Return(plan, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payment-plans", map[string]any{
		"dealID":       "d1",
		"installments": []map[string]any{{"amount": "1000", "dueDate": due}},
	}, true)

	suite.Equal(http.StatusCreated, w.Code)
	resp := suite.decode(w)
	suite.Equal("p1", resp["planID"])
	suite.Equal("1000.00", resp["totalAmount"])
}

func (suite *HandlerTestSuite) TestUpdatePaymentPlan_IsRejected() {
	suite.plans.On("UpdatePaymentPlan", mock.Anything, "p1", mock.Anything, suite.actorUserID).
		Return(nil, fmt.Errorf("%w: payment plans are immutable after creation", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodPut, "/api/v1/payment-plans/p1", map[string]any{"downPayment": "50"}, true)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateInstallment() {
	notes := "moved by agreement"
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	suite.plans.On("UpdateInstallment", mock.Anything, "p1", "i1", mock.MatchedBy(func(req dto.UpdateInstallmentRequest) bool {
		return req.Notes != nil && *req.Notes == notes && req.Amount == nil
	}), suite.actorUserID).Return(&domain.Installment{
		InstallmentID: "i1", InstallmentNumber: 1, Amount: decimal.NewFromInt(500), Remaining: decimal.NewFromInt(500),
		DueDate: due, Status: domain.InstallmentPending, Notes: notes,
	}, nil).Once()

	w := suite.do(http.MethodPatch, "/api/v1/payment-plans/p1/installments/i1", map[string]any{"notes": notes, "dueDate": due}, true)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(notes, suite.decode(w)["notes"])
}

func (suite *HandlerTestSuite) TestGetPaymentPlanByDeal_NoActivePlan() {
	suite.plans.On("GetPaymentPlanByDeal", mock.Anything, "d1").
		Return(nil, fmt.Errorf("active payment plan for deal d1: %w", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/deals/d1/payment-plan", nil, false)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestGetPlanSummary() {
	suite.plans.On("SummarizePlan", mock.Anything, "p1").Return(&domain.PlanSummary{
		PlanID:           "p1",
		InstallmentCount: 3,
		PaidCount:        1,
		TotalPaid:        decimal.NewFromInt(500),
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/payment-plans/p1/summary", nil, false)

	suite.Equal(http.StatusOK, w.Code)
	resp := suite.decode(w)
	suite.EqualValues(3, resp["installmentCount"])
	suite.EqualValues(1, resp["paidCount"])
}

func (suite *HandlerTestSuite) TestCreateReceipt_Created() {
	journalID := "e9"
	receipt := &domain.Receipt{
		ReceiptID:         "r1",
		ReferenceCode:     "RCP-20240315-001",
		DealID:            "d1",
		Amount:            decimal.NewFromInt(1200),
		AllocatedAmount:   decimal.NewFromInt(1000),
		UnallocatedAmount: decimal.NewFromInt(200),
		Method:            domain.Bank,
		JournalEntryID:    &journalID,
		Allocations: []domain.Allocation{
			{AllocationID: "al1", InstallmentID: "i1", InstallmentNumber: 1, AmountAllocated: decimal.NewFromInt(1000)},
		},
	}
	suite.receipts.On("CreateReceipt", mock.Anything, mock.MatchedBy(func(req dto.CreateReceiptRequest) bool {
		return req.DealID == "d1" && req.Method == domain.Bank && req.Amount.Equal(decimal.NewFromInt(1200))
	}), suite.actorUserID).Return(receipt, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/receipts", map[string]any{
		"dealID": "d1",
		"amount": "1200",
		"method": "bank_transfer",
	}, true)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ReceiptResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("RCP-20240315-001", resp.ReferenceCode)
	suite.Equal("200.00", resp.UnallocatedAmount)
	suite.Require().Len(resp.Allocations, 1)
	suite.Equal("1000.00", resp.Allocations[0].AmountAllocated)
}

func (suite *HandlerTestSuite) TestCreateReceipt_ConcurrentModification() {
	suite.receipts.On("CreateReceipt", mock.Anything, mock.Anything, suite.actorUserID).
		Return(nil, fmt.Errorf("create receipt: %w", apperrors.ErrConcurrency)).Once()

	w := suite.do(http.MethodPost, "/api/v1/receipts", map[string]any{"dealID": "d1", "amount": "10", "method": "Cash"}, true)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestListReceiptsByDeal() {
	token := "dG9rZW4="
	next := "bmV4dA=="
	suite.receipts.On("ListReceiptsByDeal", mock.Anything, "d1", mock.MatchedBy(func(p dto.ListReceiptsParams) bool {
		return p.Limit == 2 && p.NextToken != nil && *p.NextToken == token
	})).Return(&dto.ListReceiptsResponse{
		Receipts:  []dto.ReceiptResponse{{ReceiptID: "r2"}, {ReceiptID: "r1"}},
		NextToken: &next,
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/deals/d1/receipts?limit=2&nextToken="+token, nil, false)

	suite.Equal(http.StatusOK, w.Code)
	resp := suite.decode(w)
	suite.Len(resp["receipts"], 2)
	suite.Equal(next, resp["nextToken"])
}

func (suite *HandlerTestSuite) TestDeleteReceipt() {
	suite.receipts.On("DeleteReceipt", mock.Anything, "r1", suite.actorUserID).Return(nil).Once()
	suite.receipts.On("DeleteReceipt", mock.Anything, "r2", suite.actorUserID).
		Return(fmt.Errorf("receipt r2: %w", apperrors.ErrNotFound)).Once()

	suite.Equal(http.StatusNoContent, suite.do(http.MethodDelete, "/api/v1/receipts/r1", nil, true).Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodDelete, "/api/v1/receipts/r2", nil, true).Code)
}
