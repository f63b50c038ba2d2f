package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

func (suite *HandlerTestSuite) TestRegisterDeal_Created() {
	deal := &domain.Deal{DealID: "D-100", ClientID: "C-7", Title: "Unit 4B", Amount: decimal.RequireFromString("250000")}
	suite.deals.On("RegisterDeal", mock.Anything, mock.MatchedBy(func(req dto.RegisterDealRequest) bool {
		return req.DealID == "D-100" && req.ClientID == "C-7" && req.Amount.Equal(decimal.RequireFromString("250000"))
	}), suite.actorUserID).Return(deal, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/deals", map[string]any{
		"dealID":   "D-100",
		"clientID": "C-7",
		"title":    "Unit 4B",
		"amount":   "250000",
	}, true)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.DealResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("D-100", resp.DealID)
	suite.Equal("250000.00", resp.Amount)
}

func (suite *HandlerTestSuite) TestRegisterDeal_MissingDealID() {
	w := suite.do(http.MethodPost, "/api/v1/deals", map[string]any{"amount": "100"}, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	fields, ok := suite.decode(w)["fields"].(map[string]any)
	suite.Require().True(ok, w.Body.String())
	suite.Equal("required", fields["RegisterDealRequest.dealID"])
}

func (suite *HandlerTestSuite) TestRegisterDeal_RequiresActor() {
	w := suite.do(http.MethodPost, "/api/v1/deals", map[string]any{"dealID": "D-100", "amount": "100"}, false)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestRegisterDeal_Duplicate() {
	suite.deals.On("RegisterDeal", mock.Anything, mock.Anything, suite.actorUserID).
		Return(nil, fmt.Errorf("deal D-100: %w", apperrors.ErrDuplicate)).Once()

	w := suite.do(http.MethodPost, "/api/v1/deals", map[string]any{"dealID": "D-100", "amount": "100"}, true)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGetDeal() {
	suite.deals.On("GetDeal", mock.Anything, "D-100").
		Return(&domain.Deal{DealID: "D-100", Amount: decimal.RequireFromString("99.5")}, nil).Once()
	suite.deals.On("GetDeal", mock.Anything, "D-404").
		Return(nil, fmt.Errorf("deal D-404: %w", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/deals/D-100", nil, false)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("99.50", suite.decode(w)["amount"])

	w = suite.do(http.MethodGet, "/api/v1/deals/D-404", nil, false)
	suite.Equal(http.StatusNotFound, w.Code)
}
