package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/core/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, includeInactive bool, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, includeInactive, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) AccountHasHistory(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	now      time.Time
	userID   string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	suite.userID = uuid.NewString()
	suite.service = services.NewAccountService(suite.mockRepo, services.WithClock(func() time.Time { return suite.now }))
}

func (suite *AccountServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Code: " 1000 ", Name: "Cash on hand", Category: "asset"}

	suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Code == "1000" && a.Category == domain.Asset && a.IsActive
	})).Return(nil).Once()

	created, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.AccountID)
	suite.Equal("Cash on hand", created.Name)
	suite.Equal(suite.userID, created.CreatedBy)
	suite.Equal(suite.now, created.CreatedAt)
	suite.Equal(suite.now, created.LastUpdatedAt)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_EmptyCategoryDefaultsToAsset() {
	ctx := context.Background()
	suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Category == domain.Asset
	})).Return(nil).Once()

	created, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Code: "1010", Name: "Bank"}, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(domain.Asset, created.Category)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Validation() {
	ctx := context.Background()
	cases := []struct {
		name string
		req  dto.CreateAccountRequest
		rule string
	}{
		{"missing code", dto.CreateAccountRequest{Code: "  ", Name: "Cash"}, apperrors.RuleRequired},
		{"missing name", dto.CreateAccountRequest{Code: "1000"}, apperrors.RuleRequired},
		{"unknown category", dto.CreateAccountRequest{Code: "1000", Name: "Cash", Category: "STOCK"}, apperrors.RuleInvalidCategory},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			created, err := suite.service.CreateAccount(ctx, tc.req, suite.userID)
			suite.Nil(created)
			suite.ErrorIs(err, apperrors.ErrValidation)
			var vErr *apperrors.ValidationError
			suite.Require().ErrorAs(err, &vErr)
			suite.Equal(tc.rule, vErr.Rule)
		})
	}
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	ctx := context.Background()
	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(apperrors.ErrDuplicate).Once()

	created, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Code: "1000", Name: "Cash"}, suite.userID)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_SaveError() {
	ctx := context.Background()
	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(assert.AnError).Once()

	created, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Code: "1000", Name: "Cash"}, suite.userID)
	suite.Nil(created)
	suite.ErrorIs(err, assert.AnError)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID() {
	ctx := context.Background()
	expected := &domain.Account{AccountID: "a1", Code: "1000", Category: domain.Asset, IsActive: true}
	suite.mockRepo.On("FindAccountByID", ctx, "a1").Return(expected, nil).Once()
	suite.mockRepo.On("FindAccountByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.GetAccountByID(ctx, "a1")
	suite.Require().NoError(err)
	suite.Equal(expected, account)

	account, err = suite.service.GetAccountByID(ctx, "missing")
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestGetAccountByCode_TrimsInput() {
	ctx := context.Background()
	expected := &domain.Account{AccountID: "a1", Code: "1200"}
	suite.mockRepo.On("FindAccountByCode", ctx, "1200").Return(expected, nil).Once()

	account, err := suite.service.GetAccountByCode(ctx, " 1200 ")
	suite.Require().NoError(err)
	suite.Equal("a1", account.AccountID)
}

func (suite *AccountServiceTestSuite) TestGetAccountByIDs_EmptyInputSkipsRepo() {
	accounts, err := suite.service.GetAccountByIDs(context.Background(), nil)
	suite.Require().NoError(err)
	suite.Empty(accounts)
}

func (suite *AccountServiceTestSuite) TestListAccounts_ClampsPaging() {
	ctx := context.Background()
	suite.mockRepo.On("ListAccounts", ctx, false, 50, 0).Return(nil, nil).Once()
	suite.mockRepo.On("ListAccounts", ctx, true, 500, 10).Return([]domain.Account{{AccountID: "a1"}}, nil).Once()

	accounts, err := suite.service.ListAccounts(ctx, dto.ListAccountsParams{Offset: -3})
	suite.Require().NoError(err)
	suite.NotNil(accounts)
	suite.Empty(accounts)

	accounts, err = suite.service.ListAccounts(ctx, dto.ListAccountsParams{IncludeInactive: true, Limit: 10000, Offset: 10})
	suite.Require().NoError(err)
	suite.Len(accounts, 1)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_Success() {
	ctx := context.Background()
	existing := &domain.Account{AccountID: "a1", Code: "4000", Name: "Sales", Category: domain.Revenue, IsActive: true}
	newName := "Unit sales"
	suite.mockRepo.On("FindAccountByID", ctx, "a1").Return(existing, nil).Once()
	suite.mockRepo.On("AccountHasHistory", ctx, "a1").Return(false, nil).Once()
	suite.mockRepo.On("UpdateAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Name == newName && a.LastUpdatedBy == suite.userID && a.LastUpdatedAt.Equal(suite.now)
	})).Return(nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, "a1", dto.UpdateAccountRequest{Name: &newName}, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(newName, updated.Name)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_WithHistoryIsConflict() {
	ctx := context.Background()
	newName := "Renamed"
	suite.mockRepo.On("FindAccountByID", ctx, "a1").Return(&domain.Account{AccountID: "a1", Code: "1000"}, nil).Once()
	suite.mockRepo.On("AccountHasHistory", ctx, "a1").Return(true, nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, "a1", dto.UpdateAccountRequest{Name: &newName}, suite.userID)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_NoChangesSkipsWrite() {
	ctx := context.Background()
	existing := &domain.Account{AccountID: "a1", Code: "1000", Name: "Cash"}
	suite.mockRepo.On("FindAccountByID", ctx, "a1").Return(existing, nil).Once()
	suite.mockRepo.On("AccountHasHistory", ctx, "a1").Return(false, nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, "a1", dto.UpdateAccountRequest{}, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(existing, updated)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount() {
	ctx := context.Background()
	suite.mockRepo.On("DeactivateAccount", ctx, "a1", suite.userID, suite.now).Return(nil).Once()

	suite.NoError(suite.service.DeactivateAccount(ctx, "a1", suite.userID))
}

func (suite *AccountServiceTestSuite) TestDeleteAccount() {
	ctx := context.Background()
	suite.mockRepo.On("FindAccountByID", ctx, "fresh").Return(&domain.Account{AccountID: "fresh"}, nil).Once()
	suite.mockRepo.On("AccountHasHistory", ctx, "fresh").Return(false, nil).Once()
	suite.mockRepo.On("DeleteAccount", ctx, "fresh").Return(nil).Once()
	suite.mockRepo.On("FindAccountByID", ctx, "used").Return(&domain.Account{AccountID: "used"}, nil).Once()
	suite.mockRepo.On("AccountHasHistory", ctx, "used").Return(true, nil).Once()

	suite.NoError(suite.service.DeleteAccount(ctx, "fresh", suite.userID))
	suite.ErrorIs(suite.service.DeleteAccount(ctx, "used", suite.userID), apperrors.ErrConflict)
}

// --- Run Test Suite ---

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
