package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger_core/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

type dealService struct {
	BaseService
	repo portsrepo.DealRepositoryFacade
}

// NewDealService creates the service that keeps the CRM's deal references.
func NewDealService(repo portsrepo.DealRepositoryFacade, options ...ServiceOption) portssvc.DealSvcFacade {
	o := applyOptions(options)
	return &dealService{
		BaseService: newBaseService(o),
		repo:        repo,
	}
}

var _ portssvc.DealSvcFacade = (*dealService)(nil)

func (s *dealService) RegisterDeal(ctx context.Context, req dto.RegisterDealRequest, userID string) (*domain.Deal, error) {
	dealID := strings.TrimSpace(req.DealID)
	if dealID == "" {
		return nil, apperrors.NewValidationError(apperrors.RuleRequired, "dealID is required")
	}
	amount := domain.Round2(req.Amount)
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError(apperrors.RuleNonPositiveAmount, "deal amount must be positive, got %s", req.Amount.String())
	}

	deal := domain.Deal{
		DealID:   dealID,
		ClientID: strings.TrimSpace(req.ClientID),
		Title:    strings.TrimSpace(req.Title),
		Amount:   amount,
	}
	if err := s.repo.SaveDeal(ctx, deal); err != nil {
		s.logUnlessExpected(ctx, err, "Failed to save deal", slog.String("deal_id", dealID))
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}

	s.LogInfo(ctx, "Deal registered",
		slog.String("deal_id", deal.DealID),
		slog.String("client_id", deal.ClientID),
		slog.String("amount", deal.Amount.StringFixed(2)),
		slog.String("user_id", userID))
	return &deal, nil
}

func (s *dealService) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	deal, err := s.repo.FindDealByID(ctx, strings.TrimSpace(dealID))
	if err != nil {
		s.logUnlessExpected(ctx, err, "Failed to find deal", slog.String("deal_id", dealID))
		return nil, err
	}
	return deal, nil
}
