package services

import (
	"context"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
)

// DealSvcFacade registers the CRM deals that plans and receipts refer to.
type DealSvcFacade interface {
	// RegisterDeal stores a new deal. Registering an existing deal ID is a duplicate.
	RegisterDeal(ctx context.Context, req dto.RegisterDealRequest, userID string) (*domain.Deal, error)
	GetDeal(ctx context.Context, dealID string) (*domain.Deal, error)
}
