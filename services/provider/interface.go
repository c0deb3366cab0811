package provider

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "reservo/database/repository/availability"
	"reservo/models"

	"go.uber.org/zap"
)

// CatalogueService manages the services a provider offers for booking.
type CatalogueService interface {
	ListServices(ctx context.Context, providerID string) ([]models.Service, error)
	SetServices(ctx context.Context, actor models.Actor, providerID string, req models.SetServicesRequest) ([]models.Service, error)
}

// DefaultCatalogueService is the production implementation.
type DefaultCatalogueService struct {
	Repo   availabilityRepo.AvailabilityRepository
	Logger *zap.Logger
	Now    func() time.Time
}

func NewDefaultCatalogueService(repo availabilityRepo.AvailabilityRepository, logger *zap.Logger) (*DefaultCatalogueService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalogue service initialization error: repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultCatalogueService{Repo: repo, Logger: logger}, nil
}
