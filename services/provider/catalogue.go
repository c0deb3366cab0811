package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reservo/apperr"
	"reservo/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultCatalogueService) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	services, err := s.Repo.ListServices(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services for provider %s: %w", providerID, err)
	}
	if services == nil {
		services = []models.Service{}
	}
	return services, nil
}

// SetServices replaces the provider's whole catalogue. Entries keep their id when given one so
// bookings made against them still resolve.
func (s *DefaultCatalogueService) SetServices(ctx context.Context, actor models.Actor, providerID string, req models.SetServicesRequest) ([]models.Service, error) {
	if actor.Role != models.RoleAdmin && (actor.Role != models.RoleProvider || actor.ID != providerID) {
		return nil, apperr.Forbidden("only the provider can change their services")
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	seen := map[string]bool{}
	out := make([]models.Service, 0, len(req.Services))
	for i, svc := range req.Services {
		if err := validateService(svc); err != nil {
			return nil, err.With("index", i)
		}
		if svc.ID == "" {
			svc.ID = uuid.New().String()
		}
		if seen[svc.ID] {
			return nil, apperr.Validation(apperr.CodeInvalidInput, "duplicate service id %s", svc.ID)
		}
		seen[svc.ID] = true

		svc.ProviderID = providerID
		svc.Name = strings.TrimSpace(svc.Name)
		if svc.Currency == "" {
			svc.Currency = models.DefaultCurrency
		}
		svc.Currency = strings.ToUpper(svc.Currency)
		if svc.BookingMode == "" {
			svc.BookingMode = models.ModeRequest
		}
		// Only the rate that matches the pricing type is kept.
		if svc.PricingType == models.PricingHourly {
			svc.PackagePrice = 0
		} else {
			svc.HourlyRate = 0
		}
		svc.Active = true
		svc.UpdatedAt = now
		out = append(out, svc)
	}

	if err := s.Repo.ReplaceServices(ctx, providerID, out); err != nil {
		return nil, fmt.Errorf("failed to save services for provider %s: %w", providerID, err)
	}
	s.Logger.Info("Service catalogue updated", zap.String("providerId", providerID), zap.Int("services", len(out)))
	return out, nil
}

func validateService(svc models.Service) *apperr.Error {
	if strings.TrimSpace(svc.Name) == "" {
		return apperr.Validation(apperr.CodeInvalidInput, "service name is required")
	}
	switch svc.PricingType {
	case models.PricingHourly:
		if svc.HourlyRate <= 0 {
			return apperr.Validation(apperr.CodeInvalidInput, "hourly_rate must be positive for hourly services")
		}
	case models.PricingPackage:
		if svc.PackagePrice <= 0 {
			return apperr.Validation(apperr.CodeInvalidInput, "package_price must be positive for package services")
		}
	default:
		return apperr.Validation(apperr.CodeInvalidInput, "pricing_type must be hourly or package")
	}
	switch svc.BookingMode {
	case "", models.ModeRequest, models.ModeInstant:
	default:
		return apperr.Validation(apperr.CodeInvalidInput, "unknown booking_mode %q", svc.BookingMode)
	}
	return nil
}
