package provider

import (
	"context"
	"testing"

	"reservo/apperr"
	"reservo/database/repository/memory"
	"reservo/models"

	"go.uber.org/zap/zaptest"
)

func TestSetServices(t *testing.T) {
	ctx := context.Background()
	svc, err := NewDefaultCatalogueService(memory.NewStore().Availability(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	owner := models.Actor{ID: "prov-1", Role: models.RoleProvider}

	req := models.SetServicesRequest{Services: []models.Service{
		{Name: " Deep cleaning ", PricingType: models.PricingHourly, HourlyRate: 40, PackagePrice: 99, Currency: "eur"},
		{ID: "move-out", Name: "Move-out", PricingType: models.PricingPackage, PackagePrice: 150, BookingMode: models.ModeInstant},
	}}
	got, err := svc.SetServices(ctx, owner, "prov-1", req)
	if err != nil {
		t.Fatalf("SetServices: %v", err)
	}
	first := got[0]
	if first.ID == "" || first.Name != "Deep cleaning" || first.Currency != "EUR" || first.PackagePrice != 0 {
		t.Errorf("first service %+v", first)
	}
	if first.BookingMode != models.ModeRequest || !first.Active || first.ProviderID != "prov-1" {
		t.Errorf("defaults not applied: %+v", first)
	}
	if got[1].ID != "move-out" || got[1].Currency != models.DefaultCurrency {
		t.Errorf("second service %+v", got[1])
	}

	listed, _ := svc.ListServices(ctx, "prov-1")
	if len(listed) != 2 {
		t.Fatalf("listed %d services", len(listed))
	}
	empty, _ := svc.ListServices(ctx, "prov-2")
	if empty == nil || len(empty) != 0 {
		t.Errorf("unknown provider listing %v", empty)
	}
}

func TestSetServicesRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := NewDefaultCatalogueService(memory.NewStore().Availability(), nil)
	owner := models.Actor{ID: "prov-1", Role: models.RoleProvider}
	ok := models.Service{Name: "x", PricingType: models.PricingHourly, HourlyRate: 10}

	other := models.Actor{ID: "prov-2", Role: models.RoleProvider}
	if _, err := svc.SetServices(ctx, other, "prov-1", models.SetServicesRequest{Services: []models.Service{ok}}); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Errorf("other provider: %v", err)
	}

	bad := []models.Service{
		{PricingType: models.PricingHourly, HourlyRate: 10},
		{Name: "x", PricingType: models.PricingHourly},
		{Name: "x", PricingType: models.PricingPackage},
		{Name: "x", PricingType: "daily", HourlyRate: 10},
		{Name: "x", PricingType: models.PricingHourly, HourlyRate: 10, BookingMode: "auction"},
	}
	for _, s := range bad {
		if _, err := svc.SetServices(ctx, owner, "prov-1", models.SetServicesRequest{Services: []models.Service{s}}); !apperr.Is(err, apperr.CodeInvalidInput) {
			t.Errorf("%+v: %v", s, err)
		}
	}
	dup := ok
	dup.ID = "same"
	if _, err := svc.SetServices(ctx, owner, "prov-1", models.SetServicesRequest{Services: []models.Service{dup, dup}}); !apperr.Is(err, apperr.CodeInvalidInput) {
		t.Errorf("duplicate ids: %v", err)
	}
	if _, err := NewDefaultCatalogueService(nil, nil); err == nil {
		t.Error("nil repo accepted")
	}
}
