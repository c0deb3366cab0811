package booking

import (
	"testing"

	"reservo/apperr"
	"reservo/models"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		svc     models.Service
		minutes int
		want    Price
	}{
		{"hourly two hours", models.Service{PricingType: models.PricingHourly, HourlyRate: 40}, 120, Price{80, 12, 92}},
		{"hourly half hour", models.Service{PricingType: models.PricingHourly, HourlyRate: 25}, 30, Price{12.5, 1.88, 14.38}},
		{"odd cents", models.Service{PricingType: models.PricingHourly, HourlyRate: 33.33}, 45, Price{25, 3.75, 28.75}},
		{"package ignores duration", models.Service{PricingType: models.PricingPackage, PackagePrice: 150}, 240, Price{150, 22.5, 172.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Quote(tc.svc, tc.minutes)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Quote = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestQuoteRejects(t *testing.T) {
	bad := []struct {
		svc     models.Service
		minutes int
	}{
		{models.Service{PricingType: models.PricingHourly, HourlyRate: 40}, 0},
		{models.Service{PricingType: models.PricingHourly}, 60},
		{models.Service{PricingType: models.PricingPackage}, 60},
		{models.Service{PricingType: "barter", HourlyRate: 10}, 60},
	}
	for _, tc := range bad {
		if _, err := Quote(tc.svc, tc.minutes); !apperr.Is(err, apperr.CodeInvalidInput) {
			t.Errorf("%+v: %v", tc.svc, err)
		}
	}
}

func TestSettlement(t *testing.T) {
	b := &models.Booking{ServiceFee: 80, PlatformFee: 12, TotalPrice: 92}
	for _, tc := range []struct {
		pct             float64
		refund, release float64
	}{
		{100, 92, 0},
		{0, 0, 80},
		{50, 46, 40},
		{33, 30.36, 53.6},
	} {
		refund, release := Settlement(b, tc.pct)
		if refund != tc.refund || release != tc.release {
			t.Errorf("Settlement(%v) = %v, %v", tc.pct, refund, release)
		}
	}
}
