package booking

import (
	"reservo/apperr"
	"reservo/config"
	"reservo/models"

	"github.com/shopspring/decimal"
)

// Price is the fee breakdown of a booking.
type Price struct {
	ServiceFee  float64
	PlatformFee float64
	Total       float64
}

var platformRate = decimal.NewFromFloat(config.PlatformFeeRate)

// Quote prices a service for a contiguous span of minutes. Each amount is rounded to cents,
// half away from zero, and the total is the sum of the rounded fees.
func Quote(svc models.Service, minutes int) (Price, error) {
	if minutes <= 0 {
		return Price{}, apperr.Validation(apperr.CodeInvalidInput, "booking must span a positive duration")
	}

	var fee decimal.Decimal
	switch svc.PricingType {
	case models.PricingHourly:
		if svc.HourlyRate <= 0 {
			return Price{}, apperr.Validation(apperr.CodeInvalidInput, "service %s has no hourly rate", svc.ID)
		}
		fee = decimal.NewFromFloat(svc.HourlyRate).
			Mul(decimal.NewFromInt(int64(minutes))).
			Div(decimal.NewFromInt(60))
	case models.PricingPackage:
		if svc.PackagePrice <= 0 {
			return Price{}, apperr.Validation(apperr.CodeInvalidInput, "service %s has no package price", svc.ID)
		}
		fee = decimal.NewFromFloat(svc.PackagePrice)
	default:
		return Price{}, apperr.Validation(apperr.CodeInvalidInput, "service %s has unknown pricing type %q", svc.ID, svc.PricingType)
	}

	fee = fee.Round(2)
	platform := fee.Mul(platformRate).Round(2)
	return Price{
		ServiceFee:  fee.InexactFloat64(),
		PlatformFee: platform.InexactFloat64(),
		Total:       fee.Add(platform).InexactFloat64(),
	}, nil
}

// Settlement splits a resolved dispute. refundPct is 0-100 and applies to what the client paid;
// the provider keeps the same share of the net amount.
func Settlement(b *models.Booking, refundPct float64) (clientRefund, providerRelease float64) {
	r := decimal.NewFromFloat(refundPct).Div(decimal.NewFromInt(100))
	gross := decimal.NewFromFloat(b.TotalPrice)
	net := decimal.NewFromFloat(b.ServiceFee)
	clientRefund = gross.Mul(r).Round(2).InexactFloat64()
	providerRelease = net.Mul(decimal.NewFromInt(1).Sub(r)).Round(2).InexactFloat64()
	return clientRefund, providerRelease
}
