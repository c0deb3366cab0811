// models/service_type.go
package models

import "time"

// DefaultCurrency applies when a service does not name one.
const DefaultCurrency = "USD"

type PricingType string

const (
	PricingHourly  PricingType = "hourly"
	PricingPackage PricingType = "package"
)

// Service is one entry of a provider's catalogue.
type Service struct {
	ID           string      `bson:"id" json:"id"`
	ProviderID   string      `bson:"providerId" json:"provider_id"`
	Name         string      `bson:"name" json:"name"` // e.g., "Deep cleaning"
	Description  string      `bson:"description,omitempty" json:"description,omitempty"`
	PricingType  PricingType `bson:"pricingType" json:"pricing_type"`
	HourlyRate   float64     `bson:"hourlyRate,omitempty" json:"hourly_rate,omitempty"`
	PackagePrice float64     `bson:"packagePrice,omitempty" json:"package_price,omitempty"`
	Currency     string      `bson:"currency" json:"currency"`
	BookingMode  BookingMode `bson:"bookingMode" json:"booking_mode"` // default for new bookings
	Active       bool        `bson:"active" json:"active"`
	UpdatedAt    time.Time   `bson:"updatedAt" json:"updated_at"`
}

type SetServicesRequest struct {
	Services []Service `json:"services" binding:"required"`
}
