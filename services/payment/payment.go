// Package payment opens payment intents for bookings. Capture and settlement happen at the
// processor; only the intent reference and its status come back.
package payment

import (
	"context"
	"fmt"
	"strings"

	"reservo/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

type Processor interface {
	CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error)
}

func validateRequest(req models.PaymentRequest) error {
	if req.BookingID == "" {
		return fmt.Errorf("booking id is required")
	}
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %.2f", req.Amount)
	}
	return nil
}

// toMinorUnits converts a decimal amount into cents.
func toMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StripeProcessor creates Stripe PaymentIntents. stripe.Key must be set by the caller.
type StripeProcessor struct {
	Logger *zap.Logger
}

func (p *StripeProcessor) CreatePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid payment request: %w", err)
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = strings.ToLower(models.DefaultCurrency)
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("client_id", req.ClientID)
	params.AddMetadata("provider_id", req.ProviderID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Idempotency != "" {
		params.SetIdempotencyKey(req.Idempotency)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		p.Logger.Error("Stripe payment intent failed", zap.String("bookingId", req.BookingID), zap.Error(err))
		return nil, fmt.Errorf("stripe: %w", err)
	}
	return &models.PaymentResult{
		Ref:          pi.ID,
		Status:       statusOf(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func statusOf(s stripe.PaymentIntentStatus) models.PaymentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}

// SimulatedProcessor approves every valid request. Used when no Stripe key is configured.
type SimulatedProcessor struct {
	Logger *zap.Logger
}

func (p *SimulatedProcessor) CreatePayment(_ context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid payment request: %w", err)
	}
	ref := "sim_" + uuid.New().String()
	p.Logger.Debug("Simulated payment", zap.String("bookingId", req.BookingID), zap.Float64("amount", req.Amount), zap.String("ref", ref))
	return &models.PaymentResult{Ref: ref, Status: models.PaymentSucceeded}, nil
}
