package models

// --- PaymentRequest & PaymentResult ---
type PaymentRequest struct {
	BookingID   string
	ClientID    string
	ProviderID  string
	Amount      float64
	Currency    string
	Idempotency string
	Metadata    map[string]string
	Description string
}

type PaymentResult struct {
	Ref          string
	Status       PaymentStatus
	ClientSecret string
}
