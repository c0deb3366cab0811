package models

import "time"

type TransactionType string

const (
	TxPaymentReceived TransactionType = "payment_received"
	TxRefund          TransactionType = "refund"
	TxReleasePending  TransactionType = "release_pending"
)

type Bucket string

const (
	BucketPending   Bucket = "pending"
	BucketAvailable Bucket = "available"
)

// Wallet is a provider's running balance, kept in step with its transactions.
type Wallet struct {
	ProviderID       string    `gorm:"primaryKey;size:64" json:"provider_id"`
	PendingBalance   float64   `gorm:"type:numeric(14,2);not null;default:0" json:"pending_balance"`
	AvailableBalance float64   `gorm:"type:numeric(14,2);not null;default:0" json:"available_balance"`
	Currency         string    `gorm:"size:8" json:"currency"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// Transaction is an append-only ledger line in a provider's wallet. Amount is signed.
//
// Lines only carry the provider's share of a booking, the net after the platform fee. A refund
// line is therefore net × refund share: a full refund of a 92.00 booking with a 12.00 fee books
// -80.00 here, while the client gets 92.00 back (Resolution.ClientRefundAmount). The 12.00 fee
// part is returned from the platform's commission, which never enters a provider wallet.
type Transaction struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	ProviderID     string          `gorm:"index;size:64;not null" json:"provider_id"`
	BookingID      string          `gorm:"index;size:64;not null" json:"booking_id"`
	ClientID       string          `gorm:"size:64" json:"client_id,omitempty"`
	Type           TransactionType `gorm:"size:32;not null" json:"type"`
	Bucket         Bucket          `gorm:"size:16;not null" json:"bucket"`
	Amount         float64         `gorm:"type:numeric(14,2);not null" json:"amount"`
	IdempotencyKey string          `gorm:"uniqueIndex;size:160;not null" json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (Transaction) TableName() string { return "wallet_transactions" }

// IdempotencyKeyFor builds the key that makes a ledger line safe to replay.
func IdempotencyKeyFor(bookingID string, t TransactionType, b Bucket) string {
	return bookingID + ":" + string(t) + ":" + string(b)
}

// WalletDrift is the outcome of recomputing a wallet from its transactions.
type WalletDrift struct {
	ProviderID        string  `json:"provider_id"`
	PendingBalance    float64 `json:"pending_balance"`
	AvailableBalance  float64 `json:"available_balance"`
	ComputedPending   float64 `json:"computed_pending"`
	ComputedAvailable float64 `json:"computed_available"`
	TransactionCount  int     `json:"transaction_count"`
	Consistent        bool    `json:"consistent"`
}
