// Package wallet keeps provider balances in step with booking outcomes. It only reacts to
// lifecycle events; it never moves a booking itself.
package wallet

import (
	"context"
	"fmt"
	"time"

	walletRepo "reservo/database/repository/wallet"
	"reservo/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Events the ledger books money for.
var Consumes = []models.BookingEventType{models.EventBookingCompleted, models.EventBookingResolved}

type LedgerService interface {
	Handle(ctx context.Context, evt models.BookingEvent) error
	GetWallet(ctx context.Context, providerID string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, providerID string, limit, offset int) ([]models.Transaction, error)
	Verify(ctx context.Context, providerID string) (*models.WalletDrift, error)
}

type Ledger struct {
	Repo   walletRepo.WalletRepository
	Logger *zap.Logger
	Now    func() time.Time
}

func NewLedger(repo walletRepo.WalletRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{Repo: repo, Logger: logger}
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

// Handle appends the transactions an event implies. Redelivery appends nothing.
func (l *Ledger) Handle(ctx context.Context, evt models.BookingEvent) error {
	txs, err := Entries(evt, l.now())
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}
	n, err := l.Repo.Append(ctx, evt.ProviderID, txs)
	if err != nil {
		return fmt.Errorf("ledger append for booking %s: %w", evt.BookingID, err)
	}
	if n == 0 {
		l.Logger.Debug("Ledger event already applied", zap.String("bookingId", evt.BookingID), zap.String("type", string(evt.Type)))
		return nil
	}
	l.Logger.Info("Ledger updated",
		zap.String("providerId", evt.ProviderID),
		zap.String("bookingId", evt.BookingID),
		zap.String("event", string(evt.Type)),
		zap.Int("transactions", n))
	return nil
}

// Entries translates an event into ledger lines. Net is what the provider earns before any refund;
// the refund line takes back the provider's share only (see models.Transaction).
func Entries(evt models.BookingEvent, at time.Time) ([]models.Transaction, error) {
	gross := decimal.NewFromFloat(evt.TotalPrice)
	commission := decimal.NewFromFloat(evt.PlatformFee)
	net := gross.Sub(commission).Round(2)
	if net.IsNegative() {
		return nil, fmt.Errorf("booking %s: platform fee exceeds total", evt.BookingID)
	}

	var release decimal.Decimal
	var refund decimal.Decimal
	switch evt.Type {
	case models.EventBookingCompleted:
		release = net
	case models.EventBookingResolved:
		r := decimal.NewFromFloat(evt.RefundPercentage).Div(decimal.NewFromInt(100))
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("booking %s: refund percentage %v out of range", evt.BookingID, evt.RefundPercentage)
		}
		release = net.Mul(decimal.NewFromInt(1).Sub(r)).Round(2)
		refund = net.Sub(release)
	default:
		return nil, nil
	}

	line := func(t models.TransactionType, b models.Bucket, amount decimal.Decimal) models.Transaction {
		return models.Transaction{
			ID:             uuid.New().String(),
			ProviderID:     evt.ProviderID,
			BookingID:      evt.BookingID,
			Type:           t,
			Bucket:         b,
			Amount:         amount.InexactFloat64(),
			IdempotencyKey: models.IdempotencyKeyFor(evt.BookingID, t, b),
			CreatedAt:      at,
		}
	}

	txs := []models.Transaction{line(models.TxPaymentReceived, models.BucketPending, net)}
	if refund.IsPositive() {
		t := line(models.TxRefund, models.BucketPending, refund.Neg())
		t.ClientID = evt.ClientID
		txs = append(txs, t)
	}
	if release.IsPositive() {
		txs = append(txs,
			line(models.TxReleasePending, models.BucketPending, release.Neg()),
			line(models.TxReleasePending, models.BucketAvailable, release))
	}
	return txs, nil
}

func (l *Ledger) GetWallet(ctx context.Context, providerID string) (*models.Wallet, error) {
	w, err := l.Repo.GetWallet(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet for %s: %w", providerID, err)
	}
	if w.Currency == "" {
		w.Currency = models.DefaultCurrency
	}
	return w, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, providerID string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	txs, err := l.Repo.ListTransactions(ctx, providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", providerID, err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// Verify recomputes balances from the transactions and compares them with the wallet row.
func (l *Ledger) Verify(ctx context.Context, providerID string) (*models.WalletDrift, error) {
	w, err := l.Repo.GetWallet(ctx, providerID)
	if err != nil {
		return nil, err
	}
	pending, available, count, err := l.Repo.SumByBucket(ctx, providerID)
	if err != nil {
		return nil, err
	}
	d := &models.WalletDrift{
		ProviderID:        providerID,
		PendingBalance:    w.PendingBalance,
		AvailableBalance:  w.AvailableBalance,
		ComputedPending:   round2(pending),
		ComputedAvailable: round2(available),
		TransactionCount:  count,
	}
	d.Consistent = round2(w.PendingBalance) == d.ComputedPending && round2(w.AvailableBalance) == d.ComputedAvailable
	if !d.Consistent {
		l.Logger.Warn("Wallet drift detected",
			zap.String("providerId", providerID),
			zap.Float64("pending", w.PendingBalance),
			zap.Float64("computedPending", d.ComputedPending),
			zap.Float64("available", w.AvailableBalance),
			zap.Float64("computedAvailable", d.ComputedAvailable))
	}
	return d, nil
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
