package memory

import (
	"context"

	"reservo/models"

	"github.com/shopspring/decimal"
)

type WalletStore struct{ s *Store }

func (r *WalletStore) Append(_ context.Context, providerID string, txs []models.Transaction) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[providerID]
	if !ok {
		w = models.Wallet{ProviderID: providerID, Currency: models.DefaultCurrency}
	}
	pending := decimal.NewFromFloat(w.PendingBalance)
	available := decimal.NewFromFloat(w.AvailableBalance)

	appended := 0
	for _, t := range txs {
		if _, dup := r.s.txKeys[t.IdempotencyKey]; dup {
			continue
		}
		r.s.txKeys[t.IdempotencyKey] = struct{}{}
		r.s.txs = append(r.s.txs, t)
		switch t.Bucket {
		case models.BucketPending:
			pending = pending.Add(decimal.NewFromFloat(t.Amount))
		case models.BucketAvailable:
			available = available.Add(decimal.NewFromFloat(t.Amount))
		}
		appended++
	}
	w.PendingBalance = pending.Round(2).InexactFloat64()
	w.AvailableBalance = available.Round(2).InexactFloat64()
	r.s.wallets[providerID] = w
	return appended, nil
}

func (r *WalletStore) GetWallet(_ context.Context, providerID string) (*models.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[providerID]
	if !ok {
		w = models.Wallet{ProviderID: providerID, Currency: models.DefaultCurrency}
	}
	return &w, nil
}

func (r *WalletStore) ListTransactions(_ context.Context, providerID string, limit, offset int) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Transaction
	for _, t := range r.s.txs {
		if t.ProviderID == providerID {
			out = append(out, t)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *WalletStore) SumByBucket(_ context.Context, providerID string) (float64, float64, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	pending, available := decimal.Zero, decimal.Zero
	count := 0
	for _, t := range r.s.txs {
		if t.ProviderID != providerID {
			continue
		}
		switch t.Bucket {
		case models.BucketPending:
			pending = pending.Add(decimal.NewFromFloat(t.Amount))
		case models.BucketAvailable:
			available = available.Add(decimal.NewFromFloat(t.Amount))
		}
		count++
	}
	return pending.Round(2).InexactFloat64(), available.Round(2).InexactFloat64(), count, nil
}
