// File: database/repository/wallet/wallet.go
package walletRepo

import (
	"context"
	"errors"
	"fmt"

	"reservo/database"
	"reservo/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the provider ledger. Transactions are append-only; the wallet row is
// moved in the same database transaction as every append.
type WalletRepository interface {
	// Append writes txs that are not already recorded (by idempotency key) and returns how many landed.
	Append(ctx context.Context, providerID string, txs []models.Transaction) (int, error)
	GetWallet(ctx context.Context, providerID string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, providerID string, limit, offset int) ([]models.Transaction, error)
	// SumByBucket recomputes balances from the transactions alone.
	SumByBucket(ctx context.Context, providerID string) (pending, available float64, count int, err error)
}

type GormWalletRepository struct {
	db *gorm.DB
}

func NewGormWalletRepository(db *gorm.DB) WalletRepository {
	return &GormWalletRepository{db: db}
}

// NewWalletRepo uses the global ledger connection.
func NewWalletRepo() WalletRepository {
	return NewGormWalletRepository(database.LedgerDB)
}

func (r *GormWalletRepository) Append(ctx context.Context, providerID string, txs []models.Transaction) (int, error) {
	appended := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Wallet{ProviderID: providerID, Currency: models.DefaultCurrency}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("ensure wallet: %w", err)
		}

		var w models.Wallet
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider_id = ?", providerID).
			First(&w).Error; err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		pending := decimal.NewFromFloat(w.PendingBalance)
		available := decimal.NewFromFloat(w.AvailableBalance)
		for i := range txs {
			t := txs[i]
			var n int64
			if err := tx.Model(&models.Transaction{}).
				Where("idempotency_key = ?", t.IdempotencyKey).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("append transaction %s: %w", t.IdempotencyKey, err)
			}
			amount := decimal.NewFromFloat(t.Amount)
			switch t.Bucket {
			case models.BucketPending:
				pending = pending.Add(amount)
			case models.BucketAvailable:
				available = available.Add(amount)
			}
			appended++
		}
		if appended == 0 {
			return nil
		}

		return tx.Model(&w).Updates(map[string]any{
			"pending_balance":   pending.Round(2).InexactFloat64(),
			"available_balance": available.Round(2).InexactFloat64(),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return appended, nil
}

func (r *GormWalletRepository) GetWallet(ctx context.Context, providerID string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Wallet{ProviderID: providerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormWalletRepository) ListTransactions(ctx context.Context, providerID string, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *GormWalletRepository) SumByBucket(ctx context.Context, providerID string) (float64, float64, int, error) {
	var rows []struct {
		Bucket models.Bucket
		Total  float64
		N      int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("bucket, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Where("provider_id = ?", providerID).
		Group("bucket").
		Scan(&rows).Error; err != nil {
		return 0, 0, 0, err
	}

	var pending, available float64
	count := 0
	for _, row := range rows {
		switch row.Bucket {
		case models.BucketPending:
			pending = row.Total
		case models.BucketAvailable:
			available = row.Total
		}
		count += row.N
	}
	return pending, available, count, nil
}
