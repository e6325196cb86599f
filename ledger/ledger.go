package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poker-service/models"
	apperr "poker-service/pkg/errors"
)

// Ledger moves balance between player profiles and the table. Buy-ins
// and rebuys debit the profile; cash-outs credit it. Each movement runs
// in its own transaction with the profile row locked, so two
// simultaneous buy-ins cannot overdraw.
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Ledger {
	return &Ledger{db: db, log: log}
}

// Debit withdraws amount from the user's balance, failing with
// ErrInsufficientFunds if the balance cannot cover it.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int) error {
	if amount <= 0 {
		return apperr.ErrInvalidAmount
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&profile, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrPlayerNotFound
		}
		if err != nil {
			return err
		}
		if profile.Balance < amount {
			return apperr.ErrInsufficientFunds
		}
		profile.Balance -= amount
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		l.log.Info("ledger debit",
			zap.String("user_id", userID),
			zap.Int("amount", amount),
			zap.Int("balance", profile.Balance))
		return nil
	})
}

// Credit deposits amount into the user's balance, creating the profile
// row if it does not exist yet.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int) error {
	if amount < 0 {
		return apperr.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&profile, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{ID: userID}
			err = nil
		}
		if err != nil {
			return err
		}
		profile.Balance += amount
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		l.log.Info("ledger credit",
			zap.String("user_id", userID),
			zap.Int("amount", amount),
			zap.Int("balance", profile.Balance))
		return nil
	})
}

// Balance reads the current balance. A missing profile reads as zero.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var profile models.Profile
	err := l.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return profile.Balance, nil
}
