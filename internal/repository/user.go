package repository

import (
	"context"
	"errors"
	"fmt"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletLedger mutates the two user balances. It never opens its own
// transaction: every call runs on the tx handed in by the caller so the
// balance change commits or rolls back together with the caller's work.
type WalletLedger interface {
	LockUser(ctx context.Context, tx *gorm.DB, userID uint) (*model.User, error)
	Credit(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency, amount int64, reason, reference string) (int64, error)
	Debit(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency, amount int64, reason, reference string) (int64, error)
	Mutations(ctx context.Context, tx *gorm.DB, userID uint) ([]*model.WalletMutation, error)
}

type walletLedgerImpl struct{}

func NewWalletLedger() WalletLedger {
	return &walletLedgerImpl{}
}

func (l *walletLedgerImpl) LockUser(ctx context.Context, tx *gorm.DB, userID uint) (*model.User, error) {
	var user model.User
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	return &user, nil
}

func (l *walletLedgerImpl) Credit(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Validation("amount", "must be positive")
	}
	col := currency.Column()

	result := tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update(col, gorm.Expr(col+" + ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("credit %s balance: %w", currency, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperror.NotFound("user", userID)
	}

	return l.record(ctx, tx, userID, currency, amount, reason, reference)
}

func (l *walletLedgerImpl) Debit(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Validation("amount", "must be positive")
	}
	col := currency.Column()

	result := tx.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND "+col+" >= ?", userID, amount).
		Update(col, gorm.Expr(col+" - ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("debit %s balance: %w", currency, result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := l.balance(ctx, tx, userID, currency)
		if err != nil {
			return 0, err
		}
		return 0, &apperror.InsufficientBalanceError{
			Currency: string(currency),
			Required: amount,
			Current:  current,
		}
	}

	return l.record(ctx, tx, userID, currency, -amount, reason, reference)
}

func (l *walletLedgerImpl) Mutations(ctx context.Context, tx *gorm.DB, userID uint) ([]*model.WalletMutation, error) {
	var mutations []*model.WalletMutation
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&mutations).Error
	if err != nil {
		return nil, err
	}

	return mutations, nil
}

func (l *walletLedgerImpl) balance(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency) (int64, error) {
	var user model.User
	err := tx.WithContext(ctx).
		Select("id", "balance", "coin_balance").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound("user", userID)
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}

	return user.BalanceOf(currency), nil
}

func (l *walletLedgerImpl) record(ctx context.Context, tx *gorm.DB, userID uint, currency model.Currency, amount int64, reason, reference string) (int64, error) {
	after, err := l.balance(ctx, tx, userID, currency)
	if err != nil {
		return 0, err
	}

	err = tx.WithContext(ctx).Create(&model.WalletMutation{
		UserID:       userID,
		Currency:     currency,
		Amount:       amount,
		BalanceAfter: after,
		Reason:       reason,
		Reference:    reference,
	}).Error
	if err != nil {
		return 0, fmt.Errorf("record wallet mutation: %w", err)
	}

	return after, nil
}

type UserRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, userID uint) (*model.User, error)
}

type userRepoImpl struct{}

func NewUserRepository() UserRepository {
	return &userRepoImpl{}
}

func (r *userRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, userID uint) (*model.User, error) {
	var user model.User
	err := tx.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, err
	}

	return &user, nil
}
