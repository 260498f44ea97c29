package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topup *model.WalletTopup) error
	LockByID(ctx context.Context, tx *gorm.DB, topupID uint) (*model.WalletTopup, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, topupID uint) error
	MarkFailed(ctx context.Context, tx *gorm.DB, topupID uint) error
}

type topupRepoImpl struct{}

func NewTopupRepository() TopupRepository {
	return &topupRepoImpl{}
}

func (r *topupRepoImpl) Create(ctx context.Context, tx *gorm.DB, topup *model.WalletTopup) error {
	return tx.WithContext(ctx).Create(topup).Error
}

func (r *topupRepoImpl) LockByID(ctx context.Context, tx *gorm.DB, topupID uint) (*model.WalletTopup, error) {
	var topup model.WalletTopup
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", topupID).
		First(&topup).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("wallet topup", topupID)
		}
		return nil, err
	}

	return &topup, nil
}

func (r *topupRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, topupID uint) error {
	now := time.Now()
	return r.transition(ctx, tx, topupID, map[string]interface{}{
		"status":     model.TopupPaid,
		"paid_at":    now,
		"updated_at": now,
	})
}

func (r *topupRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, topupID uint) error {
	return r.transition(ctx, tx, topupID, map[string]interface{}{
		"status":     model.TopupFailed,
		"updated_at": time.Now(),
	})
}

func (r *topupRepoImpl) transition(ctx context.Context, tx *gorm.DB, topupID uint, values map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.WalletTopup{}).
		Where("id = ? AND status = ?", topupID, model.TopupWaitingPayment).
		Updates(values)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wallet topup %d is no longer waiting for payment", topupID)
	}

	return nil
}
