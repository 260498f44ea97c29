package repository

import (
	"context"
	"errors"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
)

type PpobRepository interface {
	FindProduct(ctx context.Context, tx *gorm.DB, code string) (*model.PpobProduct, error)
	CreateTransaction(ctx context.Context, tx *gorm.DB, trx *model.PpobTransaction) error
}

type ppobRepoImpl struct{}

func NewPpobRepository() PpobRepository {
	return &ppobRepoImpl{}
}

func (r *ppobRepoImpl) FindProduct(ctx context.Context, tx *gorm.DB, code string) (*model.PpobProduct, error) {
	var product model.PpobProduct
	err := tx.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&product).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("ppob product", code)
		}
		return nil, err
	}

	return &product, nil
}

func (r *ppobRepoImpl) CreateTransaction(ctx context.Context, tx *gorm.DB, trx *model.PpobTransaction) error {
	return tx.WithContext(ctx).Create(trx).Error
}
