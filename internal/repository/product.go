package repository

import (
	"context"
	"errors"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error)
	LockMany(ctx context.Context, tx *gorm.DB, productIDs []uint) ([]*model.Product, error)
}

type productRepoImpl struct{}

func NewProductRepository() ProductRepository {
	return &productRepoImpl{}
}

func (r *productRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, productID uint) (*model.Product, error) {
	var product model.Product
	err := tx.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", productID)
		}
		return nil, err
	}

	return &product, nil
}

// LockMany takes FOR UPDATE locks in id order so two checkouts sharing
// products cannot deadlock on each other.
func (r *productRepoImpl) LockMany(ctx context.Context, tx *gorm.DB, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", productIDs).
		Order("id").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
