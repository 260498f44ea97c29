package repository

import (
	"context"
	"time"

	"commerce-core/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Add(ctx context.Context, tx *gorm.DB, item *model.CartItem) error
	QuantityOf(ctx context.Context, tx *gorm.DB, userID, productID uint) (int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*model.CartItem, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uint) error
}

type cartRepoImpl struct{}

func NewCartRepository() CartRepository {
	return &cartRepoImpl{}
}

// Add inserts the line or bumps the quantity of the existing one.
func (r *cartRepoImpl) Add(ctx context.Context, tx *gorm.DB, item *model.CartItem) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
}

func (r *cartRepoImpl) QuantityOf(ctx context.Context, tx *gorm.DB, userID, productID uint) (int64, error) {
	var quantities []int64
	err := tx.WithContext(ctx).Model(&model.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Pluck("quantity", &quantities).Error
	if err != nil || len(quantities) == 0 {
		return 0, err
	}

	return quantities[0], nil
}

func (r *cartRepoImpl) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *cartRepoImpl) Clear(ctx context.Context, tx *gorm.DB, userID uint) error {
	return tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
