package repository

import (
	"context"
	"fmt"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
)

// InventoryGuard moves product stock. Callers must already hold the row
// lock on the product (see ProductRepository.LockMany).
type InventoryGuard interface {
	Decrement(ctx context.Context, tx *gorm.DB, product *model.Product, quantity int64) error
	Restock(ctx context.Context, tx *gorm.DB, productID uint, quantity int64) error
}

type inventoryGuardImpl struct{}

func NewInventoryGuard() InventoryGuard {
	return &inventoryGuardImpl{}
}

func (g *inventoryGuardImpl) Decrement(ctx context.Context, tx *gorm.DB, product *model.Product, quantity int64) error {
	if quantity <= 0 {
		return apperror.Validation("quantity", "must be positive")
	}

	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", product.ID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("decrement stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var available int64
		err := tx.WithContext(ctx).Model(&model.Product{}).
			Where("id = ?", product.ID).
			Pluck("stock", &available).Error
		if err != nil {
			return fmt.Errorf("read stock: %w", err)
		}
		return &apperror.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   available,
		}
	}

	product.Stock -= quantity
	return nil
}

func (g *inventoryGuardImpl) Restock(ctx context.Context, tx *gorm.DB, productID uint, quantity int64) error {
	if quantity <= 0 {
		return nil
	}

	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}
