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

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Order, error)
	LockByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) error
	MarkCancelled(ctx context.Context, tx *gorm.DB, orderID uint) error
}

type orderRepoImpl struct{}

func NewOrderRepository() OrderRepository {
	return &orderRepoImpl{}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("number = ?", number).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order", number)
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) LockByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order", orderID)
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) error {
	now := time.Now()
	return r.transition(ctx, tx, orderID, model.OrderPaid, map[string]interface{}{
		"status":     model.OrderPaid,
		"paid_at":    now,
		"updated_at": now,
	})
}

func (r *orderRepoImpl) MarkCancelled(ctx context.Context, tx *gorm.DB, orderID uint) error {
	now := time.Now()
	return r.transition(ctx, tx, orderID, model.OrderCancelled, map[string]interface{}{
		"status":       model.OrderCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	})
}

// transition only moves orders out of waiting_payment; status is the one
// field allowed to change after creation.
func (r *orderRepoImpl) transition(ctx context.Context, tx *gorm.DB, orderID uint, to model.OrderStatus, values map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderWaitingPayment).
		Updates(values)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %d cannot move to %s", orderID, to)
	}

	return nil
}
