package repository

import (
	"context"
	"errors"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/gorm"
)

// AddressRepository is a read-only view over the profile service's
// address table.
type AddressRepository interface {
	FindDeliverable(ctx context.Context, tx *gorm.DB, userID uint) (*model.Address, error)
}

type addressRepoImpl struct{}

func NewAddressRepository() AddressRepository {
	return &addressRepoImpl{}
}

func (r *addressRepoImpl) FindDeliverable(ctx context.Context, tx *gorm.DB, userID uint) (*model.Address, error) {
	var address model.Address
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("id").
		First(&address).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("shipping address for user", userID)
		}
		return nil, err
	}

	if !address.Deliverable() {
		return nil, apperror.Validation("shipping_address", "address is incomplete")
	}

	return &address, nil
}
