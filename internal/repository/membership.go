package repository

import (
	"context"
	"errors"
	"time"

	"commerce-core/internal/model"

	"gorm.io/gorm"
)

type MembershipRepository interface {
	// ActiveLevel returns nil when the user has no active, unexpired membership.
	ActiveLevel(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) (*model.MembershipLevel, error)
	// DefaultLevel returns nil when no level is flagged as the platform default.
	DefaultLevel(ctx context.Context, tx *gorm.DB) (*model.MembershipLevel, error)
}

type membershipRepoImpl struct{}

func NewMembershipRepository() MembershipRepository {
	return &membershipRepoImpl{}
}

func (r *membershipRepoImpl) ActiveLevel(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) (*model.MembershipLevel, error) {
	var membership model.UserMembership
	err := tx.WithContext(ctx).
		Preload("Level").
		Where("user_id = ? AND active = ?", userID, true).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("id DESC").
		First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &membership.Level, nil
}

func (r *membershipRepoImpl) DefaultLevel(ctx context.Context, tx *gorm.DB) (*model.MembershipLevel, error) {
	var level model.MembershipLevel
	err := tx.WithContext(ctx).
		Where("is_default = ?", true).
		Order("id").
		First(&level).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &level, nil
}
