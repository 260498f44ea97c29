package repository

import (
	"context"
	"errors"

	"commerce-core/internal/model"

	"gorm.io/gorm"
)

type MarkupRuleRepository interface {
	FindSpecific(ctx context.Context, tx *gorm.DB, levelID uint, productType model.ProductType, productCode string) (*model.MarkupRule, error)
	FindWildcard(ctx context.Context, tx *gorm.DB, levelID uint, productType model.ProductType) (*model.MarkupRule, error)
}

type markupRuleRepoImpl struct{}

func NewMarkupRuleRepository() MarkupRuleRepository {
	return &markupRuleRepoImpl{}
}

func (r *markupRuleRepoImpl) FindSpecific(ctx context.Context, tx *gorm.DB, levelID uint, productType model.ProductType, productCode string) (*model.MarkupRule, error) {
	return r.first(tx.WithContext(ctx).
		Where("level_id = ? AND product_type = ? AND scope = ? AND product_code = ?",
			levelID, productType, model.ScopeSpecific, productCode))
}

func (r *markupRuleRepoImpl) FindWildcard(ctx context.Context, tx *gorm.DB, levelID uint, productType model.ProductType) (*model.MarkupRule, error) {
	return r.first(tx.WithContext(ctx).
		Where("level_id = ? AND product_type = ? AND scope = ?",
			levelID, productType, model.ScopeWildcard))
}

func (r *markupRuleRepoImpl) first(query *gorm.DB) (*model.MarkupRule, error) {
	var rule model.MarkupRule
	err := query.Order("id").First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rule, nil
}
