package repository

import (
	"context"
	"errors"
	"time"

	"commerce-core/internal/apperror"
	"commerce-core/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction) error
	SaveGatewayResponse(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction) error
	LockByExternalReference(ctx context.Context, tx *gorm.DB, externalReference string) (*model.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, paymentID uint, status model.PaymentStatus, callback datatypes.JSONType[model.AuditDocument]) error
	SaveCallback(ctx context.Context, tx *gorm.DB, paymentID uint, callback datatypes.JSONType[model.AuditDocument]) error
}

type paymentRepoImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepoImpl{}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) SaveGatewayResponse(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction) error {
	return tx.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"gateway_reference": payment.GatewayReference,
			"payment_url":       payment.PaymentURL,
			"request_payload":   payment.RequestPayload,
			"response_payload":  payment.ResponsePayload,
			"updated_at":        time.Now(),
		}).Error
}

func (r *paymentRepoImpl) LockByExternalReference(ctx context.Context, tx *gorm.DB, externalReference string) (*model.PaymentTransaction, error) {
	var payment model.PaymentTransaction
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_reference = ?", externalReference).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment", externalReference)
		}
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, paymentID uint, status model.PaymentStatus, callback datatypes.JSONType[model.AuditDocument]) error {
	return tx.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":           status,
			"callback_payload": callback,
			"updated_at":       time.Now(),
		}).Error
}

func (r *paymentRepoImpl) SaveCallback(ctx context.Context, tx *gorm.DB, paymentID uint, callback datatypes.JSONType[model.AuditDocument]) error {
	return tx.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"callback_payload": callback,
			"updated_at":       time.Now(),
		}).Error
}
