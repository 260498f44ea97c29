package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"commerce-core/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Insert(ctx context.Context, tx *gorm.DB, topic, key string, payload any) error
	FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkSent(ctx context.Context, eventID uint) error
}

type outboxRepoImpl struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepoImpl{db: db}
}

// Insert writes the event on the caller's transaction, so it only becomes
// visible to the relay once the business change commits.
func (r *outboxRepoImpl) Insert(ctx context.Context, tx *gorm.DB, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	return tx.WithContext(ctx).Create(&model.OutboxEvent{
		EventID: uuid.NewString(),
		Topic:   topic,
		Key:     key,
		Payload: data,
	}).Error
}

func (r *outboxRepoImpl) FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepoImpl) MarkSent(ctx context.Context, eventID uint) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", eventID).
		Update("sent_at", time.Now()).Error
}
