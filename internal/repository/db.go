package repository

import (
	"commerce-core/internal/model"

	"gorm.io/gorm"
)

// Models lists every table owned by this module, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Address{},
		&model.Order{},
		&model.OrderItem{},
		&model.WalletTopup{},
		&model.PaymentTransaction{},
		&model.WalletMutation{},
		&model.MembershipLevel{},
		&model.UserMembership{},
		&model.MarkupRule{},
		&model.PpobProduct{},
		&model.PpobTransaction{},
		&model.OutboxEvent{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
