package testutil

import (
	"testing"

	"commerce-core/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func CreateUser(t *testing.T, db *gorm.DB, balance, coinBalance int64) *model.User {
	t.Helper()
	user := &model.User{
		Name:        "Budi Santoso",
		Email:       uuid.NewString() + "@example.com",
		Phone:       "081234567890",
		Balance:     balance,
		CoinBalance: coinBalance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateProduct(t *testing.T, db *gorm.DB, name string, price, stock int64) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:      name,
		Price:     price,
		CoinPrice: price / 1000,
		Stock:     stock,
		Active:    true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func CreateAddress(t *testing.T, db *gorm.DB, userID uint) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:        userID,
		RecipientName: "Budi Santoso",
		Phone:         "081234567890",
		Street:        "Jl. Merdeka 1",
		City:          "Bandung",
		Province:      "Jawa Barat",
		PostalCode:    "40111",
		IsPrimary:     true,
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func AddToCart(t *testing.T, db *gorm.DB, userID, productID uint, quantity int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}

func Reload[T any](t *testing.T, db *gorm.DB, id uint) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, id).Error)
	return &out
}
