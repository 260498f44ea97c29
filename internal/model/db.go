package model

import (
	"time"

	"gorm.io/datatypes"
)

type Currency string

const (
	CurrencyFiat Currency = "fiat"
	CurrencyCoin Currency = "coin"
)

// Column returns the users column that holds the balance for c.
func (c Currency) Column() string {
	if c == CurrencyCoin {
		return "coin_balance"
	}
	return "balance"
}

func (c Currency) Valid() bool {
	return c == CurrencyFiat || c == CurrencyCoin
}

type User struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:128;not null"`
	Email       string `gorm:"size:128;uniqueIndex;not null"`
	Phone       string `gorm:"size:32"`
	Balance     int64  `gorm:"not null;default:0"` // fiat
	CoinBalance int64  `gorm:"not null;default:0"` // alternate currency
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u *User) BalanceOf(c Currency) int64 {
	if c == CurrencyCoin {
		return u.CoinBalance
	}
	return u.Balance
}

type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Stock     int64  `gorm:"not null;default:0"`
	Price     int64  `gorm:"not null"`
	CoinPrice int64  `gorm:"not null;default:0"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"uniqueIndex:idx_cart_user_product;not null"`
	ProductID uint  `gorm:"uniqueIndex:idx_cart_user_product;not null"`
	Quantity  int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is owned by the profile service; this module only reads it.
type Address struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index;not null"`
	RecipientName string `gorm:"size:128"`
	Phone         string `gorm:"size:32"`
	Street        string `gorm:"size:255"`
	City          string `gorm:"size:128"`
	Province      string `gorm:"size:128"`
	PostalCode    string `gorm:"size:16"`
	IsPrimary     bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Deliverable reports whether a courier could ship to the address.
func (a *Address) Deliverable() bool {
	return a.RecipientName != "" && a.Phone != "" && a.Street != "" &&
		a.City != "" && a.Province != "" && a.PostalCode != ""
}

func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Street:        a.Street,
		City:          a.City,
		Province:      a.Province,
		PostalCode:    a.PostalCode,
	}
}

type WalletMutation struct {
	ID           uint     `gorm:"primaryKey"`
	UserID       uint     `gorm:"index;not null"`
	Currency     Currency `gorm:"size:8;not null"`
	Amount       int64    `gorm:"not null"` // signed
	BalanceAfter int64    `gorm:"not null"`
	Reason       string   `gorm:"size:32;not null"` // checkout, topup, ppob
	Reference    string   `gorm:"size:64;index"`
	CreatedAt    time.Time
}

type OutboxEvent struct {
	ID        uint           `gorm:"primaryKey"`
	EventID   string         `gorm:"size:64;uniqueIndex;not null"`
	Topic     string         `gorm:"size:64;index;not null"`
	Key       string         `gorm:"size:64"`
	Payload   datatypes.JSON `gorm:"not null"`
	SentAt    *time.Time     `gorm:"index"`
	CreatedAt time.Time
}
