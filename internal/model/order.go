package model

import (
	"bytes"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderWaitingPayment OrderStatus = "waiting_payment"
	OrderPaid           OrderStatus = "paid"
	OrderCancelled      OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentWallet  PaymentMethod = "wallet"
	PaymentGateway PaymentMethod = "gateway"
)

type AddressSnapshot struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Street        string `json:"street"`
	City          string `json:"city"`
	Province      string `json:"province"`
	PostalCode    string `json:"postal_code"`
}

type Order struct {
	ID               uint          `gorm:"primaryKey"`
	Number           string        `gorm:"size:64;uniqueIndex;not null"`
	UserID           uint          `gorm:"index;not null"`
	Subtotal         int64         `gorm:"not null"`
	ShippingCost     int64         `gorm:"not null"`
	Total            int64         `gorm:"not null"`
	CoinSubtotal     int64         `gorm:"not null"`
	CoinShippingCost int64         `gorm:"not null"`
	CoinTotal        int64         `gorm:"not null"`
	Status           OrderStatus   `gorm:"size:32;index;not null"`
	PaymentMethod    PaymentMethod `gorm:"size:16;not null"`
	ShippingAddress  datatypes.JSONType[AddressSnapshot]
	PaidAt           *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is a snapshot taken at purchase time; later product edits do
// not reach it.
type OrderItem struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       uint   `gorm:"index;not null"`
	ProductID     uint   `gorm:"index;not null"`
	ProductName   string `gorm:"size:255;not null"`
	UnitPrice     int64  `gorm:"not null"`
	CoinUnitPrice int64  `gorm:"not null"`
	Quantity      int64  `gorm:"not null"`
	LineTotal     int64  `gorm:"not null"`
	CoinLineTotal int64  `gorm:"not null"`
	CreatedAt     time.Time
}

type TopupStatus string

const (
	TopupWaitingPayment TopupStatus = "waiting_payment"
	TopupPaid           TopupStatus = "paid"
	TopupFailed         TopupStatus = "failed"
)

type WalletTopup struct {
	ID        uint        `gorm:"primaryKey"`
	Number    string      `gorm:"size:64;uniqueIndex;not null"`
	UserID    uint        `gorm:"index;not null"`
	Amount    int64       `gorm:"not null"`
	Status    TopupStatus `gorm:"size:32;index;not null"`
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SourceType string

const (
	SourceOrder       SourceType = "order"
	SourceWalletTopup SourceType = "wallet_topup"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	// paid by the gateway after the order had already been cancelled
	PaymentReview PaymentStatus = "review"
)

// AuditDocument keeps an external payload next to what kind of exchange
// produced it. Raw holds the exact bytes; Body is the decoded view.
type AuditDocument struct {
	Kind       string         `json:"kind"`
	CapturedAt time.Time      `json:"captured_at"`
	Raw        string         `json:"raw,omitempty"`
	Body       map[string]any `json:"body"`
}

func NewAuditDocument(kind string, raw []byte, body map[string]any) datatypes.JSONType[AuditDocument] {
	return datatypes.NewJSONType(AuditDocument{
		Kind:       kind,
		CapturedAt: time.Now().UTC(),
		Raw:        string(raw),
		Body:       body,
	})
}

// DecodeDocument decodes a JSON object keeping numbers as json.Number, so
// large amounts survive the round trip. It returns nil for anything else.
func DecodeDocument(b []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	return doc
}

type PaymentTransaction struct {
	ID                uint          `gorm:"primaryKey"`
	SourceType        SourceType    `gorm:"size:32;index:idx_payment_source;not null"`
	SourceReferenceID uint          `gorm:"index:idx_payment_source;not null"`
	ExternalReference string        `gorm:"size:64;uniqueIndex;not null"`
	GatewayReference  string        `gorm:"size:64"`
	Amount            int64         `gorm:"not null"`
	Status            PaymentStatus `gorm:"size:16;index;not null"`
	PaymentURL        string        `gorm:"size:512"`
	RequestPayload    datatypes.JSONType[AuditDocument]
	ResponsePayload   datatypes.JSONType[AuditDocument]
	CallbackPayload   datatypes.JSONType[AuditDocument]
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
