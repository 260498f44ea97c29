package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductType string

const (
	ProductPrepaid  ProductType = "prepaid"
	ProductPostpaid ProductType = "postpaid"
)

func (t ProductType) Valid() bool {
	return t == ProductPrepaid || t == ProductPostpaid
}

type MembershipLevel struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:32;uniqueIndex;not null"`
	Name      string `gorm:"size:64;not null"`
	IsDefault bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserMembership struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index;not null"`
	LevelID   uint `gorm:"not null"`
	Active    bool `gorm:"not null;default:true"`
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Level MembershipLevel `gorm:"foreignKey:LevelID"`
}

type MarkupMode string

const (
	MarkupFixed      MarkupMode = "fixed"
	MarkupPercentage MarkupMode = "percentage"
)

type RuleScope string

const (
	ScopeSpecific RuleScope = "specific"
	ScopeWildcard RuleScope = "wildcard"
)

type MarkupRule struct {
	ID          uint            `gorm:"primaryKey"`
	LevelID     uint            `gorm:"uniqueIndex:idx_markup_rule;not null"`
	ProductType ProductType     `gorm:"size:16;uniqueIndex:idx_markup_rule;not null"`
	Scope       RuleScope       `gorm:"size:16;uniqueIndex:idx_markup_rule;not null"`
	ProductCode string          `gorm:"size:64;uniqueIndex:idx_markup_rule"` // empty for wildcard
	Mode        MarkupMode      `gorm:"size:16;not null"`
	Magnitude   decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	MinMarkup   int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PpobProduct is the supplier catalog entry for a digital product or bill.
type PpobProduct struct {
	ID        uint        `gorm:"primaryKey"`
	Code      string      `gorm:"size:64;uniqueIndex;not null"`
	Name      string      `gorm:"size:255;not null"`
	Type      ProductType `gorm:"size:16;not null"`
	BasePrice int64       `gorm:"not null;default:0"` // prepaid only
	AdminFee  int64       `gorm:"not null;default:0"` // postpaid only
	Active    bool        `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MembershipSnapshot struct {
	LevelCode   string     `json:"level_code"`
	RuleScope   RuleScope  `json:"rule_scope,omitempty"`
	RuleMode    MarkupMode `json:"rule_mode,omitempty"`
	Magnitude   string     `json:"magnitude,omitempty"`
	MinMarkup   int64      `json:"min_markup,omitempty"`
	RawMarkup   int64      `json:"raw_markup"`
	FinalMarkup int64      `json:"final_markup"`
}

type PpobTransaction struct {
	ID             uint        `gorm:"primaryKey"`
	Number         string      `gorm:"size:64;uniqueIndex;not null"`
	UserID         uint        `gorm:"index;not null"`
	ProductCode    string      `gorm:"size:64;index;not null"`
	ProductType    ProductType `gorm:"size:16;not null"`
	CustomerNumber string      `gorm:"size:64;not null"`
	BaseAmount     int64       `gorm:"not null"`
	Markup         int64       `gorm:"not null"`
	AdminFee       int64       `gorm:"not null"`
	Total          int64       `gorm:"not null"`
	CoinTotal      int64       `gorm:"not null"`
	PaidWith       Currency    `gorm:"size:8;not null"`
	Status         string      `gorm:"size:16;not null"`
	Membership     datatypes.JSONType[MembershipSnapshot]
	CreatedAt      time.Time
}
