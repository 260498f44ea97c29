package service

import (
	"testing"
	"time"

	"commerce-core/internal/model"
	"commerce-core/internal/repository"
	"commerce-core/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestComputeMarkup(t *testing.T) {
	tests := []struct {
		name      string
		rule      *model.MarkupRule
		base      int64
		wantRaw   int64
		wantFinal int64
	}{
		{
			name:      "no rule",
			base:      25000,
			wantRaw:   0,
			wantFinal: 0,
		},
		{
			name:      "percentage above floor",
			rule:      &model.MarkupRule{Mode: model.MarkupPercentage, Magnitude: decimal.NewFromInt(5), MinMarkup: 500},
			base:      25000,
			wantRaw:   1250,
			wantFinal: 1250,
		},
		{
			name:      "percentage below floor",
			rule:      &model.MarkupRule{Mode: model.MarkupPercentage, Magnitude: decimal.NewFromInt(1), MinMarkup: 500},
			base:      25000,
			wantRaw:   250,
			wantFinal: 500,
		},
		{
			name:      "percentage rounds half away from zero",
			rule:      &model.MarkupRule{Mode: model.MarkupPercentage, Magnitude: decimal.RequireFromString("0.5")},
			base:      1100,
			wantRaw:   6,
			wantFinal: 6,
		},
		{
			name:      "percentage rounds down below half",
			rule:      &model.MarkupRule{Mode: model.MarkupPercentage, Magnitude: decimal.RequireFromString("2.5")},
			base:      1010,
			wantRaw:   25,
			wantFinal: 25,
		},
		{
			name:      "fixed below floor",
			rule:      &model.MarkupRule{Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(100), MinMarkup: 500},
			base:      25000,
			wantRaw:   100,
			wantFinal: 500,
		},
		{
			name:      "fixed ignores base",
			rule:      &model.MarkupRule{Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(1500), MinMarkup: 500},
			base:      100,
			wantRaw:   1500,
			wantFinal: 1500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, final := ComputeMarkup(tt.rule, tt.base)
			assert.Equal(t, tt.wantRaw, raw)
			assert.Equal(t, tt.wantFinal, final)
		})
	}
}

func createLevel(t *testing.T, db *gorm.DB, code string, isDefault bool) *model.MembershipLevel {
	t.Helper()
	level := &model.MembershipLevel{Code: code, Name: code, IsDefault: isDefault}
	require.NoError(t, db.Create(level).Error)
	return level
}

func createRule(t *testing.T, db *gorm.DB, rule *model.MarkupRule) {
	t.Helper()
	require.NoError(t, db.Create(rule).Error)
}

func createPpobProduct(t *testing.T, db *gorm.DB, code string, productType model.ProductType, basePrice, adminFee int64) *model.PpobProduct {
	t.Helper()
	product := &model.PpobProduct{
		Code:      code,
		Name:      code,
		Type:      productType,
		BasePrice: basePrice,
		AdminFee:  adminFee,
		Active:    true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func subscribe(t *testing.T, db *gorm.DB, userID uint, level *model.MembershipLevel, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserMembership{
		UserID:    userID,
		LevelID:   level.ID,
		Active:    true,
		ExpiresAt: expiresAt,
	}).Error)
}

func newEngine() PricingEngine {
	return NewPricingEngine(repository.NewMembershipRepository(), repository.NewMarkupRuleRepository(), 1000)
}

func TestPricing_PrepaidPercentageScenario(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, 0, 0)
	level := createLevel(t, db, "BASIC", true)
	createRule(t, db, &model.MarkupRule{
		LevelID:     level.ID,
		ProductType: model.ProductPrepaid,
		Scope:       model.ScopeWildcard,
		Mode:        model.MarkupPercentage,
		Magnitude:   decimal.NewFromInt(5),
		MinMarkup:   500,
	})
	product := createPpobProduct(t, db, "PLN25", model.ProductPrepaid, 25000, 0)

	q, err := newEngine().Quote(t.Context(), db, user.ID, product, product.BasePrice)
	require.NoError(t, err)

	assert.Equal(t, int64(1250), q.Markup)
	assert.Equal(t, int64(0), q.AdminFee)
	assert.Equal(t, int64(26250), q.Total)
	assert.Equal(t, int64(27), q.CoinTotal)
	assert.Equal(t, "BASIC", q.Snapshot().LevelCode)
	assert.Equal(t, model.ScopeWildcard, q.Snapshot().RuleScope)
}

func TestPricing_SpecificRuleBeatsWildcard(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, 0, 0)
	level := createLevel(t, db, "BASIC", true)
	createRule(t, db, &model.MarkupRule{
		LevelID: level.ID, ProductType: model.ProductPrepaid, Scope: model.ScopeWildcard,
		Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(1000),
	})
	createRule(t, db, &model.MarkupRule{
		LevelID: level.ID, ProductType: model.ProductPrepaid, Scope: model.ScopeSpecific, ProductCode: "PULSA20",
		Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(300),
	})
	pulsa := createPpobProduct(t, db, "PULSA20", model.ProductPrepaid, 20000, 0)
	data := createPpobProduct(t, db, "DATA10", model.ProductPrepaid, 10000, 0)

	q, err := newEngine().Quote(t.Context(), db, user.ID, pulsa, pulsa.BasePrice)
	require.NoError(t, err)
	assert.Equal(t, int64(300), q.Markup)
	assert.Equal(t, model.ScopeSpecific, q.Rule.Scope)

	q, err = newEngine().Quote(t.Context(), db, user.ID, data, data.BasePrice)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.Markup)
	assert.Equal(t, model.ScopeWildcard, q.Rule.Scope)
}

func TestPricing_ActiveMembershipOverridesDefault(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, 0, 0)
	basic := createLevel(t, db, "BASIC", true)
	gold := createLevel(t, db, "GOLD", false)
	for _, lvl := range []*model.MembershipLevel{basic, gold} {
		magnitude := int64(1000)
		if lvl.Code == "GOLD" {
			magnitude = 200
		}
		createRule(t, db, &model.MarkupRule{
			LevelID: lvl.ID, ProductType: model.ProductPrepaid, Scope: model.ScopeWildcard,
			Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(magnitude),
		})
	}
	product := createPpobProduct(t, db, "PULSA20", model.ProductPrepaid, 20000, 0)

	future := time.Now().Add(24 * time.Hour)
	subscribe(t, db, user.ID, gold, &future)

	q, err := newEngine().Quote(t.Context(), db, user.ID, product, product.BasePrice)
	require.NoError(t, err)
	assert.Equal(t, "GOLD", q.Level.Code)
	assert.Equal(t, int64(200), q.Markup)

	expiredUser := testutil.CreateUser(t, db, 0, 0)
	past := time.Now().Add(-time.Hour)
	subscribe(t, db, expiredUser.ID, gold, &past)

	q, err = newEngine().Quote(t.Context(), db, expiredUser.ID, product, product.BasePrice)
	require.NoError(t, err)
	assert.Equal(t, "BASIC", q.Level.Code)
	assert.Equal(t, int64(1000), q.Markup)
}

func TestPricing_PostpaidAddsAdminFee(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, 0, 0)
	level := createLevel(t, db, "BASIC", true)
	createRule(t, db, &model.MarkupRule{
		LevelID: level.ID, ProductType: model.ProductPostpaid, Scope: model.ScopeWildcard,
		Mode: model.MarkupPercentage, Magnitude: decimal.NewFromInt(2),
	})
	product := createPpobProduct(t, db, "PLNPASCA", model.ProductPostpaid, 0, 2500)

	q, err := newEngine().Quote(t.Context(), db, user.ID, product, 150000)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), q.Markup)
	assert.Equal(t, int64(2500), q.AdminFee)
	assert.Equal(t, int64(155500), q.Total)
}

func TestPricing_NoLevelMeansNoMarkup(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, 0, 0)
	product := createPpobProduct(t, db, "PULSA20", model.ProductPrepaid, 20000, 0)

	q, err := newEngine().Quote(t.Context(), db, user.ID, product, product.BasePrice)
	require.NoError(t, err)

	assert.Nil(t, q.Level)
	assert.Nil(t, q.Rule)
	assert.Zero(t, q.Markup)
	assert.Equal(t, int64(20000), q.Total)
	assert.Empty(t, q.Snapshot().LevelCode)
}
