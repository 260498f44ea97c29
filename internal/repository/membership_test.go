package repository_test

import (
	"testing"
	"time"

	"commerce-core/internal/model"
	"commerce-core/internal/repository"
	"commerce-core/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership_ActiveLevel(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMembershipRepository()
	user := testutil.CreateUser(t, db, 0, 0)

	silver := &model.MembershipLevel{Code: "SILVER", Name: "Silver"}
	gold := &model.MembershipLevel{Code: "GOLD", Name: "Gold"}
	require.NoError(t, db.Create(silver).Error)
	require.NoError(t, db.Create(gold).Error)

	level, err := repo.ActiveLevel(t.Context(), db, user.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, level)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.UserMembership{UserID: user.ID, LevelID: silver.ID, Active: true}).Error)
	require.NoError(t, db.Create(&model.UserMembership{UserID: user.ID, LevelID: gold.ID, Active: true, ExpiresAt: &past}).Error)

	level, err = repo.ActiveLevel(t.Context(), db, user.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, "SILVER", level.Code)
}

func TestMembership_DefaultLevel(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMembershipRepository()

	level, err := repo.DefaultLevel(t.Context(), db)
	require.NoError(t, err)
	assert.Nil(t, level)

	require.NoError(t, db.Create(&model.MembershipLevel{Code: "BASIC", Name: "Basic", IsDefault: true}).Error)

	level, err = repo.DefaultLevel(t.Context(), db)
	require.NoError(t, err)
	assert.Equal(t, "BASIC", level.Code)
}

func TestMarkupRules_Lookup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMarkupRuleRepository()

	level := &model.MembershipLevel{Code: "BASIC", Name: "Basic"}
	require.NoError(t, db.Create(level).Error)
	require.NoError(t, db.Create(&model.MarkupRule{
		LevelID: level.ID, ProductType: model.ProductPrepaid, Scope: model.ScopeSpecific, ProductCode: "PLN25",
		Mode: model.MarkupFixed, Magnitude: decimal.NewFromInt(300),
	}).Error)
	require.NoError(t, db.Create(&model.MarkupRule{
		LevelID: level.ID, ProductType: model.ProductPrepaid, Scope: model.ScopeWildcard,
		Mode: model.MarkupPercentage, Magnitude: decimal.RequireFromString("2.5"), MinMarkup: 500,
	}).Error)

	rule, err := repo.FindSpecific(t.Context(), db, level.ID, model.ProductPrepaid, "PLN25")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.Magnitude.Equal(decimal.NewFromInt(300)))

	rule, err = repo.FindSpecific(t.Context(), db, level.ID, model.ProductPrepaid, "PULSA10")
	require.NoError(t, err)
	assert.Nil(t, rule)

	rule, err = repo.FindWildcard(t.Context(), db, level.ID, model.ProductPrepaid)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.Magnitude.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, int64(500), rule.MinMarkup)

	rule, err = repo.FindWildcard(t.Context(), db, level.ID, model.ProductPostpaid)
	require.NoError(t, err)
	assert.Nil(t, rule)
}
