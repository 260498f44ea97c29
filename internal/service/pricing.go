package service

import (
	"context"
	"fmt"
	"time"

	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleKey is one step of the markup rule lookup chain.
type RuleKey interface {
	scope() model.RuleScope
}

// SpecificRule targets a single product code.
type SpecificRule struct {
	ProductType model.ProductType
	ProductCode string
}

// WildcardRule covers every product of a type.
type WildcardRule struct {
	ProductType model.ProductType
}

func (SpecificRule) scope() model.RuleScope { return model.ScopeSpecific }
func (WildcardRule) scope() model.RuleScope { return model.ScopeWildcard }

// Quote is the priced view of one PPOB product for one user.
type Quote struct {
	Product    *model.PpobProduct
	Level      *model.MembershipLevel
	Rule       *model.MarkupRule
	BaseAmount int64
	RawMarkup  int64
	Markup     int64
	AdminFee   int64
	Total      int64
	CoinTotal  int64
}

// Snapshot is what gets frozen on the purchase record.
func (q *Quote) Snapshot() model.MembershipSnapshot {
	snap := model.MembershipSnapshot{
		RawMarkup:   q.RawMarkup,
		FinalMarkup: q.Markup,
	}
	if q.Level != nil {
		snap.LevelCode = q.Level.Code
	}
	if q.Rule != nil {
		snap.RuleScope = q.Rule.Scope
		snap.RuleMode = q.Rule.Mode
		snap.Magnitude = q.Rule.Magnitude.String()
		snap.MinMarkup = q.Rule.MinMarkup
	}
	return snap
}

type PricingEngine interface {
	Quote(ctx context.Context, tx *gorm.DB, userID uint, product *model.PpobProduct, baseAmount int64) (*Quote, error)
}

type pricingEngineImpl struct {
	memberships repository.MembershipRepository
	rules       repository.MarkupRuleRepository
	coinRate    int64
	now         func() time.Time
}

func NewPricingEngine(memberships repository.MembershipRepository, rules repository.MarkupRuleRepository, coinRate int64) PricingEngine {
	return &pricingEngineImpl{
		memberships: memberships,
		rules:       rules,
		coinRate:    coinRate,
		now:         time.Now,
	}
}

func (e *pricingEngineImpl) Quote(ctx context.Context, tx *gorm.DB, userID uint, product *model.PpobProduct, baseAmount int64) (*Quote, error) {
	level, err := e.resolveLevel(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Product:    product,
		Level:      level,
		BaseAmount: baseAmount,
	}
	if product.Type != model.ProductPrepaid {
		q.AdminFee = product.AdminFee
	}

	if level != nil {
		chain := []RuleKey{
			SpecificRule{ProductType: product.Type, ProductCode: product.Code},
			WildcardRule{ProductType: product.Type},
		}
		q.Rule, err = e.resolveRule(ctx, tx, level.ID, chain)
		if err != nil {
			return nil, err
		}
	}

	q.RawMarkup, q.Markup = ComputeMarkup(q.Rule, baseAmount)
	q.Total = baseAmount + q.Markup + q.AdminFee
	q.CoinTotal = coinsFor(q.Total, e.coinRate)

	return q, nil
}

func (e *pricingEngineImpl) resolveLevel(ctx context.Context, tx *gorm.DB, userID uint) (*model.MembershipLevel, error) {
	level, err := e.memberships.ActiveLevel(ctx, tx, userID, e.now())
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if level != nil {
		return level, nil
	}

	level, err = e.memberships.DefaultLevel(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("resolve default membership: %w", err)
	}
	return level, nil
}

// resolveRule walks the chain and returns the first rule found, or nil.
func (e *pricingEngineImpl) resolveRule(ctx context.Context, tx *gorm.DB, levelID uint, chain []RuleKey) (*model.MarkupRule, error) {
	for _, key := range chain {
		var (
			rule *model.MarkupRule
			err  error
		)
		switch k := key.(type) {
		case SpecificRule:
			rule, err = e.rules.FindSpecific(ctx, tx, levelID, k.ProductType, k.ProductCode)
		case WildcardRule:
			rule, err = e.rules.FindWildcard(ctx, tx, levelID, k.ProductType)
		}
		if err != nil {
			return nil, fmt.Errorf("find %s markup rule: %w", key.scope(), err)
		}
		if rule != nil {
			return rule, nil
		}
	}
	return nil, nil
}

// ComputeMarkup returns the markup a rule yields on base before and after
// the floor is applied. A nil rule means no markup.
func ComputeMarkup(rule *model.MarkupRule, base int64) (raw, final int64) {
	if rule == nil {
		return 0, 0
	}

	switch rule.Mode {
	case model.MarkupPercentage:
		raw = decimal.NewFromInt(base).
			Mul(rule.Magnitude).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	default:
		raw = rule.Magnitude.Round(0).IntPart()
	}

	final = raw
	if final < rule.MinMarkup {
		final = rule.MinMarkup
	}
	return raw, final
}
