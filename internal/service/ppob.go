package service

import (
	"context"
	"log/slog"

	"commerce-core/internal/apperror"
	"commerce-core/internal/dto"
	"commerce-core/internal/metrics"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ppobStatusSuccess = "success"

type PpobService interface {
	Preview(ctx context.Context, req *dto.PpobPricingRequest) (*dto.PpobQuoteResponse, error)
	Purchase(ctx context.Context, req *dto.PpobPurchaseRequest) (*dto.PpobTransactionResponse, error)
}

type ppobServiceImpl struct {
	db         *gorm.DB
	log        *slog.Logger
	metrics    *metrics.Metrics
	pricing    PricingEngine
	ledger     repository.WalletLedger
	userRepo   repository.UserRepository
	ppobRepo   repository.PpobRepository
	outboxRepo repository.OutboxRepository
}

func NewPpobService(
	db *gorm.DB,
	log *slog.Logger,
	m *metrics.Metrics,
	pricing PricingEngine,
	ledger repository.WalletLedger,
	userRepo repository.UserRepository,
	ppobRepo repository.PpobRepository,
	outboxRepo repository.OutboxRepository,
) PpobService {
	return &ppobServiceImpl{
		db:         db,
		log:        log,
		metrics:    m,
		pricing:    pricing,
		ledger:     ledger,
		userRepo:   userRepo,
		ppobRepo:   ppobRepo,
		outboxRepo: outboxRepo,
	}
}

func (s *ppobServiceImpl) Preview(ctx context.Context, req *dto.PpobPricingRequest) (*dto.PpobQuoteResponse, error) {
	if req.UserID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}

	db := s.db.WithContext(ctx)
	if _, err := s.userRepo.FindByID(ctx, db, req.UserID); err != nil {
		return nil, err
	}

	quote, err := s.quote(ctx, db, req.UserID, req.ProductCode, req.BaseAmount)
	if err != nil {
		return nil, err
	}

	return toQuoteResponse(quote), nil
}

// Purchase prices the product and debits the chosen balance on one
// transaction, so the charged total is exactly the quoted one.
func (s *ppobServiceImpl) Purchase(ctx context.Context, req *dto.PpobPurchaseRequest) (*dto.PpobTransactionResponse, error) {
	if req.UserID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if req.CustomerNumber == "" {
		return nil, apperror.Validation("customer_number", "is required")
	}
	currency := model.Currency(req.PayWith)
	if currency == "" {
		currency = model.CurrencyFiat
	}
	if !currency.Valid() {
		return nil, apperror.Validation("pay_with", "must be fiat or coin")
	}

	var (
		resp        *dto.PpobTransactionResponse
		productType = "unknown"
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.LockUser(ctx, tx, req.UserID); err != nil {
			return err
		}

		quote, err := s.quote(ctx, tx, req.UserID, req.ProductCode, req.BaseAmount)
		if err != nil {
			return err
		}
		productType = string(quote.Product.Type)

		trx := &model.PpobTransaction{
			Number:         newNumber("PPOB"),
			UserID:         req.UserID,
			ProductCode:    quote.Product.Code,
			ProductType:    quote.Product.Type,
			CustomerNumber: req.CustomerNumber,
			BaseAmount:     quote.BaseAmount,
			Markup:         quote.Markup,
			AdminFee:       quote.AdminFee,
			Total:          quote.Total,
			CoinTotal:      quote.CoinTotal,
			PaidWith:       currency,
			Status:         ppobStatusSuccess,
			Membership:     datatypes.NewJSONType(quote.Snapshot()),
		}

		charge := quote.Total
		if currency == model.CurrencyCoin {
			charge = quote.CoinTotal
		}
		balance, err := s.ledger.Debit(ctx, tx, req.UserID, currency, charge, "ppob", trx.Number)
		if err != nil {
			return err
		}

		if err := s.ppobRepo.CreateTransaction(ctx, tx, trx); err != nil {
			return err
		}

		if err := s.outboxRepo.Insert(ctx, tx, TopicPpobPurchased, trx.Number, map[string]any{
			"number":          trx.Number,
			"user_id":         trx.UserID,
			"product_code":    trx.ProductCode,
			"customer_number": trx.CustomerNumber,
			"total":           trx.Total,
			"paid_with":       trx.PaidWith,
		}); err != nil {
			return err
		}

		resp = &dto.PpobTransactionResponse{
			TransactionID:  trx.ID,
			Number:         trx.Number,
			Status:         trx.Status,
			CustomerNumber: trx.CustomerNumber,
			PaidWith:       string(trx.PaidWith),
			Quote:          *toQuoteResponse(quote),
			BalanceAfter:   balance,
		}
		return nil
	})

	if err != nil {
		s.metrics.PpobPurchases.WithLabelValues(productType, failureLabel(err)).Inc()
		s.log.WarnContext(ctx, "ppob purchase failed",
			"user_id", req.UserID,
			"product_code", req.ProductCode,
			"error", err,
		)
		return nil, err
	}

	s.metrics.PpobPurchases.WithLabelValues(productType, "ok").Inc()
	s.log.InfoContext(ctx, "ppob purchased",
		"number", resp.Number,
		"product_code", req.ProductCode,
		"total", resp.Quote.Total,
		"paid_with", resp.PaidWith,
	)

	return resp, nil
}

func (s *ppobServiceImpl) quote(ctx context.Context, tx *gorm.DB, userID uint, code string, billAmount int64) (*Quote, error) {
	if code == "" {
		return nil, apperror.Validation("product_code", "is required")
	}

	product, err := s.ppobRepo.FindProduct(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	base := product.BasePrice
	if product.Type == model.ProductPostpaid {
		if billAmount <= 0 {
			return nil, apperror.Validation("base_amount", "is required for postpaid products")
		}
		base = billAmount
	}

	return s.pricing.Quote(ctx, tx, userID, product, base)
}

func toQuoteResponse(q *Quote) *dto.PpobQuoteResponse {
	resp := &dto.PpobQuoteResponse{
		ProductCode: q.Product.Code,
		ProductType: string(q.Product.Type),
		BaseAmount:  q.BaseAmount,
		Markup:      q.Markup,
		AdminFee:    q.AdminFee,
		Total:       q.Total,
		CoinTotal:   q.CoinTotal,
	}
	if q.Level != nil {
		resp.LevelCode = q.Level.Code
	}
	if q.Rule != nil {
		resp.RuleScope = string(q.Rule.Scope)
	}
	return resp
}
