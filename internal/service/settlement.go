package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"commerce-core/internal/apperror"
	"commerce-core/internal/client"
	"commerce-core/internal/config"
	"commerce-core/internal/dto"
	"commerce-core/internal/metrics"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutcomePaid             = "paid"
	OutcomeCancelled        = "cancelled"
	OutcomeFailed           = "failed"
	OutcomeNeedsReview      = "needs_review"
	OutcomeIgnored          = "ignored"
	OutcomeAlreadyProcessed = "already_processed"
)

const (
	resultCodeSuccess = "00"
	resultCodeFailed  = "01"
	resultCodeExpired = "02"

	unknownResultIgnore = "ignore"
)

type callbackResult int

const (
	resultSuccess callbackResult = iota
	resultFailure
	resultUnknown
)

type SettlementService interface {
	HandleCallback(ctx context.Context, cb *model.GatewayCallback, raw *model.RawCallback) (*dto.CallbackResponse, error)
}

type settlementServiceImpl struct {
	db          *gorm.DB
	cfg         *config.Config
	log         *slog.Logger
	metrics     *metrics.Metrics
	gateway     client.GatewayClient
	ledger      repository.WalletLedger
	inventory   repository.InventoryGuard
	orderRepo   repository.OrderRepository
	topupRepo   repository.TopupRepository
	paymentRepo repository.PaymentRepository
	outboxRepo  repository.OutboxRepository
}

func NewSettlementService(
	db *gorm.DB,
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	gateway client.GatewayClient,
	ledger repository.WalletLedger,
	inventory repository.InventoryGuard,
	orderRepo repository.OrderRepository,
	topupRepo repository.TopupRepository,
	paymentRepo repository.PaymentRepository,
	outboxRepo repository.OutboxRepository,
) SettlementService {
	return &settlementServiceImpl{
		db:          db,
		cfg:         cfg,
		log:         log,
		metrics:     m,
		gateway:     gateway,
		ledger:      ledger,
		inventory:   inventory,
		orderRepo:   orderRepo,
		topupRepo:   topupRepo,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
	}
}

// HandleCallback applies one gateway notification. Every delivery runs on
// its own transaction and replays of an already settled payment are
// acknowledged without touching state again.
func (s *settlementServiceImpl) HandleCallback(ctx context.Context, cb *model.GatewayCallback, raw *model.RawCallback) (*dto.CallbackResponse, error) {
	if cb.MerchantOrderID == "" {
		return nil, apperror.Validation("merchantOrderId", "is required")
	}
	if cb.ResultCode == "" {
		return nil, apperror.Validation("resultCode", "is required")
	}
	if s.cfg.Gateway.SecretKey != "" && !s.gateway.VerifyCallback(cb) {
		s.log.WarnContext(ctx, "callback signature mismatch", "external_reference", cb.MerchantOrderID)
		return nil, apperror.Validation("signature", "does not match")
	}

	result := classifyResult(cb.ResultCode)
	if result == resultUnknown && s.cfg.Gateway.UnknownResultPolicy != unknownResultIgnore {
		result = resultFailure
	}

	if raw == nil {
		raw = &model.RawCallback{}
	}
	if raw.Fields == nil {
		raw.Fields = cb.AsMap()
	}
	callbackDoc := model.NewAuditDocument("callback", raw.Body, raw.Fields)

	resp := &dto.CallbackResponse{ExternalReference: cb.MerchantOrderID}
	var source model.SourceType

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.LockByExternalReference(ctx, tx, cb.MerchantOrderID)
		if err != nil {
			return err
		}
		source = payment.SourceType

		if err := checkAmount(cb.Amount, payment.Amount); err != nil {
			return err
		}

		if result == resultUnknown {
			// a settled payment keeps the callback that settled it
			if payment.Status != model.PaymentPending {
				return apperror.ErrAlreadyProcessed
			}
			if err := s.paymentRepo.SaveCallback(ctx, tx, payment.ID, callbackDoc); err != nil {
				return fmt.Errorf("store callback: %w", err)
			}
			resp.Outcome = OutcomeIgnored
			return nil
		}

		switch payment.SourceType {
		case model.SourceOrder:
			resp.Outcome, err = s.settleOrder(ctx, tx, payment, result, callbackDoc)
		case model.SourceWalletTopup:
			resp.Outcome, err = s.settleTopup(ctx, tx, payment, result, callbackDoc)
		default:
			err = fmt.Errorf("payment %s has unknown source type %q", payment.ExternalReference, payment.SourceType)
		}
		return err
	})

	if errors.Is(err, apperror.ErrAlreadyProcessed) {
		resp.Outcome = OutcomeAlreadyProcessed
		err = nil
	}
	if err != nil {
		s.metrics.Settlements.WithLabelValues(string(source), "error").Inc()
		s.log.WarnContext(ctx, "callback rejected",
			"external_reference", cb.MerchantOrderID,
			"result_code", cb.ResultCode,
			"error", err,
		)
		return nil, err
	}

	s.metrics.Settlements.WithLabelValues(string(source), resp.Outcome).Inc()
	s.log.InfoContext(ctx, "callback processed",
		"external_reference", cb.MerchantOrderID,
		"gateway_reference", cb.Reference,
		"result_code", cb.ResultCode,
		"outcome", resp.Outcome,
	)

	return resp, nil
}

func (s *settlementServiceImpl) settleOrder(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction, result callbackResult, callbackDoc datatypes.JSONType[model.AuditDocument]) (string, error) {
	order, err := s.orderRepo.LockByID(ctx, tx, payment.SourceReferenceID)
	if err != nil {
		return "", err
	}

	if order.Status == model.OrderPaid {
		return "", apperror.ErrAlreadyProcessed
	}

	if result == resultSuccess {
		if order.Status == model.OrderCancelled {
			// stock went back on cancellation, so the paid order stays
			// cancelled and the money is left for manual handling
			if payment.Status == model.PaymentReview {
				return "", apperror.ErrAlreadyProcessed
			}
			if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentReview, callbackDoc); err != nil {
				return "", fmt.Errorf("flag payment for review: %w", err)
			}
			if err := s.outboxRepo.Insert(ctx, tx, TopicPaymentReview, payment.ExternalReference, paymentEvent(payment, order.Number)); err != nil {
				return "", err
			}
			s.log.WarnContext(ctx, "payment received for cancelled order",
				"order_number", order.Number,
				"external_reference", payment.ExternalReference,
			)
			return OutcomeNeedsReview, nil
		}

		if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentPaid, callbackDoc); err != nil {
			return "", fmt.Errorf("mark payment paid: %w", err)
		}
		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID); err != nil {
			return "", err
		}
		order.Status = model.OrderPaid
		if err := s.outboxRepo.Insert(ctx, tx, TopicOrderPaid, order.Number, orderEvent(order)); err != nil {
			return "", err
		}
		return OutcomePaid, nil
	}

	if order.Status == model.OrderCancelled {
		return "", apperror.ErrAlreadyProcessed
	}

	items, err := s.orderRepo.GetOrderItems(ctx, tx, order.ID)
	if err != nil {
		return "", fmt.Errorf("get order items: %w", err)
	}
	for _, item := range items {
		if err := s.inventory.Restock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return "", err
		}
	}

	if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentFailed, callbackDoc); err != nil {
		return "", fmt.Errorf("mark payment failed: %w", err)
	}
	if err := s.orderRepo.MarkCancelled(ctx, tx, order.ID); err != nil {
		return "", err
	}
	order.Status = model.OrderCancelled
	if err := s.outboxRepo.Insert(ctx, tx, TopicOrderCancelled, order.Number, orderEvent(order)); err != nil {
		return "", err
	}

	return OutcomeCancelled, nil
}

func (s *settlementServiceImpl) settleTopup(ctx context.Context, tx *gorm.DB, payment *model.PaymentTransaction, result callbackResult, callbackDoc datatypes.JSONType[model.AuditDocument]) (string, error) {
	topup, err := s.topupRepo.LockByID(ctx, tx, payment.SourceReferenceID)
	if err != nil {
		return "", err
	}

	if topup.Status == model.TopupPaid {
		return "", apperror.ErrAlreadyProcessed
	}

	if result == resultSuccess {
		if topup.Status == model.TopupFailed {
			if payment.Status == model.PaymentReview {
				return "", apperror.ErrAlreadyProcessed
			}
			if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentReview, callbackDoc); err != nil {
				return "", fmt.Errorf("flag payment for review: %w", err)
			}
			if err := s.outboxRepo.Insert(ctx, tx, TopicPaymentReview, payment.ExternalReference, paymentEvent(payment, topup.Number)); err != nil {
				return "", err
			}
			return OutcomeNeedsReview, nil
		}

		if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentPaid, callbackDoc); err != nil {
			return "", fmt.Errorf("mark payment paid: %w", err)
		}
		if err := s.topupRepo.MarkPaid(ctx, tx, topup.ID); err != nil {
			return "", err
		}
		balance, err := s.ledger.Credit(ctx, tx, topup.UserID, model.CurrencyFiat, topup.Amount, "topup", topup.Number)
		if err != nil {
			return "", err
		}
		if err := s.outboxRepo.Insert(ctx, tx, TopicTopupPaid, topup.Number, map[string]any{
			"topup_number":  topup.Number,
			"user_id":       topup.UserID,
			"amount":        topup.Amount,
			"balance_after": balance,
		}); err != nil {
			return "", err
		}
		return OutcomePaid, nil
	}

	if topup.Status == model.TopupFailed {
		return "", apperror.ErrAlreadyProcessed
	}

	if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, model.PaymentFailed, callbackDoc); err != nil {
		return "", fmt.Errorf("mark payment failed: %w", err)
	}
	if err := s.topupRepo.MarkFailed(ctx, tx, topup.ID); err != nil {
		return "", err
	}

	return OutcomeFailed, nil
}

func classifyResult(code string) callbackResult {
	switch code {
	case resultCodeSuccess:
		return resultSuccess
	case resultCodeFailed, resultCodeExpired:
		return resultFailure
	default:
		return resultUnknown
	}
}

// checkAmount compares the notified amount with what was invoiced. Some
// gateways send "212000.00", so the value goes through decimal.
func checkAmount(notified string, expected int64) error {
	if notified == "" {
		return nil
	}
	amount, err := decimal.NewFromString(notified)
	if err != nil {
		return apperror.Validation("amount", "is not a number")
	}
	if !amount.Equal(decimal.NewFromInt(expected)) {
		return apperror.Validation("amount", fmt.Sprintf("expected %d, got %s", expected, notified))
	}
	return nil
}

func paymentEvent(payment *model.PaymentTransaction, sourceNumber string) map[string]any {
	return map[string]any{
		"external_reference": payment.ExternalReference,
		"gateway_reference":  payment.GatewayReference,
		"source_type":        payment.SourceType,
		"source_number":      sourceNumber,
		"amount":             payment.Amount,
	}
}
