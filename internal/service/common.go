package service

import (
	"context"
	"fmt"
	"strings"

	"commerce-core/internal/client"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderCancelled = "order.cancelled"
	TopicPaymentReview  = "payment.review"
	TopicTopupPaid      = "topup.paid"
	TopicPpobPurchased  = "ppob.purchased"
)

// newNumber returns a human-facing identifier such as ORD-3F9A1C0B7D2E4A61.
func newNumber(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s", prefix, id[:16])
}

// coinsFor converts a fiat amount into coins, rounding up so the coin
// price never undercuts the fiat one.
func coinsFor(fiat, rate int64) int64 {
	if rate <= 0 || fiat <= 0 {
		return 0
	}
	return decimal.NewFromInt(fiat).
		Div(decimal.NewFromInt(rate)).
		Ceil().
		IntPart()
}

// invoiceOpener is the gateway branch shared by checkout and wallet top-up:
// a pending PaymentTransaction plus the external invoice, on one tx.
type invoiceOpener struct {
	gateway  client.GatewayClient
	payments repository.PaymentRepository
}

func (o *invoiceOpener) open(ctx context.Context, tx *gorm.DB, source model.SourceType, sourceID uint, in *client.InvoiceRequest) (*model.PaymentTransaction, error) {
	payment := &model.PaymentTransaction{
		SourceType:        source,
		SourceReferenceID: sourceID,
		ExternalReference: newNumber("PAY"),
		Amount:            in.Amount,
		Status:            model.PaymentPending,
		RequestPayload:    model.NewAuditDocument("invoice_request", nil, nil),
		ResponsePayload:   model.NewAuditDocument("invoice_response", nil, nil),
		CallbackPayload:   model.NewAuditDocument("callback", nil, nil),
	}
	if err := o.payments.Create(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("store payment transaction: %w", err)
	}

	in.MerchantOrderID = payment.ExternalReference
	res, err := o.gateway.CreateInvoice(ctx, in)
	if err != nil {
		return nil, err
	}

	payment.GatewayReference = res.GatewayReference
	payment.PaymentURL = res.PaymentURL
	payment.RequestPayload = model.NewAuditDocument("invoice_request", res.RequestBody, res.Request)
	payment.ResponsePayload = model.NewAuditDocument("invoice_response", res.RawBody, res.Raw)
	if err := o.payments.SaveGatewayResponse(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("store gateway response: %w", err)
	}

	return payment, nil
}
