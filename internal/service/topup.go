package service

import (
	"context"
	"fmt"
	"log/slog"

	"commerce-core/internal/apperror"
	"commerce-core/internal/client"
	"commerce-core/internal/dto"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"gorm.io/gorm"
)

type TopupService interface {
	Topup(ctx context.Context, req *dto.TopupRequest) (*dto.TopupResponse, error)
}

type topupServiceImpl struct {
	db        *gorm.DB
	log       *slog.Logger
	userRepo  repository.UserRepository
	topupRepo repository.TopupRepository
	opener    *invoiceOpener
}

func NewTopupService(
	db *gorm.DB,
	log *slog.Logger,
	gateway client.GatewayClient,
	userRepo repository.UserRepository,
	topupRepo repository.TopupRepository,
	paymentRepo repository.PaymentRepository,
) TopupService {
	return &topupServiceImpl{
		db:        db,
		log:       log,
		userRepo:  userRepo,
		topupRepo: topupRepo,
		opener:    &invoiceOpener{gateway: gateway, payments: paymentRepo},
	}
}

// Topup opens a gateway invoice for a wallet top-up. The balance is only
// credited once the gateway confirms the payment.
func (s *topupServiceImpl) Topup(ctx context.Context, req *dto.TopupRequest) (*dto.TopupResponse, error) {
	if req.UserID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount", "must be positive")
	}

	var resp *dto.TopupResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		topup := &model.WalletTopup{
			Number: newNumber("TOP"),
			UserID: user.ID,
			Amount: req.Amount,
			Status: model.TopupWaitingPayment,
		}
		if err := s.topupRepo.Create(ctx, tx, topup); err != nil {
			return fmt.Errorf("store topup: %w", err)
		}

		payment, err := s.opener.open(ctx, tx, model.SourceWalletTopup, topup.ID, &client.InvoiceRequest{
			Amount:         topup.Amount,
			ProductDetails: "Wallet top-up " + topup.Number,
			Customer: model.GatewayCustomer{
				Name:  user.Name,
				Email: user.Email,
				Phone: user.Phone,
			},
			Items: []model.GatewayItemDetail{
				{Name: "Wallet top-up", Price: topup.Amount, Quantity: 1},
			},
		})
		if err != nil {
			return err
		}

		resp = &dto.TopupResponse{
			TopupID:           topup.ID,
			TopupNumber:       topup.Number,
			Status:            string(topup.Status),
			Amount:            topup.Amount,
			PaymentURL:        payment.PaymentURL,
			ExternalReference: payment.ExternalReference,
		}
		return nil
	})

	if err != nil {
		s.log.WarnContext(ctx, "topup failed", "user_id", req.UserID, "error", err)
		return nil, err
	}

	s.log.InfoContext(ctx, "topup created", "topup_number", resp.TopupNumber, "amount", resp.Amount)

	return resp, nil
}
