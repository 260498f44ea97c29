package service

import (
	"context"
	"fmt"

	"commerce-core/internal/apperror"
	"commerce-core/internal/dto"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"gorm.io/gorm"
)

type CartService interface {
	AddItem(ctx context.Context, req *dto.AddCartItemRequest) (*dto.CartResponse, error)
}

type cartServiceImpl struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
}

func NewCartService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
) CartService {
	return &cartServiceImpl{
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
	}
}

// AddItem requires a deliverable address and enough stock for the whole
// resulting cart line. Stock is checked again at checkout under lock.
func (s *cartServiceImpl) AddItem(ctx context.Context, req *dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if req.UserID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if req.ProductID == 0 {
		return nil, apperror.Validation("product_id", "is required")
	}
	if req.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}

	var resp *dto.CartResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.FindByID(ctx, tx, req.UserID); err != nil {
			return err
		}
		if _, err := s.addressRepo.FindDeliverable(ctx, tx, req.UserID); err != nil {
			return err
		}

		product, err := s.productRepo.FindByID(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return apperror.Validation("product_id", "product is not available")
		}

		inCart, err := s.cartRepo.QuantityOf(ctx, tx, req.UserID, req.ProductID)
		if err != nil {
			return fmt.Errorf("get cart quantity: %w", err)
		}
		if inCart+req.Quantity > product.Stock {
			return &apperror.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   inCart + req.Quantity,
				Available:   product.Stock,
			}
		}

		if err := s.cartRepo.Add(ctx, tx, &model.CartItem{
			UserID:    req.UserID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}); err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}

		items, err := s.cartRepo.ListByUser(ctx, tx, req.UserID)
		if err != nil {
			return fmt.Errorf("get cart: %w", err)
		}

		resp = &dto.CartResponse{UserID: req.UserID, Items: make([]dto.CartItem, len(items))}
		for i, item := range items {
			resp.Items[i] = dto.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
