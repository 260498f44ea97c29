package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"commerce-core/internal/apperror"
	"commerce-core/internal/client"
	"commerce-core/internal/config"
	"commerce-core/internal/dto"
	"commerce-core/internal/metrics"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	GetOrder(ctx context.Context, userID uint, number string) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	cfg         *config.Config
	log         *slog.Logger
	metrics     *metrics.Metrics
	ledger      repository.WalletLedger
	inventory   repository.InventoryGuard
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	orderRepo   repository.OrderRepository
	outboxRepo  repository.OutboxRepository
	opener      *invoiceOpener
}

func NewCheckoutService(
	db *gorm.DB,
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	gateway client.GatewayClient,
	ledger repository.WalletLedger,
	inventory repository.InventoryGuard,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	outboxRepo repository.OutboxRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		cfg:         cfg,
		log:         log,
		metrics:     m,
		ledger:      ledger,
		inventory:   inventory,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		opener:      &invoiceOpener{gateway: gateway, payments: paymentRepo},
	}
}

type cartLine struct {
	product  *model.Product
	quantity int64
}

// Checkout turns the user's cart into an order on a single transaction:
// user and product rows are locked, stock is re-checked and decremented,
// and the order is either paid from the wallet or handed to the gateway.
// Any failure rolls back all of it.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	method := model.PaymentMethod(req.PaymentMethod)
	if err := validateCheckout(req); err != nil {
		s.metrics.Checkouts.WithLabelValues(string(method), "invalid").Inc()
		return nil, err
	}

	var resp *dto.CheckoutResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.ledger.LockUser(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		cartItems, err := s.cartRepo.ListByUser(ctx, tx, user.ID)
		if err != nil {
			return fmt.Errorf("get cart: %w", err)
		}
		if len(cartItems) == 0 {
			return apperror.Validation("cart", "cart is empty")
		}

		address, err := s.addressRepo.FindDeliverable(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		lines, err := s.lockLines(ctx, tx, cartItems)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if line.quantity > line.product.Stock {
				return &apperror.InsufficientStockError{
					ProductID:   line.product.ID,
					ProductName: line.product.Name,
					Requested:   line.quantity,
					Available:   line.product.Stock,
				}
			}
		}

		order, items := s.buildOrder(user, address, method, req.ShippingCost, lines)
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}

		for _, line := range lines {
			if err := s.inventory.Decrement(ctx, tx, line.product, line.quantity); err != nil {
				return err
			}
		}

		resp = toCheckoutResponse(order, items)

		switch method {
		case model.PaymentWallet:
			// a free order has nothing to debit
			balance := user.Balance
			if order.Total > 0 {
				balance, err = s.ledger.Debit(ctx, tx, user.ID, model.CurrencyFiat, order.Total, "checkout", order.Number)
				if err != nil {
					return err
				}
			}
			resp.BalanceAfter = &balance

			if err := s.outboxRepo.Insert(ctx, tx, TopicOrderPaid, order.Number, orderEvent(order)); err != nil {
				return err
			}

		case model.PaymentGateway:
			payment, err := s.opener.open(ctx, tx, model.SourceOrder, order.ID, &client.InvoiceRequest{
				Amount:         order.Total,
				ProductDetails: "Order " + order.Number,
				Customer: model.GatewayCustomer{
					Name:  user.Name,
					Email: user.Email,
					Phone: user.Phone,
				},
				Items: invoiceItems(items, order.ShippingCost),
			})
			if err != nil {
				return err
			}
			resp.PaymentURL = payment.PaymentURL
			resp.ExternalReference = payment.ExternalReference

			if err := s.outboxRepo.Insert(ctx, tx, TopicOrderCreated, order.Number, orderEvent(order)); err != nil {
				return err
			}
		}

		if err := s.cartRepo.Clear(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		return nil
	})

	if err != nil {
		s.metrics.Checkouts.WithLabelValues(string(method), failureLabel(err)).Inc()
		s.log.WarnContext(ctx, "checkout failed",
			"user_id", req.UserID,
			"payment_method", method,
			"error", err,
		)
		return nil, err
	}

	s.metrics.Checkouts.WithLabelValues(string(method), "ok").Inc()
	s.log.InfoContext(ctx, "order created",
		"order_number", resp.OrderNumber,
		"status", resp.Status,
		"total", resp.Total,
	)

	return resp, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *checkoutServiceImpl) GetOrder(ctx context.Context, userID uint, number string) (*dto.CheckoutResponse, error) {
	if userID == 0 {
		return nil, apperror.Validation("user_id", "is required")
	}
	if number == "" {
		return nil, apperror.Validation("order_number", "is required")
	}

	order, err := s.orderRepo.FindByNumber(ctx, s.db, number)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperror.NotFound("order", number)
	}

	items := make([]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		items[i] = &order.Items[i]
	}

	return toCheckoutResponse(order, items), nil
}

func validateCheckout(req *dto.CheckoutRequest) error {
	if req.UserID == 0 {
		return apperror.Validation("user_id", "is required")
	}
	switch model.PaymentMethod(req.PaymentMethod) {
	case model.PaymentWallet, model.PaymentGateway:
	default:
		return apperror.Validation("payment_method", "must be wallet or gateway")
	}
	if req.ShippingCost < 0 {
		return apperror.Validation("shipping_cost", "must not be negative")
	}
	return nil
}

func (s *checkoutServiceImpl) lockLines(ctx context.Context, tx *gorm.DB, cartItems []*model.CartItem) ([]cartLine, error) {
	productIDs := make([]uint, len(cartItems))
	for i, item := range cartItems {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.LockMany(ctx, tx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	byID := make(map[uint]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]cartLine, 0, len(cartItems))
	for _, item := range cartItems {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, apperror.NotFound("product", item.ProductID)
		}
		if !product.Active {
			return nil, apperror.Validation("cart", fmt.Sprintf("product %q is no longer available", product.Name))
		}
		if item.Quantity <= 0 {
			return nil, apperror.Validation("cart", fmt.Sprintf("invalid quantity for %q", product.Name))
		}
		lines = append(lines, cartLine{product: product, quantity: item.Quantity})
	}

	return lines, nil
}

func (s *checkoutServiceImpl) buildOrder(user *model.User, address *model.Address, method model.PaymentMethod, shipping int64, lines []cartLine) (*model.Order, []*model.OrderItem) {
	items := make([]*model.OrderItem, len(lines))
	var subtotal, coinSubtotal int64
	for i, line := range lines {
		lineTotal := line.product.Price * line.quantity
		coinLineTotal := line.product.CoinPrice * line.quantity
		subtotal += lineTotal
		coinSubtotal += coinLineTotal

		items[i] = &model.OrderItem{
			ProductID:     line.product.ID,
			ProductName:   line.product.Name,
			UnitPrice:     line.product.Price,
			CoinUnitPrice: line.product.CoinPrice,
			Quantity:      line.quantity,
			LineTotal:     lineTotal,
			CoinLineTotal: coinLineTotal,
		}
	}

	coinShipping := coinsFor(shipping, s.cfg.Pricing.CoinRate)
	order := &model.Order{
		Number:           newNumber("ORD"),
		UserID:           user.ID,
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		Total:            subtotal + shipping,
		CoinSubtotal:     coinSubtotal,
		CoinShippingCost: coinShipping,
		CoinTotal:        coinSubtotal + coinShipping,
		Status:           model.OrderWaitingPayment,
		PaymentMethod:    method,
		ShippingAddress:  datatypes.NewJSONType(address.Snapshot()),
	}

	if method == model.PaymentWallet {
		now := time.Now()
		order.Status = model.OrderPaid
		order.PaidAt = &now
	}

	return order, items
}

func invoiceItems(items []*model.OrderItem, shipping int64) []model.GatewayItemDetail {
	details := make([]model.GatewayItemDetail, 0, len(items)+1)
	for _, item := range items {
		details = append(details, model.GatewayItemDetail{
			Name:     item.ProductName,
			Price:    item.LineTotal,
			Quantity: item.Quantity,
		})
	}
	if shipping > 0 {
		details = append(details, model.GatewayItemDetail{Name: "Shipping", Price: shipping, Quantity: 1})
	}
	return details
}

func toCheckoutResponse(order *model.Order, items []*model.OrderItem) *dto.CheckoutResponse {
	resp := &dto.CheckoutResponse{
		OrderID:          order.ID,
		OrderNumber:      order.Number,
		Status:           string(order.Status),
		PaymentMethod:    string(order.PaymentMethod),
		Subtotal:         order.Subtotal,
		ShippingCost:     order.ShippingCost,
		Total:            order.Total,
		CoinSubtotal:     order.CoinSubtotal,
		CoinShippingCost: order.CoinShippingCost,
		CoinTotal:        order.CoinTotal,
		Items:            make([]dto.OrderItem, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = dto.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		}
	}
	return resp
}

func orderEvent(order *model.Order) map[string]any {
	return map[string]any{
		"order_id":       order.ID,
		"order_number":   order.Number,
		"user_id":        order.UserID,
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"total":          order.Total,
	}
}

func failureLabel(err error) string {
	var (
		stockErr   *apperror.InsufficientStockError
		balanceErr *apperror.InsufficientBalanceError
		gatewayErr *apperror.GatewayError
	)
	switch {
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &balanceErr):
		return "insufficient_balance"
	case errors.As(err, &gatewayErr):
		return "gateway_error"
	default:
		return "error"
	}
}
