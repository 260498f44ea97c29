package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"commerce-core/internal/client"
	"commerce-core/internal/config"
	"commerce-core/internal/metrics"
	"commerce-core/internal/model"
	"commerce-core/internal/repository"
	"commerce-core/internal/testutil"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateInvoice(ctx context.Context, req *client.InvoiceRequest) (*client.InvoiceResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*client.InvoiceResult)
	return res, args.Error(1)
}

func (m *mockGateway) VerifyCallback(cb *model.GatewayCallback) bool {
	return m.Called(cb).Bool(0)
}

func (m *mockGateway) acceptInvoices() {
	m.On("CreateInvoice", mock.Anything, mock.Anything).Return(&client.InvoiceResult{
		PaymentURL:       "https://pay.example/inv/1",
		StatusCode:       "00",
		GatewayReference: "GW-1",
		Request:          map[string]any{"merchantCode": "D0001"},
		Raw:              map[string]any{"statusCode": "00"},
	}, nil)
}

type testEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	gateway    *mockGateway
	metrics    *metrics.Metrics
	checkout   CheckoutService
	settlement SettlementService
	ppob       PpobService
	topup      TopupService
	cart       CartService
	ledger     repository.WalletLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := &config.Config{
		Gateway: config.Gateway{UnknownResultPolicy: "fail"},
		Pricing: config.Pricing{CoinRate: 1000},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New("test")
	gateway := &mockGateway{}

	ledger := repository.NewWalletLedger()
	inventory := repository.NewInventoryGuard()
	userRepo := repository.NewUserRepository()
	productRepo := repository.NewProductRepository()
	cartRepo := repository.NewCartRepository()
	addressRepo := repository.NewAddressRepository()
	orderRepo := repository.NewOrderRepository()
	paymentRepo := repository.NewPaymentRepository()
	topupRepo := repository.NewTopupRepository()
	outboxRepo := repository.NewOutboxRepository(db)
	pricing := NewPricingEngine(repository.NewMembershipRepository(), repository.NewMarkupRuleRepository(), cfg.Pricing.CoinRate)

	return &testEnv{
		db:      db,
		cfg:     cfg,
		gateway: gateway,
		metrics: m,
		ledger:  ledger,
		checkout: NewCheckoutService(db, cfg, log, m, gateway, ledger, inventory,
			productRepo, cartRepo, addressRepo, orderRepo, paymentRepo, outboxRepo),
		settlement: NewSettlementService(db, cfg, log, m, gateway, ledger, inventory,
			orderRepo, topupRepo, paymentRepo, outboxRepo),
		ppob: NewPpobService(db, log, m, pricing, ledger, userRepo,
			repository.NewPpobRepository(), outboxRepo),
		topup: NewTopupService(db, log, gateway, userRepo, topupRepo, paymentRepo),
		cart:  NewCartService(db, userRepo, productRepo, cartRepo, addressRepo),
	}
}

// shopper seeds a user with a deliverable address and one cart line.
func (e *testEnv) shopper(t *testing.T, balance int64, product *model.Product, quantity int64) *model.User {
	t.Helper()
	user := testutil.CreateUser(t, e.db, balance, 0)
	testutil.CreateAddress(t, e.db, user.ID)
	testutil.AddToCart(t, e.db, user.ID, product.ID, quantity)
	return user
}

func (e *testEnv) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func (e *testEnv) outboxTopics(t *testing.T) []string {
	t.Helper()
	var topics []string
	require.NoError(t, e.db.Model(&model.OutboxEvent{}).Order("id").Pluck("topic", &topics).Error)
	return topics
}
