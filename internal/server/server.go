package server

import (
	"context"
	"log/slog"
	"net/http"

	"commerce-core/internal/config"
	"commerce-core/internal/handler"
	"commerce-core/internal/metrics"
	mw "commerce-core/internal/middleware"
	"commerce-core/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Checkout   service.CheckoutService
	Settlement service.SettlementService
	Topup      service.TopupService
	Ppob       service.PpobService
	Cart       service.CartService
}

type Server struct {
	echo            *echo.Echo
	cfg             *config.Config
	metrics         *metrics.Metrics
	idempotency     mw.IdempotencyStore
	log             *slog.Logger
	checkoutHandler *handler.CheckoutHandler
	paymentHandler  *handler.PaymentHandler
	walletHandler   *handler.WalletHandler
	ppobHandler     *handler.PpobHandler
}

// NewServer wires the HTTP surface. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewServer(cfg *config.Config, log *slog.Logger, m *metrics.Metrics, services Services, idempotency mw.IdempotencyStore) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				log.WarnContext(c.Request().Context(), "request", append(attrs, "error", v.Error)...)
				return nil
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		cfg:             cfg,
		metrics:         m,
		idempotency:     idempotency,
		log:             log,
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout, services.Cart),
		paymentHandler:  handler.NewPaymentHandler(services.Settlement),
		walletHandler:   handler.NewWalletHandler(services.Topup),
		ppobHandler:     handler.NewPpobHandler(services.Ppob),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.echo.Group("/api", mw.Auth(&s.cfg.Auth))

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- gateway callbacks --------
	api.POST("/payments/callback", s.paymentHandler.Callback)

	// -------- user actions --------
	var guard []echo.MiddlewareFunc
	if s.idempotency != nil {
		guard = append(guard, mw.Idempotency(s.idempotency, s.cfg.Redis.IdempotencyTTL, s.log))
	}
	api.POST("/cart/items", s.checkoutHandler.AddCartItem, guard...)
	api.POST("/checkout", s.checkoutHandler.Checkout, guard...)
	api.GET("/orders/:number", s.checkoutHandler.GetOrder)
	api.POST("/wallet/topup", s.walletHandler.Topup, guard...)
	api.POST("/ppob/pricing-preview", s.ppobHandler.PricingPreview)
	api.POST("/ppob/transactions", s.ppobHandler.Purchase, guard...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
