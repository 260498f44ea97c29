package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"commerce-core/internal/cache"
	"commerce-core/internal/client"
	"commerce-core/internal/config"
	"commerce-core/internal/logger"
	"commerce-core/internal/metrics"
	mw "commerce-core/internal/middleware"
	"commerce-core/internal/outbox"
	"commerce-core/internal/repository"
	"commerce-core/internal/server"
	"commerce-core/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New("commerce")
	gatewayClient := client.NewGatewayClient(&cfg.Gateway, m)

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

	pricing := service.NewPricingEngine(
		repository.NewMembershipRepository(),
		repository.NewMarkupRuleRepository(),
		cfg.Pricing.CoinRate,
	)

	services := server.Services{
		Checkout: service.NewCheckoutService(
			db, cfg, log, m, gatewayClient,
			ledger, inventory,
			productRepo, cartRepo, addressRepo, orderRepo, paymentRepo, outboxRepo,
		),
		Settlement: service.NewSettlementService(
			db, cfg, log, m, gatewayClient,
			ledger, inventory,
			orderRepo, topupRepo, paymentRepo, outboxRepo,
		),
		Topup: service.NewTopupService(db, log, gatewayClient, userRepo, topupRepo, paymentRepo),
		Ppob: service.NewPpobService(
			db, log, m, pricing, ledger,
			userRepo, repository.NewPpobRepository(), outboxRepo,
		),
		Cart: service.NewCartService(db, userRepo, productRepo, cartRepo, addressRepo),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var idempotency mw.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, idempotency guard runs fail-open", "error", err)
		}
		idempotency = cache.NewIdempotencyStore(redisClient)
	}

	var wg sync.WaitGroup
	if len(cfg.Kafka.Brokers) > 0 {
		writer := outbox.NewKafkaWriter(cfg.Kafka.Brokers...)
		defer writer.Close()

		relay := outbox.NewRelay(outboxRepo, writer, log, cfg.Kafka.PollInterval, cfg.Kafka.BatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	} else {
		log.Info("no kafka brokers configured, outbox events stay in the database")
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, log, m, services, idempotency)

	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	wg.Wait()
}
