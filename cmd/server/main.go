// Package main runs the compensation engine: the service API plus the
// period-rollover scheduler.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidanet/internal/config"
	"vidanet/internal/repositories"
	"vidanet/internal/routes"
	"vidanet/internal/services/bonus"
	"vidanet/internal/services/exchange"
	"vidanet/internal/services/ledger"
	"vidanet/internal/services/rank"
	"vidanet/internal/services/rollover"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	controller := buildController()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repositories.NewRankRepository(repositories.DB).SeedDefaults(ctx, rank.DefaultLadder()); err != nil {
		cancel()
		log.Fatalf("Failed to seed rank ladder: %v", err)
	}
	if _, err := controller.EnsureOpenPeriod(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure open period: %v", err)
	}
	cancel()

	scheduler := rollover.NewScheduler(controller, config.GetDurationEnv("ROLLOVER_TICK", 5*time.Minute))
	scheduler.Start()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/admin", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, repositories.DB, controller)

	go func() {
		if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	scheduler.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}

func buildController() *rollover.Controller {
	memberRepo := repositories.NewMemberRepository(repositories.DB)
	periodRepo := repositories.NewPeriodRepository(repositories.DB)
	rankRepo := repositories.NewRankRepository(repositories.DB)
	historyRepo := repositories.NewRankHistoryRepository(repositories.DB)
	commissionRepo := repositories.NewCommissionRepository(repositories.DB)
	rateRepo := repositories.NewExchangeRateRepository(repositories.DB)
	eventRepo := repositories.NewPointEventRepository(repositories.DB)

	ledgerService := ledger.NewService(memberRepo, eventRepo, periodRepo, ledger.Config{
		Workers: config.GetIntEnv("LEDGER_WORKERS", 4),
	})
	rankService := rank.NewService(rankRepo, historyRepo, memberRepo)
	exchangeService := exchange.NewService(rateRepo, commissionRepo, exchange.DefaultRates, exchange.Config{
		BaseCurrency: config.GetEnv("BASE_CURRENCY", "MXN"),
	})

	calculators := []bonus.Calculator{
		bonus.NewUninivelCalculator(bonus.UninivelConfig{}),
		bonus.NewMatchingCalculator(commissionRepo, bonus.MatchingConfig{
			MaxDepth: config.GetIntEnv("MATCHING_MAX_DEPTH", 1),
		}),
		bonus.NewAlcanceCalculator(historyRepo, bonus.AlcanceConfig{}),
	}

	var lease rollover.Lease
	if repositories.CacheService != nil {
		lease = rollover.NewRedisLease(repositories.CacheService.Client())
	} else {
		log.Println("Redis not configured, using in-process rollover lease")
		lease = rollover.NewMutexLease()
	}

	return rollover.NewController(
		periodRepo,
		rankRepo,
		commissionRepo,
		ledgerService,
		rankService,
		exchangeService,
		calculators,
		lease,
		rollover.NoopMetrics{},
		repositories.CacheService,
		rollover.Config{
			LeaseTTL: config.GetDurationEnv("ROLLOVER_LEASE_TTL", 5*time.Minute),
		},
	)
}
