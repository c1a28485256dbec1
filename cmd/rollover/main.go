// Package main is a one-shot manual period closure. It finishes any period
// stuck in closing, or else closes the current open period, through the
// same lease path as the scheduler, then exits.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"vidanet/internal/config"
	"vidanet/internal/repositories"
	"vidanet/internal/services/bonus"
	"vidanet/internal/services/exchange"
	"vidanet/internal/services/ledger"
	"vidanet/internal/services/rank"
	"vidanet/internal/services/rollover"
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
		lease = rollover.NewMutexLease()
	}

	controller := rollover.NewController(
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := rankRepo.SeedDefaults(ctx, rank.DefaultLadder()); err != nil {
		log.Fatalf("Failed to seed rank ladder: %v", err)
	}

	period, err := controller.RunManual(ctx)
	if err != nil {
		if errors.Is(err, rollover.ErrNoPeriodDue) {
			log.Println("No open period to close")
			return
		}
		log.Fatalf("Rollover failed: %v", err)
	}
	log.Printf("Closed period %s", period.Name)
}
