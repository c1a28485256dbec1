// Package repositories provides the data access layer for the compensation
// engine. All reads and writes of engine-owned state go through the
// interfaces defined here.
package repositories

import (
	"log"
	"os"
	"time"

	"vidanet/internal/config"
	"vidanet/internal/models"
	"vidanet/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// CacheService is the shared Redis-backed cache, nil when Redis is not
// configured.
var CacheService *cache.CacheService

// InitDB initializes the PostgreSQL connection, applies migrations for the
// engine-owned tables, and connects Redis when configured.
func InitDB() error {
	initPostgres()

	if config.GetEnv("REDIS_HOST", "") != "" {
		redisCfg := &cache.RedisConfig{
			Host:     config.GetEnv("REDIS_HOST", "localhost"),
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		}
		client := cache.NewRedisClient(redisCfg)
		CacheService = cache.NewCacheService(client, 24*time.Hour)
	}

	return DB.AutoMigrate(
		&models.Member{},
		&models.MemberVolume{},
		&models.Period{},
		&models.Rank{},
		&models.RankHistory{},
		&models.Commission{},
		&models.ExchangeRate{},
		&models.PointEvent{},
	)
}

func initPostgres() {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "vidanet") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}
	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", 100))
	sqlDB.SetConnMaxLifetime(config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour))
	sqlDB.SetConnMaxIdleTime(config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute))

	db.Logger = logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	log.Println("PostgreSQL connected")
}
