package repositories

import (
	"context"
	"fmt"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

func NewExchangeRateRepository(db *gorm.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) GetRate(ctx context.Context, currencyCode string, periodID uint) (decimal.Decimal, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("currency_code = ? AND period_id = ?", currencyCode, periodID).
		First(&rate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, ErrRateNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return rate.RateToBase, nil
}

func (r *exchangeRateRepository) PinRates(ctx context.Context, periodID uint, rates map[string]decimal.Decimal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period_id = ?", periodID).Delete(&models.ExchangeRate{}).Error; err != nil {
			return err
		}
		for code, rate := range rates {
			row := models.ExchangeRate{
				CurrencyCode: code,
				PeriodID:     periodID,
				RateToBase:   rate,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pin rates for period %d: %w", periodID, err)
	}
	return nil
}
