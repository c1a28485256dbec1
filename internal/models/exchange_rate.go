package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate pins one currency's rate to a period so that a closed
// period's payouts stay reproducible after live rates move. RateToBase is
// the number of base-currency units one unit of CurrencyCode is worth;
// converting a base amount to the display currency divides by it.
type ExchangeRate struct {
	ID           uint   `gorm:"primarykey"`
	CurrencyCode string `gorm:"size:10;not null;uniqueIndex:idx_currency_period"`
	PeriodID     uint   `gorm:"not null;uniqueIndex:idx_currency_period"`

	RateToBase decimal.Decimal `gorm:"type:numeric(18,8);not null"`

	CreatedAt time.Time
}
