package repositories

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrRateNotFound = errors.New("exchange rate not found")

// ExchangeRateRepository persists period-pinned exchange rates.
type ExchangeRateRepository interface {
	// GetRate returns the rate-to-base pinned for the currency in the period.
	GetRate(ctx context.Context, currencyCode string, periodID uint) (decimal.Decimal, error)

	// PinRates snapshots the given rates for the period, overwriting any
	// previous pin so a retried rollover re-pins consistently.
	PinRates(ctx context.Context, periodID uint, rates map[string]decimal.Decimal) error
}
