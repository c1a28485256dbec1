package memory

import (
	"context"

	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

type rateRepo struct {
	store *Store
}

func (r *rateRepo) GetRate(ctx context.Context, currencyCode string, periodID uint) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rate, ok := r.store.rates[currencyPeriodKey{currencyCode, periodID}]
	if !ok {
		return decimal.Zero, repositories.ErrRateNotFound
	}
	return rate, nil
}

func (r *rateRepo) PinRates(ctx context.Context, periodID uint, rates map[string]decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key := range r.store.rates {
		if key.PeriodID == periodID {
			delete(r.store.rates, key)
		}
	}
	for code, rate := range rates {
		r.store.rates[currencyPeriodKey{code, periodID}] = rate
	}
	return nil
}
