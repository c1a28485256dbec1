// Package exchange converts base-currency commission amounts into each
// member's display currency using rates pinned per period. Pinning happens
// once at close time; closed periods never re-read live rates, so their
// payouts stay reproducible.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

// RateSource supplies live rates to pin. Keys are currency codes, values
// are base-currency units per one unit of the keyed currency.
type RateSource interface {
	Rates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// StaticRateSource serves a fixed rate table. Used when rates come from
// configuration instead of a provider API.
type StaticRateSource map[string]decimal.Decimal

func (s StaticRateSource) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(s))
	for code, rate := range s {
		out[code] = rate
	}
	return out, nil
}

// DefaultRates mirrors the plan's reference parities against the MXN base.
var DefaultRates = StaticRateSource{
	"MXN": decimal.NewFromInt(1),
	"USD": decimal.NewFromFloat(17.65),
	"COP": decimal.NewFromFloat(0.0045),
}

// CurrencyForCountry maps a member country to its payout currency.
// Unknown countries settle in the base currency.
func CurrencyForCountry(country, base string) string {
	switch country {
	case "Mexico", "México", "MX":
		return "MXN"
	case "United States", "USA", "US":
		return "USD"
	case "Colombia", "CO":
		return "COP"
	default:
		return base
	}
}

// Config tunes the conversion service.
type Config struct {
	// BaseCurrency is the ledger currency all amounts are stored in.
	BaseCurrency string
}

// Service pins and applies period exchange rates.
type Service interface {
	// PinRates snapshots the live rate source for the period. Re-pinning
	// the same period overwrites, keeping crash-retries consistent.
	PinRates(ctx context.Context, periodID uint) error

	// Convert turns a base-currency amount into the display currency using
	// the period's pinned rate. Returns the converted amount and the rate
	// applied; ErrMissingRate when the currency has no pin.
	Convert(ctx context.Context, amount decimal.Decimal, currency string, periodID uint) (decimal.Decimal, decimal.Decimal, error)

	// ConvertPeriod fills AmountConverted on every commission row of the
	// period that does not already carry one. Rows whose currency has no
	// pinned rate are flagged needs_reconciliation instead of aborting;
	// returns how many rows were flagged.
	ConvertPeriod(ctx context.Context, periodID uint) (int, error)

	// BaseCurrency reports the ledger currency all amounts are stored in.
	BaseCurrency() string
}

type service struct {
	rates       repositories.ExchangeRateRepository
	commissions repositories.CommissionRepository
	source      RateSource
	config      Config
}

func NewService(
	rates repositories.ExchangeRateRepository,
	commissions repositories.CommissionRepository,
	source RateSource,
	config Config,
) Service {
	if rates == nil {
		panic("exchange rate repository is required")
	}
	if commissions == nil {
		panic("commission repository is required")
	}
	if source == nil {
		source = DefaultRates
	}
	if config.BaseCurrency == "" {
		config.BaseCurrency = "MXN"
	}
	return &service{
		rates:       rates,
		commissions: commissions,
		source:      source,
		config:      config,
	}
}

func (s *service) BaseCurrency() string {
	return s.config.BaseCurrency
}

func (s *service) PinRates(ctx context.Context, periodID uint) error {
	live, err := s.source.Rates(ctx)
	if err != nil {
		return fmt.Errorf("reading live rates: %w", err)
	}
	if err := s.rates.PinRates(ctx, periodID, live); err != nil {
		return err
	}
	log.Printf("exchange: pinned %d rates for period %d", len(live), periodID)
	return nil
}

func (s *service) Convert(ctx context.Context, amount decimal.Decimal, currency string, periodID uint) (decimal.Decimal, decimal.Decimal, error) {
	if currency == s.config.BaseCurrency {
		return amount, decimal.NewFromInt(1), nil
	}
	rate, err := s.rates.GetRate(ctx, currency, periodID)
	if err != nil {
		if errors.Is(err, repositories.ErrRateNotFound) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s period %d", ErrMissingRate, currency, periodID)
		}
		return decimal.Zero, decimal.Zero, err
	}
	if rate.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s period %d", ErrMissingRate, currency, periodID)
	}
	return amount.DivRound(rate, 2), rate, nil
}

func (s *service) ConvertPeriod(ctx context.Context, periodID uint) (int, error) {
	rows, err := s.commissions.ListByPeriod(ctx, periodID)
	if err != nil {
		return 0, err
	}

	updates := make([]repositories.ConversionUpdate, 0, len(rows))
	flagged := 0
	for _, row := range rows {
		// Fixed-table rows arrive pre-converted; leave them alone.
		if !row.AmountConverted.IsZero() {
			continue
		}
		converted, rate, err := s.Convert(ctx, row.Amount, row.CurrencyCode, periodID)
		if err != nil {
			if !errors.Is(err, ErrMissingRate) {
				return flagged, err
			}
			flagged++
			updates = append(updates, repositories.ConversionUpdate{
				CommissionID: row.ID,
				Status:       models.CommissionStatusNeedsReconcile,
			})
			log.Printf("exchange: no rate for %s in period %d, flagged commission %d", row.CurrencyCode, periodID, row.ID)
			continue
		}
		updates = append(updates, repositories.ConversionUpdate{
			CommissionID:    row.ID,
			AmountConverted: converted,
			ExchangeRate:    rate,
			Status:          row.Status,
		})
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.commissions.ApplyConversions(ctx, updates); err != nil {
		return flagged, err
	}
	return flagged, nil
}
