package exchange

import (
	"context"
	"testing"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Rates(), store.Commissions(), StaticRateSource{
		"MXN": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(20),
	}, Config{})
	require.NoError(t, svc.PinRates(ctx, 1))

	t.Run("base currency is identity", func(t *testing.T) {
		converted, rate, err := svc.Convert(ctx, decimal.NewFromInt(100), "MXN", 1)
		require.NoError(t, err)
		assert.Equal(t, "100.00", converted.StringFixed(2))
		assert.Equal(t, "1", rate.String())
	})

	t.Run("divides by the pinned rate", func(t *testing.T) {
		converted, rate, err := svc.Convert(ctx, decimal.NewFromInt(100), "USD", 1)
		require.NoError(t, err)
		assert.Equal(t, "5.00", converted.StringFixed(2))
		assert.Equal(t, "20", rate.String())
	})

	t.Run("missing rate", func(t *testing.T) {
		_, _, err := svc.Convert(ctx, decimal.NewFromInt(100), "COP", 1)
		assert.ErrorIs(t, err, ErrMissingRate)
	})
}

func TestPinnedRatesStayStable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	live := StaticRateSource{"USD": decimal.NewFromInt(20)}
	svc := NewService(store.Rates(), store.Commissions(), live, Config{})

	require.NoError(t, svc.PinRates(ctx, 1))

	// The live source moves; the pinned period must not.
	live["USD"] = decimal.NewFromInt(25)

	converted, _, err := svc.Convert(ctx, decimal.NewFromInt(100), "USD", 1)
	require.NoError(t, err)
	assert.Equal(t, "5.00", converted.StringFixed(2))

	// A later period pins the moved rate.
	require.NoError(t, svc.PinRates(ctx, 2))
	converted, _, err = svc.Convert(ctx, decimal.NewFromInt(100), "USD", 2)
	require.NoError(t, err)
	assert.Equal(t, "4.00", converted.StringFixed(2))
}

func TestConvertPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Rates(), store.Commissions(), StaticRateSource{
		"USD": decimal.NewFromInt(20),
	}, Config{})
	require.NoError(t, svc.PinRates(ctx, 1))

	now := time.Now().UTC()
	require.NoError(t, store.Commissions().CreateBatch(ctx, []models.Commission{
		{MemberID: 1, PeriodID: 1, Type: models.BonusUninivel, Amount: decimal.NewFromInt(100), CurrencyCode: "USD", Status: models.CommissionStatusPending, CalculatedAt: now},
		{MemberID: 2, PeriodID: 1, Type: models.BonusUninivel, Amount: decimal.NewFromInt(100), CurrencyCode: "GTQ", Status: models.CommissionStatusPending, CalculatedAt: now},
		{MemberID: 3, PeriodID: 1, Type: models.BonusAlcance, Amount: decimal.NewFromInt(1500), CurrencyCode: "USD", AmountConverted: decimal.NewFromInt(85), ExchangeRate: decimal.NewFromFloat(17.65), Status: models.CommissionStatusPending, CalculatedAt: now},
	}))

	flagged, err := svc.ConvertPeriod(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	rows := store.CommissionRows()
	require.Len(t, rows, 3)

	assert.Equal(t, "5.00", rows[0].AmountConverted.StringFixed(2))
	assert.Equal(t, models.CommissionStatusPending, rows[0].Status)

	// No rate: flagged, rollover not aborted.
	assert.Equal(t, models.CommissionStatusNeedsReconcile, rows[1].Status)
	assert.True(t, rows[1].AmountConverted.IsZero())

	// Pre-converted fixed-table row untouched.
	assert.Equal(t, "85.00", rows[2].AmountConverted.StringFixed(2))
}
