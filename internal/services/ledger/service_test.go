package ledger

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

func sponsor(id uint) *uint { return &id }

func seedChain(store *memory.Store, periodStatus string) models.Period {
	store.AddMember(models.Member{ID: 1, Currency: "MXN"})
	store.AddMember(models.Member{ID: 2, SponsorID: sponsor(1), Currency: "MXN"})
	store.AddMember(models.Member{ID: 3, SponsorID: sponsor(2), Currency: "MXN"})
	return store.AddPeriod(models.Period{
		Name:     "2026-01",
		StartsOn: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:   periodStatus,
	})
}

func TestFinalizePeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("pvg aggregates the whole subtree", func(t *testing.T) {
		store := memory.NewStore()
		period := seedChain(store, models.PeriodStatusClosing)
		store.AddEvent(1, period.ID, 100, decimal.NewFromInt(100))
		store.AddEvent(2, period.ID, 200, decimal.NewFromInt(200))
		store.AddEvent(3, period.ID, 50, decimal.NewFromInt(50))

		svc := NewService(store.Members(), store.Events(), store.Periods(), Config{})
		res, err := svc.FinalizePeriod(ctx, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, res.MembersFinalized)
		assert.Equal(t, 350, res.TotalPV)

		v1, err := store.Members().GetVolume(ctx, 1, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, v1.PV)
		assert.Equal(t, 350, v1.PVG)

		v3, err := store.Members().GetVolume(ctx, 3, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, v3.PV)
		assert.Equal(t, 50, v3.PVG, "leaf PVG equals own PV")
	})

	t.Run("rerun replaces instead of accumulating", func(t *testing.T) {
		store := memory.NewStore()
		period := seedChain(store, models.PeriodStatusClosing)
		store.AddEvent(2, period.ID, 200, decimal.NewFromInt(200))

		svc := NewService(store.Members(), store.Events(), store.Periods(), Config{})
		_, err := svc.FinalizePeriod(ctx, period.ID)
		require.NoError(t, err)
		_, err = svc.FinalizePeriod(ctx, period.ID)
		require.NoError(t, err)

		v1, err := store.Members().GetVolume(ctx, 1, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 200, v1.PVG)
		v2, err := store.Members().GetVolume(ctx, 2, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 200, v2.PV)
	})

	t.Run("refuses a period that is not closing", func(t *testing.T) {
		store := memory.NewStore()
		period := seedChain(store, models.PeriodStatusOpen)

		svc := NewService(store.Members(), store.Events(), store.Periods(), Config{})
		_, err := svc.FinalizePeriod(ctx, period.ID)
		assert.ErrorIs(t, err, ErrPeriodNotClosing)
	})

	t.Run("members without events finalize at zero", func(t *testing.T) {
		store := memory.NewStore()
		period := seedChain(store, models.PeriodStatusClosing)
		store.AddEvent(3, period.ID, 75, decimal.NewFromInt(75))

		svc := NewService(store.Members(), store.Events(), store.Periods(), Config{})
		_, err := svc.FinalizePeriod(ctx, period.ID)
		require.NoError(t, err)

		v2, err := store.Members().GetVolume(ctx, 2, period.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, v2.PV)
		assert.Equal(t, 75, v2.PVG)
	})
}
