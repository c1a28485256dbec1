package bonus

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

func seedUninivelTotal(t *testing.T, store *memory.Store, periodID, memberID uint, amount int64) {
	t.Helper()
	err := store.Commissions().CreateBatch(context.Background(), []models.Commission{{
		MemberID:     memberID,
		PeriodID:     periodID,
		Type:         models.BonusUninivel,
		Amount:       decimal.NewFromInt(amount),
		CurrencyCode: "MXN",
		Status:       models.CommissionStatusPending,
		CalculatedAt: time.Now().UTC(),
	}})
	require.NoError(t, err)
}

func TestMatchingCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("ambassador matches direct referral earnings", func(t *testing.T) {
		store := memory.NewStore()
		seedUninivelTotal(t, store, 1, 2, 100)

		run := testRun(t, chain(0, 0), map[uint]int{1: 5, 2: 1})
		run.UninivelDone = true

		rows, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, uint(1), rows[0].MemberID)
		assert.Equal(t, uint(2), *rows[0].SourceMemberID)
		assert.Equal(t, 1, *rows[0].LevelDepth)
		assert.Equal(t, "30.00", rows[0].Amount.StringFixed(2))
	})

	t.Run("rank below ambassador tier earns nothing", func(t *testing.T) {
		store := memory.NewStore()
		seedUninivelTotal(t, store, 1, 2, 100)

		run := testRun(t, chain(0, 0), map[uint]int{1: 4, 2: 1})
		run.UninivelDone = true

		rows, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("deeper tiers match deeper levels", func(t *testing.T) {
		store := memory.NewStore()
		seedUninivelTotal(t, store, 1, 2, 100)
		seedUninivelTotal(t, store, 1, 3, 50)

		// Inspirador unlocks two levels when the depth cap allows it.
		run := testRun(t, chain(0, 0, 0), map[uint]int{1: 6, 2: 1, 3: 1})
		run.UninivelDone = true

		rows, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{MaxDepth: 2}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "30.00", rows[0].Amount.StringFixed(2))
		assert.Equal(t, "10.00", rows[1].Amount.StringFixed(2))
	})

	t.Run("default depth cap is one level", func(t *testing.T) {
		store := memory.NewStore()
		seedUninivelTotal(t, store, 1, 2, 100)
		seedUninivelTotal(t, store, 1, 3, 50)

		run := testRun(t, chain(0, 0, 0), map[uint]int{1: 8, 2: 1, 3: 1})
		run.UninivelDone = true

		rows, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, *rows[0].LevelDepth)
	})

	t.Run("unqualified ambassador earns nothing", func(t *testing.T) {
		store := memory.NewStore()
		seedUninivelTotal(t, store, 1, 2, 100)

		members := chain(0, 0)
		members[0].Status = models.MemberStatusNotQualified
		run := testRun(t, members, map[uint]int{1: 5, 2: 1})
		run.UninivelDone = true

		rows, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("refuses to run before uninivel", func(t *testing.T) {
		store := memory.NewStore()
		run := testRun(t, chain(0, 0), map[uint]int{1: 5, 2: 1})

		_, err := NewMatchingCalculator(store.Commissions(), MatchingConfig{}).Compute(ctx, run)
		assert.ErrorIs(t, err, ErrCalculatorOrdering)
	})
}
