package bonus

import (
	"context"
	"testing"

	"vidanet/internal/models"
	"vidanet/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alcanceStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Ranks().SeedDefaults(context.Background(), testLadder()))
	return store
}

func TestAlcanceCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the sponsor on first advancement", func(t *testing.T) {
		store := alcanceStore(t)

		members := chain(0, 0)
		members[0].Currency = "USD"
		run := testRun(t, members, map[uint]int{1: 1, 2: 2})
		run.Period = &models.Period{ID: 2, Name: "2026-02"}

		rows, err := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Equal(t, uint(1), rows[0].MemberID)
		assert.Equal(t, uint(2), *rows[0].SourceMemberID)
		assert.Equal(t, "1500.00", rows[0].Amount.StringFixed(2))
		// Sponsor settles in USD from the fixed table.
		assert.Equal(t, "USD", rows[0].CurrencyCode)
		assert.Equal(t, "85.00", rows[0].AmountConverted.StringFixed(2))
	})

	t.Run("milestone pays only once across periods", func(t *testing.T) {
		store := alcanceStore(t)
		// Emprendedor (rank id 3) recorded in period 2.
		require.NoError(t, store.RankHistories().Upsert(ctx, 2, 2, 3))

		calc := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{})

		// Period 3: regressed, nothing to pay.
		run := testRun(t, chain(0, 0), map[uint]int{1: 1, 2: 1})
		run.Period = &models.Period{ID: 3, Name: "2026-03"}
		rows, err := calc.Compute(ctx, run)
		require.NoError(t, err)
		assert.Empty(t, rows)

		// Period 4: re-reaches Emprendedor, already consumed.
		run = testRun(t, chain(0, 0), map[uint]int{1: 1, 2: 2})
		run.Period = &models.Period{ID: 4, Name: "2026-04"}
		rows, err = calc.Compute(ctx, run)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("a jump pays every rung crossed", func(t *testing.T) {
		store := alcanceStore(t)

		run := testRun(t, chain(0, 0), map[uint]int{1: 1, 2: 3})
		run.Period = &models.Period{ID: 2, Name: "2026-02"}

		rows, err := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "1500.00", rows[0].Amount.StringFixed(2))
		assert.Equal(t, "3000.00", rows[1].Amount.StringFixed(2))
	})

	t.Run("colombian sponsor settles from the fixed table", func(t *testing.T) {
		store := alcanceStore(t)

		members := chain(0, 0)
		members[0].Currency = "COP"
		run := testRun(t, members, map[uint]int{1: 1, 2: 3})
		run.Period = &models.Period{ID: 2, Name: "2026-02"}

		rows, err := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "330000.00", rows[0].AmountConverted.StringFixed(2))
		assert.Equal(t, "660000.00", rows[1].AmountConverted.StringFixed(2))
	})

	t.Run("root advancement has no recipient", func(t *testing.T) {
		store := alcanceStore(t)

		run := testRun(t, chain(0), map[uint]int{1: 2})
		run.Period = &models.Period{ID: 2, Name: "2026-02"}

		rows, err := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{}).Compute(ctx, run)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("refuses to run before ranks", func(t *testing.T) {
		store := alcanceStore(t)
		run := testRun(t, chain(0, 0), map[uint]int{1: 1, 2: 2})
		run.RanksAssigned = false

		_, err := NewAlcanceCalculator(store.RankHistories(), AlcanceConfig{}).Compute(ctx, run)
		assert.ErrorIs(t, err, ErrCalculatorOrdering)
	})
}
