package rollover

import (
	"context"
	"testing"
	"time"

	"vidanet/internal/repositories/memory"
	"vidanet/internal/services/rank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerStartStop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Ranks().SeedDefaults(ctx, rank.DefaultLadder()))
	controller := testController(t, store, NewMutexLease())

	scheduler := NewScheduler(controller, 10*time.Millisecond)
	scheduler.Start()
	time.Sleep(35 * time.Millisecond)
	scheduler.Stop()

	// The immediate tick found no open period and created one.
	period, err := store.Periods().CurrentOpen(ctx, time.Now())
	require.NoError(t, err)
	assert.NotZero(t, period.ID)
}
