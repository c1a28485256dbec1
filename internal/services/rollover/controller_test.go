package rollover

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories/memory"
	"vidanet/internal/services/bonus"
	"vidanet/internal/services/exchange"
	"vidanet/internal/services/ledger"
	"vidanet/internal/services/rank"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sponsor(id uint) *uint { return &id }

func testController(t *testing.T, store *memory.Store, lease Lease) *Controller {
	t.Helper()
	ledgerSvc := ledger.NewService(store.Members(), store.Events(), store.Periods(), ledger.Config{})
	rankSvc := rank.NewService(store.Ranks(), store.RankHistories(), store.Members())
	exchangeSvc := exchange.NewService(store.Rates(), store.Commissions(), exchange.DefaultRates, exchange.Config{})
	calculators := []bonus.Calculator{
		bonus.NewUninivelCalculator(bonus.UninivelConfig{}),
		bonus.NewMatchingCalculator(store.Commissions(), bonus.MatchingConfig{}),
		bonus.NewAlcanceCalculator(store.RankHistories(), bonus.AlcanceConfig{}),
	}
	return NewController(
		store.Periods(),
		store.Ranks(),
		store.Commissions(),
		ledgerSvc,
		rankSvc,
		exchangeSvc,
		calculators,
		lease,
		nil,
		nil,
		Config{},
	)
}

func seedNetwork(t *testing.T, store *memory.Store, periodStatus string) models.Period {
	t.Helper()
	require.NoError(t, store.Ranks().SeedDefaults(context.Background(), rank.DefaultLadder()))
	store.AddMember(models.Member{ID: 1, Currency: "MXN"})
	store.AddMember(models.Member{ID: 2, SponsorID: sponsor(1), Currency: "MXN"})
	period := store.AddPeriod(models.Period{
		Name:     "2026-01",
		StartsOn: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:   periodStatus,
	})
	store.AddEvent(1, period.ID, 2000, decimal.NewFromInt(2000))
	store.AddEvent(2, period.ID, 1600, decimal.NewFromInt(1600))
	return period
}

func TestRunManual(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	period := seedNetwork(t, store, models.PeriodStatusOpen)
	controller := testController(t, store, NewMutexLease())

	closed, err := controller.RunManual(ctx)
	require.NoError(t, err)
	assert.Equal(t, period.ID, closed.ID)

	got, err := store.Periods().GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)

	next, err := store.Periods().CurrentOpen(ctx, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-02", next.Name)

	// Both members qualified at Visionario; the only payout is the
	// sponsor's level-one uninivel on the downline purchase.
	rows := store.CommissionRows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.BonusUninivel, rows[0].Type)
	assert.Equal(t, uint(1), rows[0].MemberID)
	assert.Equal(t, "80.00", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "80.00", rows[0].AmountConverted.StringFixed(2))
	assert.Equal(t, models.CommissionStatusPending, rows[0].Status)

	// Successor period carries baseline history for every member.
	baseline, err := store.RankHistories().ListForPeriod(ctx, next.ID)
	require.NoError(t, err)
	assert.Len(t, baseline, 2)
}

func TestRerunProducesIdenticalRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedNetwork(t, store, models.PeriodStatusOpen)
	controller := testController(t, store, NewMutexLease())

	closed, err := controller.RunManual(ctx)
	require.NoError(t, err)
	first := store.CommissionRows()

	// Simulate a crash-retry: the period is forced back to closing and the
	// whole pipeline runs again from the top.
	require.NoError(t, store.Periods().SetStatus(ctx, closed.ID, models.PeriodStatusClosing))
	require.NoError(t, controller.RunDue(ctx))
	second := store.CommissionRows()

	// Byte-identical modulo row id: every written field must match,
	// including the timestamp.
	fingerprint := func(rows []models.Commission) []string {
		out := make([]string, len(rows))
		for i, row := range rows {
			var src uint
			if row.SourceMemberID != nil {
				src = *row.SourceMemberID
			}
			var depth int
			if row.LevelDepth != nil {
				depth = *row.LevelDepth
			}
			out[i] = fmt.Sprintf("%d/%s/%d/%d/%s/%s/%s/%s/%s/%s/%s",
				row.MemberID, row.Type, src, depth,
				row.Amount.StringFixed(2), row.CurrencyCode,
				row.AmountConverted.StringFixed(2), row.ExchangeRate.StringFixed(8),
				row.Status, row.Notes,
				row.CalculatedAt.UTC().Format(time.RFC3339))
		}
		return out
	}
	assert.Equal(t, fingerprint(first), fingerprint(second))

	history, err := store.RankHistories().ListForPeriod(ctx, closed.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLeaseContentionIsBenign(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	period := seedNetwork(t, store, models.PeriodStatusClosing)

	lease := NewMutexLease()
	_, err := lease.Acquire(ctx, fmt.Sprintf("rollover:period:%d", period.ID), time.Minute)
	require.NoError(t, err)

	controller := testController(t, store, lease)
	require.NoError(t, controller.RunDue(ctx))

	got, err := store.Periods().GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusClosing, got.Status, "losing instance must not touch the period")
	assert.Empty(t, store.CommissionRows())
}

func TestEnsureOpenPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Ranks().SeedDefaults(ctx, rank.DefaultLadder()))
	controller := testController(t, store, NewMutexLease())

	created, err := controller.EnsureOpenPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusOpen, created.Status)

	again, err := controller.EnsureOpenPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

// expiringLease acquires normally but always fails renewal, as if the TTL
// lapsed and another instance took the key over.
type expiringLease struct {
	inner *MutexLease
}

func (l *expiringLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return l.inner.Acquire(ctx, key, ttl)
}

func (l *expiringLease) Renew(ctx context.Context, key, token string, ttl time.Duration) error {
	return ErrLeaseLost
}

func (l *expiringLease) Release(ctx context.Context, key, token string) error {
	return l.inner.Release(ctx, key, token)
}

// stalledLedger blocks until the pipeline context is cancelled, standing
// in for a close slow enough to outlive its lease.
type stalledLedger struct{}

func (stalledLedger) FinalizePeriod(ctx context.Context, periodID uint) (*ledger.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLeaseLossAbandonsClose(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	period := seedNetwork(t, store, models.PeriodStatusOpen)

	controller := testController(t, store, &expiringLease{inner: NewMutexLease()})
	controller.volumes = stalledLedger{}
	controller.config.LeaseRenewEvery = time.Millisecond

	_, err := controller.RunManual(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned holder must not commit anything: the period stays in
	// closing for whoever took the lease over.
	got, err := store.Periods().GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusClosing, got.Status)
	assert.Nil(t, got.ClosedAt)
	assert.Empty(t, store.CommissionRows())
}

type countingLease struct {
	inner    *MutexLease
	acquires int
}

func (l *countingLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.acquires++
	return l.inner.Acquire(ctx, key, ttl)
}

func (l *countingLease) Renew(ctx context.Context, key, token string, ttl time.Duration) error {
	return l.inner.Renew(ctx, key, token, ttl)
}

func (l *countingLease) Release(ctx context.Context, key, token string) error {
	return l.inner.Release(ctx, key, token)
}

func TestFatalFailureHaltsScheduledRetries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	period := seedNetwork(t, store, models.PeriodStatusOpen)
	// Dangling sponsor reference corrupts the graph.
	store.AddMember(models.Member{ID: 3, SponsorID: sponsor(99), Currency: "MXN"})

	lease := &countingLease{inner: NewMutexLease()}
	controller := testController(t, store, lease)

	// First tick hits the integrity fault and halts the period in closing.
	require.NoError(t, controller.RunDue(ctx))
	got, err := store.Periods().GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusClosing, got.Status)
	attempts := lease.acquires

	// Later ticks skip the halted period instead of retrying it.
	require.NoError(t, controller.RunDue(ctx))
	require.NoError(t, controller.RunDue(ctx))
	assert.Equal(t, attempts, lease.acquires)

	// Operator fixes the data; the manual path retries and completes.
	store.AddMember(models.Member{ID: 3, SponsorID: sponsor(1), Currency: "MXN"})
	closed, err := controller.RunManual(ctx)
	require.NoError(t, err)
	assert.Equal(t, period.ID, closed.ID)
	got, err = store.Periods().GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusClosed, got.Status)
}

func TestBlankCurrencyFallsBackToCountry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Ranks().SeedDefaults(ctx, rank.DefaultLadder()))
	store.AddMember(models.Member{ID: 1, Country: "US"})
	store.AddMember(models.Member{ID: 2, SponsorID: sponsor(1), Currency: "MXN"})
	period := store.AddPeriod(models.Period{
		Name:     "2026-01",
		StartsOn: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:   models.PeriodStatusOpen,
	})
	store.AddEvent(1, period.ID, 2000, decimal.NewFromInt(2000))
	store.AddEvent(2, period.ID, 1600, decimal.NewFromInt(1600))
	controller := testController(t, store, NewMutexLease())

	_, err := controller.RunManual(ctx)
	require.NoError(t, err)

	// The sponsor synced without a currency; their country puts the
	// uninivel payout in USD at the pinned rate.
	rows := store.CommissionRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "USD", rows[0].CurrencyCode)
	assert.Equal(t, "4.53", rows[0].AmountConverted.StringFixed(2))
}
