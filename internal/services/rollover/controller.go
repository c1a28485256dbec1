// Package rollover drives the period lifecycle: it detects due periods,
// takes the closure lease, runs the calculation pipeline in strict order
// and atomically swaps the closed period for its successor. Every step is
// idempotent, so a crash mid-closing is recovered by running the same
// period again from the top.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
	"vidanet/internal/repositories/cache"
	"vidanet/internal/services/bonus"
	"vidanet/internal/services/exchange"
	"vidanet/internal/services/ledger"
	"vidanet/internal/services/network"
	"vidanet/internal/services/rank"

	"github.com/shopspring/decimal"
)

// Config tunes the controller.
type Config struct {
	// LeaseTTL bounds how long a crashed holder blocks a retry.
	LeaseTTL time.Duration
	// LeaseRenewEvery is the renewal cadence while closing runs.
	LeaseRenewEvery time.Duration
}

// Controller owns period closure. All writes it performs are either
// transactional or delete-then-rewrite per (period, bonus type), so a
// second run of the same closing period produces identical rows.
type Controller struct {
	periods     repositories.PeriodRepository
	ranks       repositories.RankRepository
	commissions repositories.CommissionRepository

	volumes   ledger.Service
	qualifier rank.Service
	converter exchange.Service

	calculators []bonus.Calculator
	lease       Lease
	metrics     MetricsCollector
	cache       *cache.CacheService

	config Config
	now    func() time.Time

	// Periods whose close hit a consistency-threatening failure. The
	// scheduler skips them; they stay in closing until an operator fixes
	// the data and reruns manually (or the process restarts).
	haltedMu sync.Mutex
	halted   map[uint]error
}

// NewController wires the closure pipeline. Calculators run in slice
// order, which must put uninivel before matching. The cache is optional;
// when present, summary keys are invalidated after each close.
func NewController(
	periods repositories.PeriodRepository,
	ranks repositories.RankRepository,
	commissions repositories.CommissionRepository,
	volumes ledger.Service,
	qualifier rank.Service,
	converter exchange.Service,
	calculators []bonus.Calculator,
	lease Lease,
	metrics MetricsCollector,
	cacheService *cache.CacheService,
	config Config,
) *Controller {
	if periods == nil {
		panic("period repository is required")
	}
	if ranks == nil {
		panic("rank repository is required")
	}
	if commissions == nil {
		panic("commission repository is required")
	}
	if volumes == nil {
		panic("ledger service is required")
	}
	if qualifier == nil {
		panic("rank service is required")
	}
	if converter == nil {
		panic("exchange service is required")
	}
	if len(calculators) == 0 {
		panic("at least one calculator is required")
	}
	if lease == nil {
		panic("lease is required")
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = 5 * time.Minute
	}
	if config.LeaseRenewEvery <= 0 {
		config.LeaseRenewEvery = config.LeaseTTL / 3
	}
	return &Controller{
		periods:     periods,
		ranks:       ranks,
		commissions: commissions,
		volumes:     volumes,
		qualifier:   qualifier,
		converter:   converter,
		calculators: calculators,
		lease:       lease,
		metrics:     metrics,
		cache:       cacheService,
		config:      config,
		now:         time.Now,
		halted:      make(map[uint]error),
	}
}

// EnsureOpenPeriod returns the open period covering now, creating the
// current calendar month when none exists (first boot).
func (c *Controller) EnsureOpenPeriod(ctx context.Context) (*models.Period, error) {
	now := c.now()
	period, err := c.periods.CurrentOpen(ctx, now)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, repositories.ErrNoOpenPeriod) {
		return nil, err
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	period = &models.Period{
		Name:     start.Format("2006-01"),
		StartsOn: start,
		EndsOn:   start.AddDate(0, 1, 0),
		Status:   models.PeriodStatusOpen,
	}
	if err := c.periods.Create(ctx, period); err != nil {
		return nil, err
	}
	log.Printf("rollover: opened initial period %s", period.Name)
	return period, nil
}

// RunDue is the scheduler entry point. It first retries any period stuck
// in closing (crash recovery), then moves the open period to closing and
// closes it when its end boundary has passed. Lease contention is logged
// and swallowed; halted periods are skipped.
func (c *Controller) RunDue(ctx context.Context) error {
	stuck, err := c.periods.InClosing(ctx)
	if err != nil {
		return err
	}
	for i := range stuck {
		if c.isHalted(stuck[i].ID) {
			continue
		}
		if err := c.closeWithLease(ctx, &stuck[i]); err != nil {
			if errors.Is(err, ErrLeaseHeld) {
				log.Printf("rollover: period %d already being closed elsewhere", stuck[i].ID)
				continue
			}
			if c.haltIfFatal(stuck[i].ID, err) {
				continue
			}
			return err
		}
	}

	now := c.now()
	open, err := c.periods.CurrentOpen(ctx, now)
	if errors.Is(err, repositories.ErrNoOpenPeriod) {
		// The open period may have advanced past its own window without a
		// tick; ensure one exists so the next tick can close it.
		_, err = c.EnsureOpenPeriod(ctx)
		return err
	}
	if err != nil {
		return err
	}
	if !open.Due(now) {
		return nil
	}
	if err := c.closeDue(ctx, open); err != nil {
		if c.haltIfFatal(open.ID, err) {
			return nil
		}
		return err
	}
	return nil
}

// RunManual is the operator override. It finishes the oldest period still
// in closing, halted or not, or else closes the current open period
// regardless of its end boundary. Unlike the scheduler path, lease
// contention and failures are reported to the caller.
func (c *Controller) RunManual(ctx context.Context) (*models.Period, error) {
	stuck, err := c.periods.InClosing(ctx)
	if err != nil {
		return nil, err
	}
	if len(stuck) > 0 {
		period := &stuck[0]
		if err := c.closeWithLease(ctx, period); err != nil {
			return nil, err
		}
		c.clearHalt(period.ID)
		return period, nil
	}

	period, err := c.periods.CurrentOpen(ctx, c.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNoOpenPeriod) {
			return nil, ErrNoPeriodDue
		}
		return nil, err
	}
	if err := c.periods.SetStatus(ctx, period.ID, models.PeriodStatusClosing); err != nil {
		return nil, err
	}
	period.Status = models.PeriodStatusClosing
	if err := c.closeWithLease(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (c *Controller) closeDue(ctx context.Context, period *models.Period) error {
	if err := c.periods.SetStatus(ctx, period.ID, models.PeriodStatusClosing); err != nil {
		return err
	}
	period.Status = models.PeriodStatusClosing
	if err := c.closeWithLease(ctx, period); err != nil {
		if errors.Is(err, ErrLeaseHeld) {
			log.Printf("rollover: period %d already being closed elsewhere", period.ID)
			return nil
		}
		return err
	}
	return nil
}

func (c *Controller) closeWithLease(ctx context.Context, period *models.Period) error {
	key := fmt.Sprintf("rollover:period:%d", period.ID)
	token, err := c.lease.Acquire(ctx, key, c.config.LeaseTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.lease.Release(context.Background(), key, token); err != nil {
			log.Printf("rollover: releasing lease for period %d: %v", period.ID, err)
		}
	}()

	// The pipeline runs under a context the renew loop cancels on lease
	// loss, so a holder whose lease expired abandons the close instead of
	// racing the successor instance that took the lease over.
	runCtx, abandon := context.WithCancel(ctx)
	defer abandon()
	go c.renewLoop(runCtx, abandon, key, token)

	started := c.now()
	c.metrics.RolloverStarted(period.ID)
	if err := c.closePeriod(runCtx, period); err != nil {
		c.metrics.RolloverFailed(period.ID, err)
		return err
	}
	c.metrics.RolloverCompleted(period.ID, c.now().Sub(started))
	return nil
}

func (c *Controller) renewLoop(ctx context.Context, abandon context.CancelFunc, key, token string) {
	ticker := time.NewTicker(c.config.LeaseRenewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.lease.Renew(ctx, key, token, c.config.LeaseTTL); err != nil {
				if ctx.Err() == nil {
					log.Printf("rollover: lease renewal failed, abandoning close: %v", err)
					abandon()
				}
				return
			}
		}
	}
}

// closePeriod runs the pipeline in strict order: finalize volumes,
// qualify ranks, uninivel, matching, alcance, pin + convert currency,
// then commit the close and open the successor.
func (c *Controller) closePeriod(ctx context.Context, period *models.Period) error {
	res, err := c.volumes.FinalizePeriod(ctx, period.ID)
	if err != nil {
		return fmt.Errorf("finalizing volumes for period %d: %w", period.ID, err)
	}
	// Member rows come from the external store; fill a missing payout
	// currency from the member's country before any row is written.
	base := c.converter.BaseCurrency()
	for _, id := range res.Arena.Members() {
		if m, ok := res.Arena.Member(id); ok && m.Currency == "" {
			m.Currency = exchange.CurrencyForCountry(m.Country, base)
		}
	}

	ranks, err := c.qualifier.QualifyPeriod(ctx, period.ID, res.Arena)
	if err != nil {
		return fmt.Errorf("qualifying period %d: %w", period.ID, err)
	}

	run := &bonus.Run{
		Period:           period,
		Arena:            res.Arena,
		Ranks:            ranks,
		VolumesFinalized: true,
		RanksAssigned:    true,
		// Pinned to the period boundary so a re-run writes identical rows.
		Now: period.EndsOn,
	}

	totals := make(map[models.BonusType]decimal.Decimal, len(c.calculators))
	for _, calc := range c.calculators {
		rows, err := calc.Compute(ctx, run)
		if err != nil {
			return fmt.Errorf("computing %s for period %d: %w", calc.Type(), period.ID, err)
		}
		if err := c.commissions.DeleteByPeriodAndType(ctx, period.ID, calc.Type()); err != nil {
			return err
		}
		if err := c.commissions.CreateBatch(ctx, rows); err != nil {
			return err
		}
		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.Amount)
		}
		totals[calc.Type()] = total
		c.metrics.CommissionsWritten(period.ID, calc.Type(), len(rows), total)
		if calc.Type() == models.BonusUninivel {
			run.UninivelDone = true
		}
	}

	if err := c.converter.PinRates(ctx, period.ID); err != nil {
		return fmt.Errorf("pinning rates for period %d: %w", period.ID, err)
	}
	flagged, err := c.converter.ConvertPeriod(ctx, period.ID)
	if err != nil {
		return fmt.Errorf("converting period %d: %w", period.ID, err)
	}
	if flagged > 0 {
		log.Printf("rollover: period %d has %d commissions needing rate reconciliation", period.ID, flagged)
	}

	baseline, err := c.baselineRank(ctx)
	if err != nil {
		return err
	}
	// Last fence before the commit: a holder abandoned by the renew loop
	// must not close the period underneath the successor.
	if err := ctx.Err(); err != nil {
		return err
	}
	next := c.nextPeriod(period)
	if err := c.periods.CloseAndOpenNext(ctx, period.ID, next, baseline.ID); err != nil {
		return fmt.Errorf("closing period %d: %w", period.ID, err)
	}

	if c.cache != nil {
		if err := c.cache.DeletePattern(ctx, "summary:*"); err != nil {
			log.Printf("rollover: invalidating summary cache: %v", err)
		}
	}

	// Deposit report: payout totals per bonus type for the closed period.
	for _, bt := range []models.BonusType{models.BonusUninivel, models.BonusMatching, models.BonusAlcance} {
		if total, ok := totals[bt]; ok {
			log.Printf("rollover: period %s paid %s total %s", period.Name, bt, total.StringFixed(2))
		}
	}
	log.Printf("rollover: closed period %s, opened %s", period.Name, next.Name)
	return nil
}

func (c *Controller) baselineRank(ctx context.Context) (*models.Rank, error) {
	ladder, err := c.ranks.ListByOrdinal(ctx)
	if err != nil {
		return nil, err
	}
	if len(ladder) == 0 {
		return nil, rank.ErrLadderEmpty
	}
	return &ladder[0], nil
}

func (c *Controller) nextPeriod(period *models.Period) *models.Period {
	start := period.EndsOn
	return &models.Period{
		Name:     start.Format("2006-01"),
		StartsOn: start,
		EndsOn:   start.AddDate(0, 1, 0),
		Status:   models.PeriodStatusOpen,
	}
}

// haltIfFatal records a consistency-threatening failure so the scheduler
// stops retrying the period. Payouts over a corrupted graph cannot be
// trusted; the period stays in closing for inspection.
func (c *Controller) haltIfFatal(periodID uint, err error) bool {
	if !errors.Is(err, network.ErrGraphIntegrity) {
		return false
	}
	c.haltedMu.Lock()
	c.halted[periodID] = err
	c.haltedMu.Unlock()
	log.Printf("rollover: period %d halted, fix the network data and rerun manually: %v", periodID, err)
	return true
}

func (c *Controller) isHalted(periodID uint) bool {
	c.haltedMu.Lock()
	defer c.haltedMu.Unlock()
	_, ok := c.halted[periodID]
	return ok
}

func (c *Controller) clearHalt(periodID uint) {
	c.haltedMu.Lock()
	delete(c.halted, periodID)
	c.haltedMu.Unlock()
}
