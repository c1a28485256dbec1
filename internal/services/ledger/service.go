// Package ledger accumulates Personal Volume (PV) and Group Volume (PVG)
// per member per period from the order event feed, and finalizes them at
// period close. PVG is always recomputed from scratch over the whole
// graph; the cached values are replaced, never incremented, so graph
// changes and rounding can never drift the aggregate.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
	"vidanet/internal/services/network"
)

// Result reports one finalization run and carries the arena the run was
// computed over, with volumes refreshed in memory for the calculators.
type Result struct {
	Arena            *network.Arena
	MembersFinalized int
	TotalPV          int
}

// Service finalizes a period's volumes.
type Service interface {
	// FinalizePeriod sums PV per member from order events, aggregates PVG
	// bottom-up over the sponsor tree, and replaces the cached volumes.
	// Must complete before any bonus calculator runs for the period.
	FinalizePeriod(ctx context.Context, periodID uint) (*Result, error)
}

// Config tunes the finalization run.
type Config struct {
	// Workers caps the number of root subtrees aggregated concurrently.
	Workers int
}

type service struct {
	members repositories.MemberRepository
	events  repositories.PointEventRepository
	periods repositories.PeriodRepository
	config  Config
}

func NewService(
	members repositories.MemberRepository,
	events repositories.PointEventRepository,
	periods repositories.PeriodRepository,
	config Config,
) Service {
	if members == nil {
		panic("member repository is required")
	}
	if events == nil {
		panic("point event repository is required")
	}
	if periods == nil {
		panic("period repository is required")
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &service{
		members: members,
		events:  events,
		periods: periods,
		config:  config,
	}
}

func (s *service) FinalizePeriod(ctx context.Context, periodID uint) (*Result, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status != models.PeriodStatusClosing {
		return nil, fmt.Errorf("%w: period %d is %s", ErrPeriodNotClosing, periodID, period.Status)
	}

	members, err := s.members.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	arena, err := network.BuildArena(members)
	if err != nil {
		return nil, err
	}

	totals, err := s.events.SumByMemberForPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	agg := newAggregation(arena, totals)
	if err := agg.run(s.config.Workers); err != nil {
		return nil, err
	}

	updates := make([]repositories.VolumeUpdate, 0, arena.Size())
	totalPV := 0
	for _, id := range arena.Members() {
		t := totals[id]
		u := repositories.VolumeUpdate{
			MemberID: id,
			PV:       t.Points,
			PVG:      agg.pvg[id],
			VN:       t.Amount,
		}
		updates = append(updates, u)
		totalPV += t.Points

		// Refresh the in-memory snapshot so calculators see finalized
		// volumes without another load.
		if m, ok := arena.Member(id); ok {
			m.PVCache = u.PV
			m.PVGCache = u.PVG
			m.VNCache = u.VN
		}
	}

	if err := s.members.ReplaceVolumes(ctx, periodID, updates); err != nil {
		return nil, err
	}
	if err := s.periods.MarkVolumesFinalized(ctx, periodID); err != nil {
		return nil, err
	}

	log.Printf("ledger: finalized period %d, members=%d total_pv=%d", periodID, len(updates), totalPV)
	return &Result{Arena: arena, MembersFinalized: len(updates), TotalPV: totalPV}, nil
}

// aggregation computes PVG bottom-up with memoization per member id, one
// worker per root subtree joined with a barrier. Subtrees are disjoint so
// workers never share memo entries.
type aggregation struct {
	arena  *network.Arena
	totals map[uint]repositories.PointTotals

	mu  sync.Mutex
	pvg map[uint]int
}

func newAggregation(arena *network.Arena, totals map[uint]repositories.PointTotals) *aggregation {
	return &aggregation{
		arena:  arena,
		totals: totals,
		pvg:    make(map[uint]int, arena.Size()),
	}
}

func (a *aggregation) run(workers int) error {
	roots := a.arena.Roots()
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, root := range roots {
		wg.Add(1)
		sem <- struct{}{}
		go func(root uint) {
			defer wg.Done()
			defer func() { <-sem }()
			local := make(map[uint]int)
			a.subtreePVG(root, local)
			a.mu.Lock()
			for id, v := range local {
				a.pvg[id] = v
			}
			a.mu.Unlock()
		}(root)
	}
	wg.Wait()
	return nil
}

func (a *aggregation) subtreePVG(id uint, memo map[uint]int) int {
	if v, ok := memo[id]; ok {
		return v
	}
	sum := a.totals[id].Points
	for _, child := range a.arena.DirectReferrals(id) {
		sum += a.subtreePVG(child, memo)
	}
	memo[id] = sum
	return sum
}
