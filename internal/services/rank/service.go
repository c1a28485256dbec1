// Package rank evaluates each member's rank for a period against the
// seeded ladder. Qualification is a pure function of the period's
// finalized volumes and the ladder; it never reads a previous period's
// assignment, so re-runs always produce the same result.
package rank

import (
	"context"
	"log"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
	"vidanet/internal/services/network"
)

// Result carries the period's rank assignments keyed by member id, plus
// the ladder the run evaluated against.
type Result struct {
	Assignments map[uint]models.Rank
	Ladder      []models.Rank
}

// RankByID returns the ladder rung with the given id.
func (r *Result) RankByID(id uint) (models.Rank, bool) {
	for _, rk := range r.Ladder {
		if rk.ID == id {
			return rk, true
		}
	}
	return models.Rank{}, false
}

// Service assigns ranks for a period.
type Service interface {
	// QualifyPeriod evaluates every member in the arena against the ladder,
	// records the achieved rank in history and updates the member rank
	// fields. The arena must carry finalized volumes for the period.
	QualifyPeriod(ctx context.Context, periodID uint, arena *network.Arena) (*Result, error)
}

type service struct {
	ranks   repositories.RankRepository
	history repositories.RankHistoryRepository
	members repositories.MemberRepository
}

func NewService(
	ranks repositories.RankRepository,
	history repositories.RankHistoryRepository,
	members repositories.MemberRepository,
) Service {
	if ranks == nil {
		panic("rank repository is required")
	}
	if history == nil {
		panic("rank history repository is required")
	}
	if members == nil {
		panic("member repository is required")
	}
	return &service{ranks: ranks, history: history, members: members}
}

func (s *service) QualifyPeriod(ctx context.Context, periodID uint, arena *network.Arena) (*Result, error) {
	ladder, err := s.ranks.ListByOrdinal(ctx)
	if err != nil {
		return nil, err
	}
	if len(ladder) == 0 {
		return nil, ErrLadderEmpty
	}
	byID := make(map[uint]models.Rank, len(ladder))
	for _, rk := range ladder {
		byID[rk.ID] = rk
	}

	// First pass: volume-only evaluation. Composition requirements are
	// deferred so that a member's rank never depends on the order their
	// direct referrals were evaluated in.
	base := make(map[uint]models.Rank, arena.Size())
	for _, id := range arena.Members() {
		m, _ := arena.Member(id)
		base[id] = highestVolumeRank(ladder, m)
	}

	// Second pass: re-evaluate with composition, counting direct referrals
	// against their first-pass ranks.
	final := make(map[uint]models.Rank, arena.Size())
	for _, id := range arena.Members() {
		m, _ := arena.Member(id)
		final[id] = s.resolveRank(ladder, byID, arena, base, m)
	}

	updates := make([]repositories.RankUpdate, 0, arena.Size())
	for _, id := range arena.Members() {
		m, _ := arena.Member(id)
		achieved := final[id]

		if err := s.history.Upsert(ctx, id, periodID, achieved.ID); err != nil {
			return nil, err
		}

		highest := achieved.ID
		if prev, ok := byID[m.HighestRankID]; ok && prev.Ordinal > achieved.Ordinal {
			highest = prev.ID
		}
		updates = append(updates, repositories.RankUpdate{
			MemberID:      id,
			RankID:        achieved.ID,
			HighestRankID: highest,
			Qualified:     m.PVCache >= QualificationPV,
		})

		// Keep the in-memory snapshot aligned for the calculators.
		m.CurrentRankID = achieved.ID
		m.HighestRankID = highest
		if m.PVCache >= QualificationPV {
			m.Status = models.MemberStatusQualified
		} else {
			m.Status = models.MemberStatusNotQualified
		}
	}
	if err := s.members.UpdateRanks(ctx, updates); err != nil {
		return nil, err
	}

	log.Printf("rank: qualified period %d, members=%d", periodID, len(updates))
	return &Result{Assignments: final, Ladder: ladder}, nil
}

// highestVolumeRank walks the ladder top-down and returns the first rung
// whose PV and PVG thresholds the member meets.
func highestVolumeRank(ladder []models.Rank, m *models.Member) models.Rank {
	for i := len(ladder) - 1; i >= 0; i-- {
		rk := ladder[i]
		if m.PVCache >= rk.PVRequired && m.PVGCache >= rk.PVGRequired {
			return rk
		}
	}
	return ladder[0]
}

func (s *service) resolveRank(
	ladder []models.Rank,
	byID map[uint]models.Rank,
	arena *network.Arena,
	base map[uint]models.Rank,
	m *models.Member,
) models.Rank {
	for i := len(ladder) - 1; i >= 0; i-- {
		rk := ladder[i]
		if m.PVCache < rk.PVRequired || m.PVGCache < rk.PVGRequired {
			continue
		}
		if rk.HasComposition() && !meetsComposition(rk, byID, arena, base, m.ID) {
			continue
		}
		return rk
	}
	return ladder[0]
}

// meetsComposition checks "N direct referrals at rank >= R" against the
// first-pass assignments.
func meetsComposition(
	rk models.Rank,
	byID map[uint]models.Rank,
	arena *network.Arena,
	base map[uint]models.Rank,
	memberID uint,
) bool {
	required, ok := byID[*rk.RequiredDirectRankID]
	if !ok {
		return false
	}
	count := 0
	for _, child := range arena.DirectReferrals(memberID) {
		if base[child].Ordinal >= required.Ordinal {
			count++
			if count >= rk.RequiredDirects {
				return true
			}
		}
	}
	return false
}
