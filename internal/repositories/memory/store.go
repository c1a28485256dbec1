// Package memory provides in-memory implementations of the repository
// interfaces backed by a single shared store. Used by pipeline tests;
// semantics mirror the gorm implementations, including delete-then-rewrite
// idempotency and sentinel errors.
package memory

import (
	"sync"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"

	"github.com/shopspring/decimal"
)

type memberPeriodKey struct {
	MemberID uint
	PeriodID uint
}

type currencyPeriodKey struct {
	Currency string
	PeriodID uint
}

// Store holds every table behind one mutex. Repository views share it,
// so cross-repository transactions (period close) stay consistent.
type Store struct {
	mu sync.Mutex

	members   map[uint]models.Member
	volumes   map[memberPeriodKey]models.MemberVolume
	periods   map[uint]models.Period
	ranks     []models.Rank
	histories map[memberPeriodKey]models.RankHistory
	rows      []models.Commission
	rates     map[currencyPeriodKey]decimal.Decimal
	events    []models.PointEvent

	nextPeriodID     uint
	nextCommissionID uint
	nextRankID       uint
	nextHistoryID    uint
}

func NewStore() *Store {
	return &Store{
		members:   make(map[uint]models.Member),
		volumes:   make(map[memberPeriodKey]models.MemberVolume),
		periods:   make(map[uint]models.Period),
		histories: make(map[memberPeriodKey]models.RankHistory),
		rates:     make(map[currencyPeriodKey]decimal.Decimal),
	}
}

// Repository views.

func (s *Store) Members() repositories.MemberRepository            { return &memberRepo{s} }
func (s *Store) Periods() repositories.PeriodRepository            { return &periodRepo{s} }
func (s *Store) Ranks() repositories.RankRepository                { return &rankRepo{s} }
func (s *Store) RankHistories() repositories.RankHistoryRepository { return &rankHistoryRepo{s} }
func (s *Store) Commissions() repositories.CommissionRepository    { return &commissionRepo{s} }
func (s *Store) Rates() repositories.ExchangeRateRepository        { return &rateRepo{s} }
func (s *Store) Events() repositories.PointEventRepository         { return &eventRepo{s} }

// Seeding helpers for tests.

func (s *Store) AddMember(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

func (s *Store) AddPeriod(p models.Period) models.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextPeriodID++
		p.ID = s.nextPeriodID
	} else if p.ID > s.nextPeriodID {
		s.nextPeriodID = p.ID
	}
	s.periods[p.ID] = p
	return p
}

func (s *Store) AddEvent(memberID, periodID uint, points int, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, models.PointEvent{
		MemberID:   memberID,
		PeriodID:   periodID,
		Points:     points,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	})
}

// CommissionRows returns a copy of the commission ledger for assertions.
func (s *Store) CommissionRows() []models.Commission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Commission, len(s.rows))
	copy(out, s.rows)
	return out
}

// HistoryRows returns a copy of the rank history rows for assertions.
func (s *Store) HistoryRows() []models.RankHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RankHistory, 0, len(s.histories))
	for _, h := range s.histories {
		out = append(out, h)
	}
	return out
}
