package repositories

import (
	"context"
	"errors"

	"vidanet/internal/models"
)

var (
	ErrRankNotFound        = errors.New("rank not found")
	ErrRankHistoryNotFound = errors.New("rank history not found")
)

// RankRepository serves the rank ladder. The ladder is seed data; the
// engine never mutates it outside of SeedDefaults.
type RankRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Rank, error)
	ListByOrdinal(ctx context.Context) ([]models.Rank, error)

	// SeedDefaults inserts the default ladder when the table is empty.
	SeedDefaults(ctx context.Context, ranks []models.Rank) error
}

// RankHistoryRepository persists per-period rank achievements.
type RankHistoryRepository interface {
	// Upsert overwrites the (member, period) row if it exists so that
	// rollover re-runs replace instead of appending.
	Upsert(ctx context.Context, memberID, periodID, rankID uint) error

	RankForPeriod(ctx context.Context, memberID, periodID uint) (*models.RankHistory, error)
	ListForPeriod(ctx context.Context, periodID uint) ([]models.RankHistory, error)

	// HighestOrdinalBefore returns the highest rank ordinal the member
	// achieved in any period before periodID, or 0 when there is none.
	HighestOrdinalBefore(ctx context.Context, memberID, periodID uint) (int, error)
}
