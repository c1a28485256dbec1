package repositories

import (
	"context"
	"errors"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrVolumeNotFound = errors.New("member volume not found")
)

// VolumeUpdate carries one member's finalized volumes for a period.
type VolumeUpdate struct {
	MemberID uint
	PV       int
	PVG      int
	VN       decimal.Decimal
}

// RankUpdate carries one member's qualification result for a period.
type RankUpdate struct {
	MemberID      uint
	RankID        uint
	HighestRankID uint
	Qualified     bool
}

// MemberRepository defines member and per-period volume persistence.
// Member and placement rows are written by the external member store;
// this engine only updates the engine-owned cache and rank fields.
type MemberRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	ListAll(ctx context.Context) ([]models.Member, error)

	// ReplaceVolumes overwrites the cached volumes and rewrites the
	// MemberVolume snapshot rows for the period in one transaction.
	// Prior snapshot rows for the period are deleted first so re-runs
	// replace rather than accumulate.
	ReplaceVolumes(ctx context.Context, periodID uint, updates []VolumeUpdate) error

	// UpdateRanks applies qualification results for the period.
	UpdateRanks(ctx context.Context, updates []RankUpdate) error

	GetVolume(ctx context.Context, memberID, periodID uint) (*models.MemberVolume, error)
}
