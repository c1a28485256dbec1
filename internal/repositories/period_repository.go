package repositories

import (
	"context"
	"errors"
	"time"

	"vidanet/internal/models"
)

var (
	ErrPeriodNotFound = errors.New("period not found")
	ErrNoOpenPeriod   = errors.New("no open period")
)

// PeriodRepository defines period lifecycle persistence. Status moves
// open -> closing -> closed only; CloseAndOpenNext is the single place
// that commits a close, and it atomically opens the successor with
// zeroed member caches and baseline rank-history rows.
type PeriodRepository interface {
	Create(ctx context.Context, period *models.Period) error
	GetByID(ctx context.Context, id uint) (*models.Period, error)
	CurrentOpen(ctx context.Context, at time.Time) (*models.Period, error)
	InClosing(ctx context.Context) ([]models.Period, error)
	LatestClosed(ctx context.Context) (*models.Period, error)
	RecentClosed(ctx context.Context, limit int) ([]models.Period, error)

	SetStatus(ctx context.Context, id uint, status string) error
	MarkVolumesFinalized(ctx context.Context, id uint) error

	// CloseAndOpenNext marks the period closed, creates the next period in
	// open state, resets every member's PV/PVG/VN caches and qualification
	// status, and seeds a baseline rank-history row per member for the new
	// period, all in one transaction.
	CloseAndOpenNext(ctx context.Context, periodID uint, next *models.Period, baselineRankID uint) error
}
