package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member statuses reflect monthly qualification, not account standing.
const (
	MemberStatusQualified    = "qualified"
	MemberStatusNotQualified = "not_qualified"
)

// Member is a distributor in the network. SponsorID is nil only for root
// members. PVCache/PVGCache/VNCache hold the volumes of the last finalized
// period; they are replaced wholesale on finalization, never incremented.
type Member struct {
	ID        uint  `gorm:"primarykey"`
	SponsorID *uint `gorm:"index"`

	// Position within the sponsor's direct referrals, assigned at placement.
	Position int `gorm:"not null;default:0"`

	Country  string `gorm:"size:50;index"`
	Currency string `gorm:"size:10;not null"`

	PVCache  int             `gorm:"not null;default:0;index"`
	PVGCache int             `gorm:"not null;default:0;index"`
	VNCache  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`

	Status        string `gorm:"size:20;not null;default:'not_qualified'"`
	CurrentRankID uint   `gorm:"not null;default:1"`
	HighestRankID uint   `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Qualified reports whether the member met the monthly activity minimum.
func (m *Member) Qualified() bool {
	return m.Status == MemberStatusQualified
}

// MemberVolume is the per-period snapshot of a member's finalized volumes.
// One row per (member, period), written by the point ledger during rollover
// and read by the dashboard for closed periods.
type MemberVolume struct {
	ID       uint `gorm:"primarykey"`
	MemberID uint `gorm:"not null;uniqueIndex:idx_member_period_volume"`
	PeriodID uint `gorm:"not null;uniqueIndex:idx_member_period_volume"`

	PV  int             `gorm:"not null;default:0"`
	PVG int             `gorm:"not null;default:0"`
	VN  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`

	CreatedAt time.Time
}
