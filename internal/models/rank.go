package models

import "time"

// Rank is one rung of the rank ladder. Ordinals form a strict total order
// and PVG thresholds increase with them. RequiredDirects/RequiredDirectRankID
// express the optional downline-composition requirement ("N direct referrals
// at rank >= R"); both zero-valued means PVG-only qualification.
type Rank struct {
	ID      uint   `gorm:"primarykey"`
	Name    string `gorm:"size:50;uniqueIndex"`
	Ordinal int    `gorm:"not null;uniqueIndex"`

	PVRequired  int `gorm:"not null;default:0"`
	PVGRequired int `gorm:"not null;default:0;index"`

	RequiredDirects      int   `gorm:"not null;default:0"`
	RequiredDirectRankID *uint `gorm:""`

	CreatedAt time.Time
}

// HasComposition reports whether this rank carries a downline-composition
// requirement on top of its PVG threshold.
func (r *Rank) HasComposition() bool {
	return r.RequiredDirects > 0 && r.RequiredDirectRankID != nil
}

// RankHistory records the rank a member achieved in a period. Append-only
// across periods; within a (member, period) pair re-qualification overwrites
// so that rollover re-runs are safe.
type RankHistory struct {
	ID       uint `gorm:"primarykey"`
	MemberID uint `gorm:"not null;uniqueIndex:idx_member_period_rank"`
	PeriodID uint `gorm:"not null;uniqueIndex:idx_member_period_rank"`
	RankID   uint `gorm:"not null;index"`

	AchievedOn time.Time `gorm:"not null"`
}
