package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointEvent is one attributed order/points event from the order feed.
// Points feed PV/PVG accumulation; Amount is the commissionable sales
// value (VN) the bonus calculators pay percentages of. The engine only
// reads these rows.
type PointEvent struct {
	ID       uint `gorm:"primarykey"`
	MemberID uint `gorm:"not null;index:idx_event_member_period"`
	PeriodID uint `gorm:"not null;index:idx_event_member_period"`

	Points int             `gorm:"not null"`
	Amount decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	OccurredAt time.Time `gorm:"not null;index"`
}
