package models

import "time"

// Period lifecycle states. Exactly one period is open at any instant;
// closing is a transient state owned by the rollover controller. A period
// stuck in closing after an aborted rollover is left for inspection, it is
// never silently reopened.
const (
	PeriodStatusOpen    = "open"
	PeriodStatusClosing = "closing"
	PeriodStatusClosed  = "closed"
)

// Period is a commission period. [StartsOn, EndsOn) is a closed-open
// interval; consecutive periods are contiguous.
type Period struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"size:20;uniqueIndex"`

	StartsOn time.Time `gorm:"not null;index"`
	EndsOn   time.Time `gorm:"not null;index"`

	Status string `gorm:"size:20;not null;default:'open';index"`

	// Set by the point ledger once PV/PVG are finalized for this period.
	// Calculators must not run before this.
	VolumesFinalizedAt *time.Time
	ClosedAt           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether t falls inside the period interval.
func (p *Period) Contains(t time.Time) bool {
	return !t.Before(p.StartsOn) && t.Before(p.EndsOn)
}

// Due reports whether the period's end boundary has passed.
func (p *Period) Due(now time.Time) bool {
	return !now.Before(p.EndsOn)
}
