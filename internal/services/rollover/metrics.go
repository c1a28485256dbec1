package rollover

import (
	"time"

	"vidanet/internal/models"

	"github.com/shopspring/decimal"
)

// MetricsCollector observes rollover runs. The default is NoopMetrics;
// deployments plug in their own sink.
type MetricsCollector interface {
	RolloverStarted(periodID uint)
	CommissionsWritten(periodID uint, bonusType models.BonusType, rows int, total decimal.Decimal)
	RolloverCompleted(periodID uint, took time.Duration)
	RolloverFailed(periodID uint, err error)
}

type NoopMetrics struct{}

func (NoopMetrics) RolloverStarted(uint)                                            {}
func (NoopMetrics) CommissionsWritten(uint, models.BonusType, int, decimal.Decimal) {}
func (NoopMetrics) RolloverCompleted(uint, time.Duration)                           {}
func (NoopMetrics) RolloverFailed(uint, error)                                      {}
