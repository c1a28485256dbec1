package rank

import "vidanet/internal/models"

// QualificationPV is the personal volume a member needs in a period to be
// commission-qualified. Members below it keep their rank evaluation but
// receive no payouts.
const QualificationPV = 1465

// DefaultLadder is the standard rank ladder, ordinal ascending. Thresholds
// are group volume per period; every ranked rung also requires the member
// to be personally qualified.
func DefaultLadder() []models.Rank {
	return []models.Rank{
		{Name: "Sin Rango", Ordinal: 0},
		{Name: "Visionario", Ordinal: 1, PVRequired: QualificationPV, PVGRequired: 1465},
		{Name: "Emprendedor", Ordinal: 2, PVRequired: QualificationPV, PVGRequired: 21000},
		{Name: "Creativo", Ordinal: 3, PVRequired: QualificationPV, PVGRequired: 58000},
		{Name: "Innovador", Ordinal: 4, PVRequired: QualificationPV, PVGRequired: 120000},
		{Name: "Embajador Transformador", Ordinal: 5, PVRequired: QualificationPV, PVGRequired: 300000},
		{Name: "Embajador Inspirador", Ordinal: 6, PVRequired: QualificationPV, PVGRequired: 650000},
		{Name: "Embajador Consciente", Ordinal: 7, PVRequired: QualificationPV, PVGRequired: 1300000},
		{Name: "Embajador Solidario", Ordinal: 8, PVRequired: QualificationPV, PVGRequired: 2900000},
	}
}
