package bonus

import "github.com/shopspring/decimal"

// DefaultUninivelPercentages are the per-level percentages of a purchasing
// member's PV paid to the upline, level 1 nearest the purchase. A zero
// percentage past the table end terminates the upline walk.
var DefaultUninivelPercentages = []decimal.Decimal{
	pct(5), pct(8), pct(10), pct(10), pct(5), pct(4), pct(4), pct(3), pct(3),
}

// DefaultPayableLevels maps rank ordinal to the number of uninivel levels
// it unlocks. Ordinals missing from the map pay nothing.
var DefaultPayableLevels = map[int]int{
	1: 3, 2: 4, 3: 5, 4: 6,
	5: 9, 6: 9, 7: 9, 8: 9,
}

// MatchingTierOrdinal is the lowest rank ordinal (Embajador Transformador)
// eligible for the matching bonus.
const MatchingTierOrdinal = 5

// DefaultMatchingLevels maps ambassador ordinals to how many downline
// levels of uninivel earnings they match.
var DefaultMatchingLevels = map[int]int{
	MatchingTierOrdinal:     1,
	MatchingTierOrdinal + 1: 2,
	MatchingTierOrdinal + 2: 3,
	MatchingTierOrdinal + 3: 4,
}

// DefaultMatchingPercentages are the match percentages per level.
var DefaultMatchingPercentages = []decimal.Decimal{
	pct(30), pct(20), pct(10), pct(5),
}

// DefaultAlcanceAmounts maps rank ordinal to the fixed advancement amount
// per currency. Emprendedor (ordinal 2) is the first milestone that pays.
var DefaultAlcanceAmounts = map[int]map[string]decimal.Decimal{
	2: {"MXN": amt(1500), "USD": amt(85), "COP": amt(330000)},
	3: {"MXN": amt(3000), "USD": amt(165), "COP": amt(660000)},
	4: {"MXN": amt(5000), "USD": amt(280), "COP": amt(1100000)},
	5: {"MXN": amt(7500), "USD": amt(390), "COP": amt(1650000)},
	6: {"MXN": amt(10000), "USD": amt(555), "COP": amt(2220000)},
	7: {"MXN": amt(20000), "USD": amt(1111), "COP": amt(4400000)},
	8: {"MXN": amt(40000), "USD": amt(2222), "COP": amt(8800000)},
}

func pct(n int64) decimal.Decimal { return decimal.New(n, -2) }

func amt(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
