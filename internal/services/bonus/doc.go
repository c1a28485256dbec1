// Package bonus implements the commission calculators: Uninivel (level
// percentages of downline purchase volume paid to the upline), Matching
// (ambassador percentage of downline Uninivel earnings) and Alcance
// (fixed one-time rank advancement amounts paid to the sponsor).
//
// Calculators are pure with respect to the commission ledger: each
// returns the full row set for its bonus type and the rollover controller
// replaces the (period, bonus type) rows atomically, which keeps re-runs
// idempotent.
package bonus
