package types

import "time"

// Report is the aggregate statistics computed over a filtered hand set.
// Rates are percentages (0-100); win rates are big blinds per 100 hands.
type Report struct {
	HandsPlayed int `json:"hands_played"`

	VPIP     float64 `json:"vpip"`
	PFR      float64 `json:"pfr"`
	ThreeBet float64 `json:"three_bet"`

	// AggressionFactor is (bets + raises) / calls across all streets.
	AggressionFactor float64 `json:"aggression_factor"`

	WTSD          float64 `json:"wtsd"`
	WonAtShowdown float64 `json:"won_at_showdown"`

	WinRateBB100 float64 `json:"win_rate_bb100"`
	StdDevBB100  float64 `json:"std_dev_bb100"`

	// WinRateCI is the 95% confidence interval for WinRateBB100.
	WinRateCI ConfidenceInterval `json:"win_rate_ci"`

	// ProfitCurve is the cumulative result in big blinds, one point per hand
	// in chronological order.
	ProfitCurve []float64 `json:"profit_curve"`

	// Percentiles summarizes the per-hand bb distribution (p25/p50/p75).
	Percentiles map[string]float64 `json:"percentiles"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ConfidenceInterval bounds an estimate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PositionReport breaks core rates down by seat.
type PositionReport struct {
	Position     Position `json:"position"`
	HandsPlayed  int      `json:"hands_played"`
	VPIP         float64  `json:"vpip"`
	PFR          float64  `json:"pfr"`
	WinRateBB100 float64  `json:"win_rate_bb100"`
}
