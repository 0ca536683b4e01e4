package stats

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pokerlens/pokerlens/internal/hands"
	"github.com/pokerlens/pokerlens/internal/types"
)

// confidenceZ is the two-sided 95% normal quantile.
var confidenceZ = distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)

// Engine computes aggregate statistics over the hand store.
type Engine struct {
	store *hands.Store
}

// NewEngine creates an engine over the given store.
func NewEngine(store *hands.Store) *Engine {
	return &Engine{store: store}
}

// Compute builds the full statistics report for hands matching the filter.
func (e *Engine) Compute(f types.Filter) *types.Report {
	hs := e.store.List(f)
	report := &types.Report{
		HandsPlayed: len(hs),
		Percentiles: map[string]float64{},
		GeneratedAt: time.Now(),
	}
	if len(hs) == 0 {
		return report
	}

	var vpip, pfr, threeBet, wtsd, wonSD int
	var aggressive, calls int
	bbPerHand := make([]float64, len(hs))

	for i, h := range hs {
		if h.VPIP {
			vpip++
		}
		if h.PFR {
			pfr++
		}
		if h.ThreeBet {
			threeBet++
		}
		if h.WentToShowdown {
			wtsd++
			if h.WonAtShowdown {
				wonSD++
			}
		}
		aggressive += h.Bets + h.Raises
		calls += h.Calls
		bbPerHand[i] = h.BigBlinds()
	}

	n := float64(len(hs))
	report.VPIP = percent(vpip, len(hs))
	report.PFR = percent(pfr, len(hs))
	report.ThreeBet = percent(threeBet, len(hs))
	report.WTSD = percent(wtsd, len(hs))
	report.WonAtShowdown = percent(wonSD, wtsd)
	report.AggressionFactor = aggressionFactor(aggressive, calls)

	mean := stat.Mean(bbPerHand, nil)
	report.WinRateBB100 = mean * 100

	if len(hs) > 1 {
		sd := math.Sqrt(stat.Variance(bbPerHand, nil))
		// Variance over 100 hands scales linearly, so the standard deviation
		// scales with sqrt(100).
		report.StdDevBB100 = sd * 10

		se := sd / math.Sqrt(n)
		report.WinRateCI = types.ConfidenceInterval{
			Lower: (mean - confidenceZ*se) * 100,
			Upper: (mean + confidenceZ*se) * 100,
		}
	} else {
		report.WinRateCI = types.ConfidenceInterval{
			Lower: report.WinRateBB100,
			Upper: report.WinRateBB100,
		}
	}

	report.ProfitCurve = cumulative(bbPerHand)

	sorted := make([]float64, len(bbPerHand))
	copy(sorted, bbPerHand)
	sort.Float64s(sorted)
	report.Percentiles = map[string]float64{
		"p25": stat.Quantile(0.25, stat.Empirical, sorted, nil),
		"p50": stat.Quantile(0.50, stat.Empirical, sorted, nil),
		"p75": stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}

	return report
}

// Positions breaks the core rates down per seat. Seats with no hands under
// the filter are omitted.
func (e *Engine) Positions(f types.Filter) []types.PositionReport {
	var out []types.PositionReport

	for _, pos := range types.ValidPositions {
		pf := f
		pf.Positions = []types.Position{pos}
		hs := e.store.List(pf)
		if len(hs) == 0 {
			continue
		}

		var vpip, pfr int
		bbSum := 0.0
		for _, h := range hs {
			if h.VPIP {
				vpip++
			}
			if h.PFR {
				pfr++
			}
			bbSum += h.BigBlinds()
		}

		out = append(out, types.PositionReport{
			Position:     pos,
			HandsPlayed:  len(hs),
			VPIP:         percent(vpip, len(hs)),
			PFR:          percent(pfr, len(hs)),
			WinRateBB100: bbSum / float64(len(hs)) * 100,
		})
	}

	return out
}

// AggressionWinCorrelation measures the Pearson correlation between per-hand
// aggressive actions and the hand result in big blinds.
func (e *Engine) AggressionWinCorrelation(f types.Filter) float64 {
	hs := e.store.List(f)
	if len(hs) < 2 {
		return 0
	}

	aggr := make([]float64, len(hs))
	wins := make([]float64, len(hs))
	for i, h := range hs {
		aggr[i] = float64(h.Bets + h.Raises)
		wins[i] = h.BigBlinds()
	}

	r := stat.Correlation(aggr, wins, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// aggressionFactor is (bets+raises)/calls. With no calls recorded the ratio
// is undefined; report the raw aggressive count so the value stays finite
// and JSON-encodable.
func aggressionFactor(aggressive, calls int) float64 {
	if calls == 0 {
		return float64(aggressive)
	}
	return float64(aggressive) / float64(calls)
}

func cumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}
