// Package scenario settles a portfolio against hypothetical match outcomes.
package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/matchhedge/internal/market"
	"github.com/rewired-gh/matchhedge/internal/models"
)

// Reference scenario names used by the hedge rebalancer.
const (
	NoGoal        = "no_goal"
	FavoriteFirst = "favorite_first"
	UnderdogFirst = "underdog_first"
)

// ReferenceOutcomes are the canonical outcomes behind the reference profits.
var ReferenceOutcomes = map[string]models.Outcome{
	NoGoal:        {HomeGoals: 0, AwayGoals: 0, FirstScorer: models.FirstScorerNone},
	FavoriteFirst: {HomeGoals: 1, AwayGoals: 1, FirstScorer: models.FirstScorerFavorite},
	UnderdogFirst: {HomeGoals: 1, AwayGoals: 1, FirstScorer: models.FirstScorerUnderdog},
}

// Evaluate settles every staked bet against the outcome.
func Evaluate(c *market.Catalog, p *models.Portfolio, o models.Outcome) (models.ScenarioResult, error) {
	if err := o.Validate(); err != nil {
		return models.ScenarioResult{}, fmt.Errorf("invalid outcome: %w", err)
	}
	if o.FirstScorer == "" {
		o.FirstScorer = models.FirstScorerNone
	}

	res := models.ScenarioResult{
		Outcome:     o,
		WinningBets: []models.BetType{},
	}
	invested, returned := decimal.Zero, decimal.Zero
	for _, m := range c.Markets() {
		bet, ok := p.Get(m.Type)
		if !ok {
			continue
		}
		stake := decimal.NewFromFloat(bet.Stake)
		invested = invested.Add(stake)
		if bet.Stake <= 0 {
			continue
		}
		if m.Wins(o) {
			returned = returned.Add(stake.Mul(decimal.NewFromFloat(bet.Odds)))
			res.WinningBets = append(res.WinningBets, m.Type)
		}
	}

	profit := returned.Sub(invested)
	res.TotalInvestment = invested.InexactFloat64()
	res.TotalReturn = returned.InexactFloat64()
	res.Profit = profit.InexactFloat64()
	if invested.IsPositive() {
		res.ROI = profit.Div(invested).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	switch profit.Sign() {
	case 1:
		res.Status = models.StatusProfit
	case -1:
		res.Status = models.StatusLoss
	default:
		res.Status = models.StatusBreakEven
	}
	return res, nil
}

// ReferenceProfits evaluates the three canonical reference outcomes.
func ReferenceProfits(c *market.Catalog, p *models.Portfolio) map[string]float64 {
	out := make(map[string]float64, len(ReferenceOutcomes))
	for name, o := range ReferenceOutcomes {
		// reference outcomes are valid by construction
		res, _ := Evaluate(c, p, o)
		out[name] = res.Profit
	}
	return out
}

// Grid evaluates every final score from 0-0 to maxGoals-maxGoals.
// The first scorer is inferred from the score; when both sides scored the
// favorite is assumed to have opened.
func Grid(c *market.Catalog, p *models.Portfolio, maxGoals int) ([]models.ScenarioResult, error) {
	if maxGoals < 0 {
		return nil, fmt.Errorf("max goals must not be negative, got %d", maxGoals)
	}
	results := make([]models.ScenarioResult, 0, (maxGoals+1)*(maxGoals+1))
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			res, err := Evaluate(c, p, models.Outcome{HomeGoals: h, AwayGoals: a, FirstScorer: inferFirstScorer(h, a)})
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}

func inferFirstScorer(home, away int) models.FirstScorer {
	switch {
	case home == 0 && away == 0:
		return models.FirstScorerNone
	case home == 0:
		return models.FirstScorerUnderdog
	default:
		return models.FirstScorerFavorite
	}
}

// coverageOutcomes are the most frequent final scores a portfolio should
// close off.
var coverageOutcomes = []struct {
	label   string
	outcome models.Outcome
}{
	{"1x0 favorite", models.Outcome{HomeGoals: 1, FirstScorer: models.FirstScorerFavorite}},
	{"1x1 favorite first", models.Outcome{HomeGoals: 1, AwayGoals: 1, FirstScorer: models.FirstScorerFavorite}},
	{"1x1 underdog first", models.Outcome{HomeGoals: 1, AwayGoals: 1, FirstScorer: models.FirstScorerUnderdog}},
	{"0x0", models.Outcome{FirstScorer: models.FirstScorerNone}},
	{"2x1 favorite", models.Outcome{HomeGoals: 2, AwayGoals: 1, FirstScorer: models.FirstScorerFavorite}},
}

// Coverage evaluates the key outcomes and reports the share that profit.
// Break-even does not count as covered.
func Coverage(c *market.Catalog, p *models.Portfolio) models.CoverageReport {
	report := models.CoverageReport{Scenarios: make([]models.CoveredScenario, 0, len(coverageOutcomes))}
	for _, k := range coverageOutcomes {
		// key outcomes are valid by construction
		res, _ := Evaluate(c, p, k.outcome)
		if res.Status == models.StatusProfit {
			report.Profitable++
		}
		report.Scenarios = append(report.Scenarios, models.CoveredScenario{Label: k.label, Result: res})
	}
	report.Efficiency = float64(report.Profitable) / float64(len(coverageOutcomes)) * 100
	report.ResidualRisk = 100 - report.Efficiency
	return report
}
