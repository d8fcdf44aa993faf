// Package hedge decides how much of the live exposure to re-risk into
// protective markets and tracks each decision through the operation log.
package hedge

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/scenario"
)

// Hedge market labels.
const (
	MarketUnder05        = "Under 0.5 Goals"
	MarketNoMoreGoals    = "No More Goals"
	MarketDoubleChanceX2 = "Double Chance X2"
	MarketDoubleChance1X = "Double Chance 1X"
	MarketUnder25        = "Under 2.5 Goals"
	MarketBTTSNo         = "Both Teams Score - No"
	MarketOver25         = "Over 2.5 Goals"
	MarketUnderdogOver05 = "Underdog Over 0.5 Goals"
	MarketDraw           = "Draw"
	MarketUnderdogWin    = "Underdog Win"
)

// DefaultOdds are used for hedge markets the caller has no price for.
var DefaultOdds = map[string]float64{
	MarketUnder05:        3.00,
	MarketNoMoreGoals:    3.00,
	MarketDoubleChanceX2: 1.91,
	MarketDoubleChance1X: 1.80,
	MarketUnder25:        1.65,
	MarketBTTSNo:         2.00,
	MarketOver25:         2.20,
	MarketUnderdogOver05: 2.10,
	MarketDraw:           3.50,
	MarketUnderdogWin:    2.00,
}

var descriptions = map[string]string{
	MarketUnder05:        "Covers a goalless finish",
	MarketNoMoreGoals:    "Covers the current scoreline holding",
	MarketDoubleChanceX2: "Covers a draw or underdog win",
	MarketDoubleChance1X: "Covers a draw or favorite win",
	MarketUnder25:        "Covers a low-scoring match",
	MarketBTTSNo:         "Covers a clean sheet on either side",
	MarketOver25:         "Profits from an open, high-scoring match",
	MarketUnderdogOver05: "Profits from an underdog goal",
	MarketDraw:           "Covers the match ending level",
	MarketUnderdogWin:    "Covers an underdog win",
}

// Volatility thresholds between risk profiles.
const (
	moderateFrom   = 5.0
	aggressiveFrom = 15.0
)

// primaryMarket is a placeholder slot resolved from the weakest scenario.
const primaryMarket = ""

type slot struct {
	market string
	share  float64
	role   models.HedgeRole
}

type profileRule struct {
	budget float64
	keep   float64
	slots  []slot
}

var profiles = map[models.RiskProfile]profileRule{
	models.RiskConservative: {
		budget: 0.2,
		keep:   0.7,
		slots: []slot{
			{primaryMarket, 0.70, models.RoleProtection},
			{MarketUnder25, 0.30, models.RoleProtection},
		},
	},
	models.RiskModerate: {
		budget: 0.3,
		keep:   0.5,
		slots: []slot{
			{primaryMarket, 0.50, models.RoleProtection},
			{MarketBTTSNo, 0.30, models.RoleProtection},
			{MarketOver25, 0.20, models.RoleOpportunity},
		},
	},
	models.RiskAggressive: {
		budget: 0.4,
		keep:   0.1,
		slots: []slot{
			{primaryMarket, 0.30, models.RoleProtection},
			{MarketOver25, 0.40, models.RoleOpportunity},
			{MarketUnderdogOver05, 0.30, models.RoleOpportunity},
		},
	},
}

// Classify maps adjusted volatility to a risk profile.
func Classify(volatility float64) models.RiskProfile {
	switch {
	case volatility < moderateFrom:
		return models.RiskConservative
	case volatility < aggressiveFrom:
		return models.RiskModerate
	default:
		return models.RiskAggressive
	}
}

// Volatility is the spread between the best and worst reference profit.
func Volatility(profits map[string]float64) float64 {
	if len(profits) == 0 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range profits {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return hi - lo
}

// Rebalance builds a hedge bet set for the reference profits. odds may omit
// markets; DefaultOdds fills the gaps. mc is optional.
func Rebalance(profits map[string]float64, exposure float64, odds map[string]float64, mc *models.MatchContext) (models.RiskAnalysis, error) {
	if err := validateInputs(profits, exposure, odds); err != nil {
		return models.RiskAnalysis{}, err
	}

	analysis := baseAnalysis(profits)
	if mc != nil {
		if err := mc.Validate(); err != nil {
			return models.RiskAnalysis{}, invalid("match context: %v", err)
		}
		analysis.ContextMultiplier = ContextMultiplier(*mc)
	}
	analysis.AdjustedVolatility = analysis.Volatility * analysis.ContextMultiplier
	analysis.Profile = Classify(analysis.AdjustedVolatility)

	if exposure == 0 {
		return analysis, nil
	}

	rule := profiles[analysis.Profile]
	analysis.KeptProfit = math.Max(0, best(profits)) * rule.keep
	analysis.HedgeBudget = exposure * rule.budget

	primary := primaryFor(analysis.WeakestScenario, mc)
	slots := make([]slot, len(rule.slots))
	for i, s := range rule.slots {
		if s.market == primaryMarket {
			s.market = primary
		}
		slots[i] = s
	}
	analysis.Bets = fill(analysis.HedgeBudget, slots, odds)
	return analysis, nil
}

// validateInputs rejects non-finite amounts and odds that cannot pay out.
func validateInputs(profits map[string]float64, exposure float64, odds map[string]float64) error {
	if !(exposure >= 0) || math.IsInf(exposure, 1) {
		return invalid("exposure must be a finite non-negative amount, got %v", exposure)
	}
	for market, o := range odds {
		if !(o > 1.0) || math.IsInf(o, 1) {
			return invalid("odds for %s must be finite and greater than 1.0, got %v", market, o)
		}
	}
	for name, p := range profits {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return invalid("profit for %s must be finite, got %v", name, p)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func baseAnalysis(profits map[string]float64) models.RiskAnalysis {
	vol := Volatility(profits)
	return models.RiskAnalysis{
		Volatility:         vol,
		ContextMultiplier:  1,
		AdjustedVolatility: vol,
		Profile:            Classify(vol),
		WeakestScenario:    weakest(profits),
		Bets:               []models.HedgeBet{},
	}
}

// fill splits budget across slots. Stakes are rounded to cents; budget is not.
func fill(budget float64, slots []slot, odds map[string]float64) []models.HedgeBet {
	bets := make([]models.HedgeBet, 0, len(slots))
	if budget <= 0 {
		return bets
	}
	for _, s := range slots {
		o, ok := odds[s.market]
		if !ok {
			o = DefaultOdds[s.market]
		}
		bets = append(bets, models.HedgeBet{
			Market:      s.market,
			Stake:       roundCents(budget * s.share),
			Odds:        o,
			Description: descriptions[s.market],
			Share:       s.share,
			Role:        s.role,
		})
	}
	return bets
}

// primaryFor picks the protection market that pays out in the weakest scenario.
func primaryFor(weakestScenario string, mc *models.MatchContext) string {
	switch weakestScenario {
	case scenario.NoGoal:
		if mc != nil && mc.FavoriteGoals+mc.UnderdogGoals > 0 {
			return MarketNoMoreGoals
		}
		return MarketUnder05
	case scenario.FavoriteFirst:
		return MarketDoubleChanceX2
	default:
		return MarketDoubleChance1X
	}
}

// weakest returns the scenario with the lowest profit, ties broken by name.
func weakest(profits map[string]float64) string {
	names := make([]string, 0, len(profits))
	for name := range profits {
		names = append(names, name)
	}
	sort.Strings(names)

	var out string
	for i, name := range names {
		if i == 0 || profits[name] < profits[out] {
			out = name
		}
	}
	return out
}

func best(profits map[string]float64) float64 {
	if len(profits) == 0 {
		return 0
	}
	hi := math.Inf(-1)
	for _, p := range profits {
		hi = math.Max(hi, p)
	}
	return hi
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
