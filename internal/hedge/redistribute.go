package hedge

import (
	"math"

	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/scenario"
)

// Shares of a winning reference profit that are reinvested and kept.
const (
	reinvestShare = 0.8
	keepShare     = 0.2
)

// noGoalKeep is the share of the best reference profit kept, and staked on
// Under 0.5, by the no-goal strategy.
const noGoalKeep = 0.5

// redistribution is the leg split used when the reference profit is a loss
// (recover) or a gain (protect).
type redistribution struct {
	reference string
	recover   []slot
	protect   []slot
}

var redistributions = map[models.Strategy]redistribution{
	models.StrategyZeroZero: {
		reference: scenario.NoGoal,
		recover: []slot{
			{MarketNoMoreGoals, 1.0, models.RoleProtection},
		},
		protect: []slot{
			{MarketDoubleChance1X, 0.5, models.RoleProtection},
			{MarketDoubleChanceX2, 0.5, models.RoleProtection},
		},
	},
	models.StrategyFavoriteGoal: {
		reference: scenario.FavoriteFirst,
		recover: []slot{
			{MarketNoMoreGoals, 0.5, models.RoleProtection},
			{MarketBTTSNo, 0.25, models.RoleProtection},
			{MarketOver25, 0.25, models.RoleOpportunity},
		},
		protect: []slot{
			{MarketBTTSNo, 0.5, models.RoleProtection},
			{MarketOver25, 0.5, models.RoleOpportunity},
		},
	},
	models.StrategyUnderdogGoal: {
		reference: scenario.UnderdogFirst,
		recover: []slot{
			{MarketUnderdogWin, 0.5, models.RoleProtection},
			{MarketBTTSNo, 0.25, models.RoleProtection},
			{MarketOver25, 0.25, models.RoleOpportunity},
		},
		protect: []slot{
			{MarketUnderdogWin, 0.6, models.RoleOpportunity},
			{MarketOver25, 0.4, models.RoleOpportunity},
		},
	},
}

// Redistribute builds the hedge for a scenario the bettor has chosen to
// react to, instead of the one implied by volatility. scorer is only read by
// the one-one strategy and must name the side that scored first.
//
// A losing reference profit is recovered by staking 80% of the loss; a
// winning one keeps 20% and stakes the rest on protection.
func Redistribute(strategy models.Strategy, scorer models.FirstScorer, profits, odds map[string]float64) (models.RiskAnalysis, error) {
	if err := validateInputs(profits, 0, odds); err != nil {
		return models.RiskAnalysis{}, err
	}
	analysis := baseAnalysis(profits)
	analysis.Strategy = strategy

	if strategy == models.StrategyNoGoal {
		analysis.KeptProfit = math.Max(0, best(profits)) * noGoalKeep
		analysis.HedgeBudget = analysis.KeptProfit
		analysis.Bets = fill(analysis.HedgeBudget, []slot{{MarketUnder05, 1.0, models.RoleProtection}}, odds)
		return analysis, nil
	}

	rule, ok := redistributions[strategy]
	if strategy == models.StrategyOneOne {
		rule, ok = oneOne(scorer)
		if !ok {
			return models.RiskAnalysis{}, invalid("one-one strategy needs the first scorer, got %q", scorer)
		}
	}
	if !ok {
		return models.RiskAnalysis{}, invalid("unknown strategy %q", strategy)
	}

	ref, ok := profits[rule.reference]
	if !ok {
		return models.RiskAnalysis{}, invalid("strategy %s needs the %s reference profit", strategy, rule.reference)
	}
	slots := rule.protect
	if ref < 0 {
		analysis.HedgeBudget = -ref * reinvestShare
		slots = rule.recover
	} else {
		analysis.HedgeBudget = ref * reinvestShare
		analysis.KeptProfit = ref * keepShare
	}
	analysis.Bets = fill(analysis.HedgeBudget, slots, odds)
	return analysis, nil
}

// oneOne protects a 1-1 draw; the recovery double chance leg backs the side
// that opened the scoring.
func oneOne(scorer models.FirstScorer) (redistribution, bool) {
	var reference, doubleChance string
	switch scorer {
	case models.FirstScorerFavorite:
		reference, doubleChance = scenario.FavoriteFirst, MarketDoubleChance1X
	case models.FirstScorerUnderdog:
		reference, doubleChance = scenario.UnderdogFirst, MarketDoubleChanceX2
	default:
		return redistribution{}, false
	}
	return redistribution{
		reference: reference,
		recover: []slot{
			{MarketNoMoreGoals, 0.5, models.RoleProtection},
			{doubleChance, 0.25, models.RoleProtection},
			{MarketDraw, 0.25, models.RoleProtection},
		},
		protect: []slot{
			{MarketDraw, 0.4, models.RoleProtection},
			{MarketDoubleChance1X, 0.3, models.RoleProtection},
			{MarketDoubleChanceX2, 0.3, models.RoleProtection},
		},
	}, true
}
