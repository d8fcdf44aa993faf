package planner

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/matchhedge/internal/models"
)

// DefaultPresetCapital is the capital a preset is scaled to when none is given.
const DefaultPresetCapital = 20.0

type presetScenario struct {
	score       string
	description string
	profitable  bool
	netReturn   float64
	roi         float64
	suggested   float64
	protected   bool
}

type preset struct {
	scenarios []presetScenario
	// weights of the application groups, in applications order
	weights [3]float64
}

// PresetNames lists the presets in presentation order.
var PresetNames = []models.PresetName{
	models.PresetReferenceOptimized,
	models.PresetHighProfit2W1L,
	models.PresetProtectedConservative,
	models.PresetAggressive3W1L,
}

var presets = map[models.PresetName]preset{
	models.PresetReferenceOptimized: {
		scenarios: []presetScenario{
			{"0x0", "Goalless draw", false, -1.50, -12.5, 1.00, true},
			{"1x0", "Favorite wins 1-0", true, 2.00, 16.7, 3.00, false},
			{"2x0", "Comfortable favorite win", true, 6.00, 50.0, 4.00, false},
			{"0x1", "Underdog wins 0-1", false, -0.50, -4.2, 1.50, true},
			{"1x1", "One-all draw", false, -2.00, -16.7, 1.00, true},
			{"2x1", "Favorite wins, underdog scores", true, 2.50, 20.8, 3.50, true},
			{"1x2", "Underdog wins, favorite scores", true, 3.00, 25.0, 3.50, true},
			{"2x2", "High scoring draw", false, -2.00, -16.7, 1.00, true},
			{"3x0", "Favorite rout", true, 6.00, 50.0, 4.00, false},
			{"0x2", "Comfortable underdog win", true, 4.50, 37.5, 3.50, true},
		},
		weights: [3]float64{0.30, 0.35, 0.35},
	},
	models.PresetHighProfit2W1L: {
		scenarios: []presetScenario{
			{"2x0", "Comfortable favorite win", true, 8.50, 70.8, 4.50, false},
			{"3x0", "Favorite rout", true, 8.50, 70.8, 4.50, false},
			{"0x2", "Underdog win", true, 6.20, 51.7, 4.00, true},
			{"1x0", "Narrow favorite win", true, 3.20, 26.7, 3.00, false},
			{"2x1", "Favorite wins, concedes one", true, 4.50, 37.5, 4.00, true},
			{"0x0", "Goalless draw", false, -4.50, -37.5, 1.00, true},
			{"1x1", "One-all draw", false, -6.00, -50.0, 1.00, true},
		},
		weights: [3]float64{0.35, 0.40, 0.25},
	},
	models.PresetProtectedConservative: {
		scenarios: []presetScenario{
			{"1x0", "Narrow favorite win", true, 2.50, 20.8, 4.00, false},
			{"2x0", "Favorite win", true, 4.00, 33.3, 4.00, false},
			{"2x1", "Favorite wins, concedes one", true, 3.00, 25.0, 4.00, true},
			{"0x1", "Underdog win", true, 3.00, 25.0, 3.00, true},
			{"0x0", "Goalless draw", false, -2.50, -20.8, 2.00, true},
			{"1x1", "One-all draw", false, -3.00, -25.0, 2.00, true},
		},
		weights: [3]float64{0.25, 0.30, 0.45},
	},
	models.PresetAggressive3W1L: {
		scenarios: []presetScenario{
			{"2x0", "Favorite win", true, 10.00, 83.3, 4.00, false},
			{"3x0", "Favorite rout", true, 10.00, 83.3, 4.00, false},
			{"0x2", "Underdog win", true, 8.00, 66.7, 4.00, true},
			{"1x0", "Narrow favorite win", true, 5.00, 41.7, 4.00, false},
			{"0x0", "Goalless draw", false, -8.00, -66.7, 2.00, true},
			{"1x1", "One-all draw", false, -10.00, -83.3, 2.00, true},
		},
		weights: [3]float64{0.40, 0.45, 0.15},
	},
}

type marketShare struct {
	bet   models.BetType
	share float64
}

type application struct {
	name        string
	description string
	markets     []marketShare
}

var applications = [3]application{
	{
		name:        "Over 1.5 + BTTS No",
		description: "Covers favorite wins 2-0 through 5-0",
		markets:     []marketShare{{models.Over15BothTeamsNo, 0.7}, {models.Over15, 0.3}},
	},
	{
		name:        "Over 2.5 + Favorite",
		description: "Covers favorite wins 3-0, 3-1, 4-0, 4-1 and 5-0",
		markets:     []marketShare{{models.Over25DoubleChance12, 0.6}, {models.FavoriteWin, 0.4}},
	},
	{
		name:        "Underdog protection",
		description: "Covers 1-1 and 2-2 draws and underdog wins",
		markets:     []marketShare{{models.UnderdogOver05, 0.6}, {models.DoubleChanceX2, 0.4}},
	},
}

// ApplyPreset scales a preset distribution so its suggested stakes add up to
// capital, then splits the scaled total across the application groups using
// the preset's weights. All amounts are rounded to cents.
func ApplyPreset(name models.PresetName, capital float64) (models.PresetAllocation, error) {
	p, ok := presets[name]
	if !ok {
		return models.PresetAllocation{}, fmt.Errorf("unknown preset %q", name)
	}
	if !(capital >= 0) || math.IsInf(capital, 1) {
		return models.PresetAllocation{}, fmt.Errorf("capital must be a finite non-negative amount, got %v", capital)
	}

	suggested := decimal.Zero
	for _, s := range p.scenarios {
		suggested = suggested.Add(decimal.NewFromFloat(s.suggested))
	}
	factor := decimal.NewFromFloat(capital).Div(suggested)

	alloc := models.PresetAllocation{
		Name:      name,
		Capital:   capital,
		Scenarios: make([]models.PresetScenario, 0, len(p.scenarios)),
	}
	scaledTotal := decimal.Zero
	for _, s := range p.scenarios {
		stake := decimal.NewFromFloat(s.suggested).Mul(factor)
		ret := decimal.NewFromFloat(s.netReturn).Mul(factor)
		odds := 1.0
		if stake.IsPositive() {
			odds = ret.Add(stake).Div(stake).Round(2).InexactFloat64()
		}
		stake = stake.Round(2)
		scaledTotal = scaledTotal.Add(stake)
		alloc.Scenarios = append(alloc.Scenarios, models.PresetScenario{
			Score:          s.score,
			Description:    s.description,
			Profitable:     s.profitable,
			Protected:      s.protected,
			ReferenceROI:   s.roi,
			SuggestedStake: s.suggested,
			Stake:          stake.InexactFloat64(),
			Return:         ret.Round(2).InexactFloat64(),
			ImpliedOdds:    odds,
		})
	}

	total := decimal.Zero
	for i, app := range applications {
		weight := p.weights[i]
		stake := scaledTotal.Mul(decimal.NewFromFloat(weight)).Round(2)
		markets := make(map[models.BetType]float64, len(app.markets))
		for _, m := range app.markets {
			split := stake.Mul(decimal.NewFromFloat(m.share)).Round(2)
			markets[m.bet] = split.InexactFloat64()
			total = total.Add(split)
		}
		alloc.Applications = append(alloc.Applications, models.ApplicationStake{
			Name:        app.name,
			Description: app.description,
			Weight:      weight,
			Stake:       stake.InexactFloat64(),
			Markets:     markets,
		})
	}
	alloc.TotalStake = total.InexactFloat64()
	return alloc, nil
}
