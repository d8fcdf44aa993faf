package models

import (
	"errors"
	"fmt"
)

// FirstScorer records which side opened the scoring.
type FirstScorer string

const (
	FirstScorerNone     FirstScorer = "none"
	FirstScorerFavorite FirstScorer = "favorite"
	FirstScorerUnderdog FirstScorer = "underdog"
)

// Outcome is a hypothetical final result. Home is the favorite, away the underdog.
type Outcome struct {
	HomeGoals   int         `json:"home_goals"`
	AwayGoals   int         `json:"away_goals"`
	FirstScorer FirstScorer `json:"first_scorer"`
}

// TotalGoals returns the combined score.
func (o Outcome) TotalGoals() int {
	return o.HomeGoals + o.AwayGoals
}

// BothScored reports whether each side scored at least once.
func (o Outcome) BothScored() bool {
	return o.HomeGoals > 0 && o.AwayGoals > 0
}

// Validate checks outcome field constraints. An empty first scorer is treated as none.
func (o Outcome) Validate() error {
	if o.HomeGoals < 0 || o.AwayGoals < 0 {
		return errors.New("goals must not be negative")
	}
	switch o.FirstScorer {
	case "", FirstScorerNone, FirstScorerFavorite, FirstScorerUnderdog:
		return nil
	default:
		return fmt.Errorf("unknown first scorer %q", o.FirstScorer)
	}
}

// ScenarioStatus classifies a scenario result.
type ScenarioStatus string

const (
	StatusProfit    ScenarioStatus = "profit"
	StatusLoss      ScenarioStatus = "loss"
	StatusBreakEven ScenarioStatus = "break_even"
)

// ScenarioResult is the settlement of a portfolio against one outcome.
type ScenarioResult struct {
	Outcome         Outcome        `json:"outcome"`
	TotalReturn     float64        `json:"total_return"`
	TotalInvestment float64        `json:"total_investment"`
	Profit          float64        `json:"profit"`
	WinningBets     []BetType      `json:"winning_bets"`
	ROI             float64        `json:"roi"`
	Status          ScenarioStatus `json:"status"`
}

// CoveredScenario is one key outcome of a coverage report.
type CoveredScenario struct {
	Label  string         `json:"label"`
	Result ScenarioResult `json:"result"`
}

// CoverageReport summarizes how many of the key outcomes end in profit.
type CoverageReport struct {
	Scenarios    []CoveredScenario `json:"scenarios"`
	Profitable   int               `json:"profitable"`
	Efficiency   float64           `json:"efficiency"`
	ResidualRisk float64           `json:"residual_risk"`
}
