package models

import (
	"errors"
	"time"
)

// RiskProfile drives the hedge budget and its split across markets.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// MatchEvent is the live event that triggered a rebalance.
type MatchEvent string

const (
	EventNone         MatchEvent = "none"
	EventKickoff      MatchEvent = "kickoff"
	EventGoalFavorite MatchEvent = "goal_favorite"
	EventGoalUnderdog MatchEvent = "goal_underdog"
	EventHalfTime     MatchEvent = "half_time"
	EventRedCard      MatchEvent = "red_card"
)

// MatchContext describes the live state of the match when hedging.
type MatchContext struct {
	Minute           int        `json:"minute"`
	FavoriteGoals    int        `json:"favorite_goals"`
	UnderdogGoals    int        `json:"underdog_goals"`
	LastEvent        MatchEvent `json:"last_event"`
	MinutesSinceGoal *int       `json:"minutes_since_goal,omitempty"`
}

// Validate checks match context constraints.
func (c MatchContext) Validate() error {
	if c.Minute < 0 || c.Minute > 120 {
		return errors.New("minute must be between 0 and 120")
	}
	if c.FavoriteGoals < 0 || c.UnderdogGoals < 0 {
		return errors.New("goals must not be negative")
	}
	if c.MinutesSinceGoal != nil && *c.MinutesSinceGoal < 0 {
		return errors.New("minutes since goal must not be negative")
	}
	switch c.LastEvent {
	case "", EventNone, EventKickoff, EventGoalFavorite, EventGoalUnderdog, EventHalfTime, EventRedCard:
		return nil
	default:
		return errors.New("unknown match event " + string(c.LastEvent))
	}
}

// Strategy names a chosen-scenario redistribution.
type Strategy string

const (
	StrategyNoGoal       Strategy = "no_goal"
	StrategyFavoriteGoal Strategy = "favorite_goal"
	StrategyUnderdogGoal Strategy = "underdog_goal"
	StrategyZeroZero     Strategy = "zero_zero"
	StrategyOneOne       Strategy = "one_one"
)

// HedgeRole tells whether a hedge leg protects exposure or chases upside.
type HedgeRole string

const (
	RoleProtection  HedgeRole = "protection"
	RoleOpportunity HedgeRole = "opportunity"
)

// HedgeBet is one leg of a protective bet set.
type HedgeBet struct {
	Market      string    `json:"market_label"`
	Stake       float64   `json:"stake"`
	Odds        float64   `json:"odds"`
	Description string    `json:"description"`
	Share       float64   `json:"share_of_hedge_budget"`
	Role        HedgeRole `json:"role"`
}

// PotentialReturn is the gross payout if the leg wins.
func (h HedgeBet) PotentialReturn() float64 {
	return h.Stake * h.Odds
}

// RiskAnalysis is the rebalancer's decision for one set of reference profits.
type RiskAnalysis struct {
	Volatility         float64     `json:"volatility"`
	ContextMultiplier  float64     `json:"context_multiplier"`
	AdjustedVolatility float64     `json:"adjusted_volatility"`
	Profile            RiskProfile `json:"risk_profile"`
	Strategy           Strategy    `json:"strategy,omitempty"`
	WeakestScenario    string      `json:"weakest_scenario,omitempty"`
	HedgeBudget        float64     `json:"hedge_budget"`
	KeptProfit         float64     `json:"kept_profit"`
	Bets               []HedgeBet  `json:"hedge_bets"`
}

// HedgeSummary totals a hedge bet set.
type HedgeSummary struct {
	TotalStake       float64            `json:"total_stake"`
	PotentialReturns map[string]float64 `json:"potential_returns"`
	ExpectedProfit   float64            `json:"expected_profit"`
}

// Summary totals the hedge legs. ExpectedProfit assumes every leg wins.
func (a RiskAnalysis) Summary() HedgeSummary {
	s := HedgeSummary{PotentialReturns: make(map[string]float64, len(a.Bets))}
	var returns float64
	for _, b := range a.Bets {
		s.TotalStake += b.Stake
		s.PotentialReturns[b.Market] += b.PotentialReturn()
		returns += b.PotentialReturn()
	}
	s.ExpectedProfit = returns - s.TotalStake
	return s
}

// OperationStatus tracks an operation through its lifecycle.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationExecuted  OperationStatus = "executed"
	OperationCancelled OperationStatus = "cancelled"
)

// Operation is one logged hedge-rebalancing decision cycle.
type Operation struct {
	ID            string             `json:"operation_id"`
	Timestamp     time.Time          `json:"timestamp"`
	ScenarioLabel string             `json:"scenario_label"`
	ProfitsBefore map[string]float64 `json:"profits_before"`
	TotalExposure float64            `json:"total_exposure"`
	RiskProfile   RiskProfile        `json:"risk_profile,omitempty"`
	Analysis      *RiskAnalysis      `json:"analysis,omitempty"`
	HedgeBets     []HedgeBet         `json:"hedge_bets"`
	Status        OperationStatus    `json:"status"`
	Notes         []string           `json:"notes"`
}
