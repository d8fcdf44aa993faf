// Package models defines the core domain entities: bets, portfolios, match outcomes,
// analysis results, and hedge operations.
package models

import (
	"fmt"
	"math"
)

// BetType identifies a market in the catalog.
type BetType string

const (
	ExactZeroZero         BetType = "exact_0_0"
	ExactOneZeroFavorite  BetType = "exact_1_0_favorite"
	Under15               BetType = "under_1_5"
	DoubleChanceX2        BetType = "double_chance_x2"
	UnderdogOver05        BetType = "underdog_over_0_5"
	NextGoalFavorite      BetType = "next_goal_favorite"
	FavoriteWin           BetType = "favorite_win"
	Over15                BetType = "over_1_5"
	ExactOneOne           BetType = "exact_1_1"
	Over15BothTeamsNo     BetType = "over_1_5_btts_no"
	Under25DoubleChance1X BetType = "under_2_5_double_chance_1x"
	Over25DoubleChance12  BetType = "over_2_5_double_chance_12"
)

// BetTypes lists every bet type in catalog order.
var BetTypes = []BetType{
	ExactZeroZero,
	ExactOneZeroFavorite,
	Under15,
	DoubleChanceX2,
	UnderdogOver05,
	NextGoalFavorite,
	FavoriteWin,
	Over15,
	ExactOneOne,
	Over15BothTeamsNo,
	Under25DoubleChance1X,
	Over25DoubleChance12,
}

// Valid reports whether t is a known bet type.
func (t BetType) Valid() bool {
	for _, bt := range BetTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// Bet is a single stake placed on a market at decimal odds.
type Bet struct {
	Type  BetType `json:"bet_type"`
	Stake float64 `json:"stake"`
	Odds  float64 `json:"odds"`
}

// PotentialReturn is the gross payout if the bet wins.
func (b Bet) PotentialReturn() float64 {
	return b.Stake * b.Odds
}

// ImpliedProbability returns the probability encoded by the odds, in percent.
func (b Bet) ImpliedProbability() float64 {
	if b.Odds <= 0 {
		return 0
	}
	return 100 / b.Odds
}

// Validate checks bet field constraints.
func (b Bet) Validate() error {
	if !b.Type.Valid() {
		return fmt.Errorf("unknown bet type %q", b.Type)
	}
	if !(b.Stake >= 0) || math.IsInf(b.Stake, 1) {
		return fmt.Errorf("stake must be a finite non-negative amount, got %v", b.Stake)
	}
	if !(b.Odds > 1.0) || math.IsInf(b.Odds, 1) {
		return fmt.Errorf("odds must be finite and greater than 1.0, got %v", b.Odds)
	}
	return nil
}
