package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Portfolio holds one bet per catalog market, representing current exposure.
type Portfolio struct {
	bets map[BetType]Bet
}

// NewPortfolio seeds a portfolio with every bet type at zero stake.
// Odds come from defaultOdds; markets missing from it start at 2.00.
func NewPortfolio(defaultOdds map[BetType]float64) *Portfolio {
	p := &Portfolio{bets: make(map[BetType]Bet, len(BetTypes))}
	for _, bt := range BetTypes {
		odds, ok := defaultOdds[bt]
		if !ok || odds <= 1.0 {
			odds = 2.0
		}
		p.bets[bt] = Bet{Type: bt, Odds: odds}
	}
	return p
}

// Set replaces the stake and odds for a bet type.
func (p *Portfolio) Set(bt BetType, stake, odds float64) error {
	b := Bet{Type: bt, Stake: stake, Odds: odds}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid bet: %w", err)
	}
	p.bets[bt] = b
	return nil
}

// SetStake changes only the stake, keeping the current odds.
func (p *Portfolio) SetStake(bt BetType, stake float64) error {
	b, ok := p.bets[bt]
	if !ok {
		return fmt.Errorf("invalid bet: unknown bet type %q", bt)
	}
	return p.Set(bt, stake, b.Odds)
}

// Get returns the bet for a type.
func (p *Portfolio) Get(bt BetType) (Bet, bool) {
	b, ok := p.bets[bt]
	return b, ok
}

// Bets returns every bet in catalog order.
func (p *Portfolio) Bets() []Bet {
	out := make([]Bet, 0, len(p.bets))
	for _, bt := range BetTypes {
		if b, ok := p.bets[bt]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Odds returns the configured odds for every bet type.
func (p *Portfolio) Odds() map[BetType]float64 {
	out := make(map[BetType]float64, len(p.bets))
	for bt, b := range p.bets {
		out[bt] = b.Odds
	}
	return out
}

// TotalInvestment is the sum of all stakes.
func (p *Portfolio) TotalInvestment() float64 {
	total := decimal.Zero
	for _, b := range p.Bets() {
		total = total.Add(decimal.NewFromFloat(b.Stake))
	}
	return total.InexactFloat64()
}

// ScaleTo rescales stakes so they sum to bankroll, keeping their proportions.
// A portfolio with no stakes is left untouched, and so is one whose scaled
// stakes would not be finite.
func (p *Portfolio) ScaleTo(bankroll float64) error {
	if !(bankroll >= 0) || math.IsInf(bankroll, 1) {
		return errors.New("bankroll must be a finite non-negative amount")
	}
	total := p.TotalInvestment()
	if total == 0 {
		return nil
	}
	if math.IsInf(total, 1) {
		return errors.New("total investment is not finite")
	}
	factor := bankroll / total
	scaled := make(map[BetType]Bet, len(p.bets))
	for bt, b := range p.bets {
		b.Stake *= factor
		if err := b.Validate(); err != nil {
			return fmt.Errorf("invalid scaled bet: %w", err)
		}
		scaled[bt] = b
	}
	p.bets = scaled
	return nil
}

// Clone returns an independent copy.
func (p *Portfolio) Clone() *Portfolio {
	c := &Portfolio{bets: make(map[BetType]Bet, len(p.bets))}
	for bt, b := range p.bets {
		c.bets[bt] = b
	}
	return c
}
