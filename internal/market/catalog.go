// Package market defines the static menu of bet types and their win conditions.
package market

import (
	"fmt"

	"github.com/rewired-gh/matchhedge/internal/models"
)

// Predicate reports whether a market wins for a given final outcome.
type Predicate func(o models.Outcome) bool

// Market is one catalog entry.
type Market struct {
	Type        models.BetType
	Label       string
	DefaultOdds float64
	Wins        Predicate
}

// Catalog is an immutable, ordered predicate table.
type Catalog struct {
	markets []Market
	index   map[models.BetType]int
}

// NewCatalog builds the standard catalog. Home goals belong to the favorite.
func NewCatalog() *Catalog {
	return newCatalog([]Market{
		{models.ExactZeroZero, "Exact 0-0", 7.89, func(o models.Outcome) bool {
			return o.HomeGoals == 0 && o.AwayGoals == 0
		}},
		{models.ExactOneZeroFavorite, "Exact 1-0 favorite", 5.50, func(o models.Outcome) bool {
			return o.HomeGoals == 1 && o.AwayGoals == 0
		}},
		{models.Under15, "Under 1.5 goals", 3.25, func(o models.Outcome) bool {
			return o.TotalGoals() < 2
		}},
		{models.DoubleChanceX2, "Double chance X2", 1.91, func(o models.Outcome) bool {
			return o.AwayGoals >= o.HomeGoals
		}},
		{models.UnderdogOver05, "Underdog over 0.5 goals", 2.10, func(o models.Outcome) bool {
			return o.AwayGoals > 0
		}},
		{models.NextGoalFavorite, "Next goal favorite", 1.91, func(o models.Outcome) bool {
			return o.FirstScorer == models.FirstScorerFavorite
		}},
		{models.FavoriteWin, "Favorite win", 1.80, func(o models.Outcome) bool {
			return o.HomeGoals > o.AwayGoals
		}},
		{models.Over15, "Over 1.5 goals", 1.30, func(o models.Outcome) bool {
			return o.TotalGoals() >= 2
		}},
		{models.ExactOneOne, "Exact 1-1", 6.50, func(o models.Outcome) bool {
			return o.HomeGoals == 1 && o.AwayGoals == 1
		}},
		{models.Over15BothTeamsNo, "Over 1.5 & both teams score: no", 3.50, func(o models.Outcome) bool {
			return o.TotalGoals() >= 2 && !o.BothScored()
		}},
		{models.Under25DoubleChance1X, "Under 2.5 & double chance 1X", 1.85, func(o models.Outcome) bool {
			return o.TotalGoals() < 3 && o.HomeGoals >= o.AwayGoals
		}},
		{models.Over25DoubleChance12, "Over 2.5 & double chance 12", 2.30, func(o models.Outcome) bool {
			return o.TotalGoals() >= 3 && o.HomeGoals != o.AwayGoals
		}},
	})
}

func newCatalog(markets []Market) *Catalog {
	c := &Catalog{markets: markets, index: make(map[models.BetType]int, len(markets))}
	for i, m := range markets {
		if _, dup := c.index[m.Type]; dup {
			panic(fmt.Sprintf("market: duplicate catalog entry %s", m.Type))
		}
		c.index[m.Type] = i
	}
	return c
}

// Markets returns the catalog entries in order.
func (c *Catalog) Markets() []Market {
	out := make([]Market, len(c.markets))
	copy(out, c.markets)
	return out
}

// Lookup finds the entry for a bet type.
func (c *Catalog) Lookup(bt models.BetType) (Market, bool) {
	i, ok := c.index[bt]
	if !ok {
		return Market{}, false
	}
	return c.markets[i], true
}

// Wins evaluates a bet type's predicate. Unknown types never win.
func (c *Catalog) Wins(bt models.BetType, o models.Outcome) bool {
	m, ok := c.Lookup(bt)
	if !ok {
		return false
	}
	return m.Wins(o)
}

// DefaultOdds returns the seed odds for every market.
func (c *Catalog) DefaultOdds() map[models.BetType]float64 {
	out := make(map[models.BetType]float64, len(c.markets))
	for _, m := range c.markets {
		out[m.Type] = m.DefaultOdds
	}
	return out
}

// NewPortfolio returns an empty portfolio priced at the catalog's default odds.
func (c *Catalog) NewPortfolio() *models.Portfolio {
	return models.NewPortfolio(c.DefaultOdds())
}
