// Package value compares estimated outcome probabilities with bookmaker odds.
package value

import (
	"github.com/rewired-gh/matchhedge/internal/models"
)

// NeutralProbability is used for bet types with no informed estimate.
const NeutralProbability = 50.0

// Label and recommendation thresholds on value percent.
const (
	highValueAbove = 10.0
	valueAbove     = 5.0
	neutralFloor   = -5.0
	increaseAbove  = 5.0
	reduceBelow    = -2.0
)

// families maps each bet type to the estimate family that prices it.
// Over 1.5 is deliberately absent and falls back to NeutralProbability.
var families = map[models.BetType]models.Family{
	models.ExactZeroZero:         models.FamilyExactZeroZero,
	models.ExactOneZeroFavorite:  models.FamilyFavoriteWinOneZero,
	models.Under15:               models.FamilyUnder15,
	models.DoubleChanceX2:        models.FamilyDrawOrUnderdog,
	models.UnderdogOver05:        models.FamilyUnderdogScores,
	models.NextGoalFavorite:      models.FamilyNextGoalFavorite,
	models.FavoriteWin:           models.FamilyFavoriteWin,
	models.ExactOneOne:           models.FamilyDraw,
	models.Over15BothTeamsNo:     models.FamilyOver15BothTeamsNo,
	models.Under25DoubleChance1X: models.FamilyUnder25FavoriteOrDraw,
	models.Over25DoubleChance12:  models.FamilyOver25NoDraw,
}

// RealProbability returns the estimated probability for a bet type, in percent.
func RealProbability(bt models.BetType, est models.ProbabilityEstimate) float64 {
	family, ok := families[bt]
	if !ok {
		return NeutralProbability
	}
	p, ok := est[family]
	if !ok {
		return NeutralProbability
	}
	return p
}

// Assess grades every staked bet in the portfolio against the estimate.
func Assess(p *models.Portfolio, est models.ProbabilityEstimate) models.ValueReport {
	report := models.ValueReport{Assessments: make(map[models.BetType]models.ValueAssessment)}

	for _, bet := range p.Bets() {
		if bet.Stake <= 0 {
			continue
		}
		a := assessBet(bet, RealProbability(bet.Type, est))
		report.Assessments[bet.Type] = a

		report.Summary.TotalInvested += bet.Stake
		report.Summary.TotalEV += a.ExpectedValue
		report.Summary.ActiveBets++
		if a.ExpectedValue > 0 {
			report.Summary.PositiveEVBets++
		}
	}

	if report.Summary.TotalInvested > 0 {
		report.Summary.ExpectedROI = report.Summary.TotalEV / report.Summary.TotalInvested * 100
	}
	report.Summary.BookmakerMargin = BookmakerMargin(p)
	return report
}

// BookmakerMargin is 100 minus the implied probabilities of every configured
// market, staked or not.
func BookmakerMargin(p *models.Portfolio) float64 {
	implied := 0.0
	for _, bet := range p.Bets() {
		implied += bet.ImpliedProbability()
	}
	return 100 - implied
}

func assessBet(bet models.Bet, real float64) models.ValueAssessment {
	implied := bet.ImpliedProbability()
	valuePct := (real - implied) / implied * 100
	ev := real/100*bet.Odds*bet.Stake - bet.Stake

	return models.ValueAssessment{
		Type:               bet.Type,
		Stake:              bet.Stake,
		Odds:               bet.Odds,
		RealProbability:    real,
		ImpliedProbability: implied,
		ValuePercent:       valuePct,
		ExpectedValue:      ev,
		ExpectedROI:        ev / bet.Stake * 100,
		Label:              Label(valuePct),
		Recommendation:     Recommend(valuePct),
	}
}

// Label grades a value percent.
func Label(valuePct float64) models.ValueLabel {
	switch {
	case valuePct > highValueAbove:
		return models.LabelHighValue
	case valuePct > valueAbove:
		return models.LabelValue
	case valuePct >= neutralFloor:
		return models.LabelNeutral
	default:
		return models.LabelNoValue
	}
}

// Recommend suggests a stake adjustment for a value percent.
func Recommend(valuePct float64) models.Recommendation {
	switch {
	case valuePct > increaseAbove:
		return models.RecommendIncrease
	case valuePct < reduceBelow:
		return models.RecommendReduce
	default:
		return models.RecommendMaintain
	}
}
