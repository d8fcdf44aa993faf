package models

import "errors"

// TeamForm is one side's record over its last five matches.
type TeamForm struct {
	WinsLast5         int `json:"wins_last5" mapstructure:"wins_last5"`
	GoalsForLast5     int `json:"goals_for_last5" mapstructure:"goals_for_last5"`
	GoalsAgainstLast5 int `json:"goals_against_last5" mapstructure:"goals_against_last5"`
}

// Validate checks form field constraints.
func (f TeamForm) Validate() error {
	if f.WinsLast5 < 0 || f.WinsLast5 > 5 {
		return errors.New("wins in last 5 must be between 0 and 5")
	}
	if f.GoalsForLast5 < 0 {
		return errors.New("goals for must not be negative")
	}
	if f.GoalsAgainstLast5 < 0 {
		return errors.New("goals against must not be negative")
	}
	return nil
}

// TeamStatistics holds recent form for both sides of the match.
type TeamStatistics struct {
	Favorite TeamForm `json:"favorite" mapstructure:"favorite"`
	Underdog TeamForm `json:"underdog" mapstructure:"underdog"`
}

// Validate checks both sides.
func (s TeamStatistics) Validate() error {
	if err := s.Favorite.Validate(); err != nil {
		return errors.New("favorite: " + err.Error())
	}
	if err := s.Underdog.Validate(); err != nil {
		return errors.New("underdog: " + err.Error())
	}
	return nil
}

// Family names an outcome family the probability estimator scores.
type Family string

const (
	FamilyFavoriteWin           Family = "favorite_win"
	FamilyDraw                  Family = "draw"
	FamilyUnderdogWin           Family = "underdog_win"
	FamilyDrawOrUnderdog        Family = "draw_or_underdog"
	FamilyUnder25FavoriteOrDraw Family = "under_2_5_favorite_or_draw"
	FamilyOver15BothTeamsNo     Family = "over_1_5_btts_no"
	FamilyExactZeroZero         Family = "exact_0_0"
	FamilyUnder15               Family = "under_1_5"
	FamilyOver25NoDraw          Family = "over_2_5_no_draw"
	FamilyNextGoalFavorite      Family = "next_goal_favorite"
	FamilyUnderdogScores        Family = "underdog_scores"
	FamilyFavoriteWinOneZero    Family = "favorite_win_1_0"
	FamilyUnder25               Family = "under_2_5"
	FamilyOver15                Family = "over_1_5"
	FamilyBothTeamsScore        Family = "both_teams_score"
)

// ProbabilityEstimate maps outcome families to heuristic probabilities in percent.
// Families are not normalised against each other.
type ProbabilityEstimate map[Family]float64

// ValueLabel grades how mispriced a market looks.
type ValueLabel string

const (
	LabelHighValue ValueLabel = "high_value"
	LabelValue     ValueLabel = "value"
	LabelNeutral   ValueLabel = "neutral"
	LabelNoValue   ValueLabel = "no_value"
)

// Recommendation is the suggested stake adjustment for a bet.
type Recommendation string

const (
	RecommendIncrease Recommendation = "increase"
	RecommendMaintain Recommendation = "maintain"
	RecommendReduce   Recommendation = "reduce"
)

// ValueAssessment compares the estimated probability of a bet with its odds.
type ValueAssessment struct {
	Type               BetType        `json:"bet_type"`
	Stake              float64        `json:"stake"`
	Odds               float64        `json:"odds"`
	RealProbability    float64        `json:"real_probability"`
	ImpliedProbability float64        `json:"implied_probability"`
	ValuePercent       float64        `json:"value_percent"`
	ExpectedValue      float64        `json:"expected_value"`
	ExpectedROI        float64        `json:"expected_roi"`
	Label              ValueLabel     `json:"value_label"`
	Recommendation     Recommendation `json:"recommendation"`
}

// PortfolioSummary aggregates value assessments across the portfolio.
type PortfolioSummary struct {
	TotalInvested   float64 `json:"total_invested"`
	TotalEV         float64 `json:"total_ev"`
	ExpectedROI     float64 `json:"expected_roi"`
	BookmakerMargin float64 `json:"bookmaker_margin"`
	ActiveBets      int     `json:"active_bets"`
	PositiveEVBets  int     `json:"positive_ev_bets"`
}

// ValueReport is the output of a value analysis.
type ValueReport struct {
	Assessments map[BetType]ValueAssessment `json:"assessments"`
	Summary     PortfolioSummary            `json:"summary"`
}

// Ordered returns assessments in catalog order.
func (r ValueReport) Ordered() []ValueAssessment {
	out := make([]ValueAssessment, 0, len(r.Assessments))
	for _, bt := range BetTypes {
		if a, ok := r.Assessments[bt]; ok {
			out = append(out, a)
		}
	}
	return out
}

// PlanName identifies an allocation plan.
type PlanName string

const (
	PlanConservative PlanName = "conservative"
	PlanBalanced     PlanName = "balanced"
	PlanAggressive   PlanName = "aggressive"
	PlanCurrent      PlanName = "current"
)

// AllocationPlan is a proposed stake per bet type with its risk metrics.
type AllocationPlan struct {
	Name                PlanName            `json:"name"`
	Allocations         map[BetType]float64 `json:"allocations"`
	TotalStake          float64             `json:"total_stake"`
	ExpectedValue       float64             `json:"expected_value"`
	ExpectedROI         float64             `json:"expected_roi"`
	StdDev              float64             `json:"expected_profit_stddev"`
	ProbabilityOfProfit float64             `json:"probability_of_profit"`
	BankrollUtilization float64             `json:"bankroll_utilization_percent"`
}
