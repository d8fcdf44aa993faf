// Package probability turns recent team form into heuristic outcome probabilities.
//
// Every family is a clamped linear score of win rate and goal rates. Derived
// families multiply already-clamped primaries, so mutually exclusive families
// are not guaranteed to sum to 100.
package probability

import (
	"fmt"
	"math"

	"github.com/rewired-gh/matchhedge/internal/mathutil"
	"github.com/rewired-gh/matchhedge/internal/models"
)

// Clamp bands per primary family, in percent.
const (
	favoriteWinMin, favoriteWinMax       = 25.0, 75.0
	drawMin, drawMax                     = 15.0, 35.0
	underdogWinFloor                     = 10.0
	under25Min, under25Max               = 25.0, 75.0
	bothScoreMin, bothScoreMax           = 15.0, 55.0
	underdogScoresMin, underdogScoresMax = 20.0, 70.0
	exactZeroZeroFloor                   = 3.0
	under15Floor                         = 8.0
	oneZeroMin, oneZeroMax               = 5.0, 15.0
)

// Estimate scores every family from the supplied statistics.
func Estimate(stats models.TeamStatistics) (models.ProbabilityEstimate, error) {
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("invalid team statistics: %w", err)
	}

	favWins := float64(stats.Favorite.WinsLast5)
	favFor := float64(stats.Favorite.GoalsForLast5)
	favAgainst := float64(stats.Favorite.GoalsAgainstLast5)
	undWins := float64(stats.Underdog.WinsLast5)
	undFor := float64(stats.Underdog.GoalsForLast5)

	favoriteWin := mathutil.Clamp(favWins/5*100*0.65+favFor/5*12, favoriteWinMin, favoriteWinMax)
	draw := mathutil.Clamp(100-favoriteWin-undWins/5*100*0.45, drawMin, drawMax)
	underdogWin := math.Max(underdogWinFloor, 100-favoriteWin-draw)

	under25 := mathutil.Clamp(60-(favFor/5+undFor/5)*6, under25Min, under25Max)
	over15 := 100 - under25
	bothScore := mathutil.Clamp((favFor/10+undFor/10)*25, bothScoreMin, bothScoreMax)
	underdogScores := mathutil.Clamp(undFor/5*15+favAgainst/5*10, underdogScoresMin, underdogScoresMax)

	return models.ProbabilityEstimate{
		models.FamilyFavoriteWin:           favoriteWin,
		models.FamilyDraw:                  draw,
		models.FamilyUnderdogWin:           underdogWin,
		models.FamilyUnder25:               under25,
		models.FamilyOver15:                over15,
		models.FamilyBothTeamsScore:        bothScore,
		models.FamilyUnderdogScores:        underdogScores,
		models.FamilyDrawOrUnderdog:        draw + underdogWin,
		models.FamilyUnder25FavoriteOrDraw: under25 * (favoriteWin + draw) / 100,
		models.FamilyOver15BothTeamsNo:     over15 * (100 - bothScore) / 100,
		models.FamilyExactZeroZero:         math.Max(exactZeroZeroFloor, (100-over15)*0.4),
		models.FamilyUnder15:               math.Max(under15Floor, under25*0.7),
		models.FamilyOver25NoDraw:          over15 * (100 - draw) / 100,
		models.FamilyNextGoalFavorite:      favoriteWin*0.6 + draw*0.3,
		models.FamilyFavoriteWinOneZero:    mathutil.Clamp(favoriteWin*0.25, oneZeroMin, oneZeroMax),
	}, nil
}
