package hedge

import "github.com/rewired-gh/matchhedge/internal/models"

// Match-context volatility adjustments.
const (
	timeWeight        = 0.3
	regulationMinutes = 90
	recentGoalWindow  = 10
	recentGoalFactor  = 1.25
	redCardFactor     = 1.15
	halfTimeFactor    = 0.9
	settledGoalGap    = 2
	settledFactor     = 0.8
)

// ContextMultiplier scales raw volatility for the live match state.
// Later minutes and a fresh goal raise it; half time and a two-goal lead lower it.
func ContextMultiplier(mc models.MatchContext) float64 {
	minute := mc.Minute
	if minute > regulationMinutes {
		minute = regulationMinutes
	}
	m := 1 + timeWeight*float64(minute)/regulationMinutes

	switch mc.LastEvent {
	case models.EventGoalFavorite, models.EventGoalUnderdog:
		if mc.MinutesSinceGoal != nil && *mc.MinutesSinceGoal <= recentGoalWindow {
			m *= recentGoalFactor
		}
	case models.EventRedCard:
		m *= redCardFactor
	case models.EventHalfTime:
		m *= halfTimeFactor
	}

	gap := mc.FavoriteGoals - mc.UnderdogGoals
	if gap < 0 {
		gap = -gap
	}
	if gap >= settledGoalGap {
		m *= settledFactor
	}
	return m
}
