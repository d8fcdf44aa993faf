package hedge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/scenario"
)

func intPtr(v int) *int { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		volatility float64
		want       models.RiskProfile
	}{
		{0, models.RiskConservative},
		{4.99, models.RiskConservative},
		{5.0, models.RiskModerate},
		{14.99, models.RiskModerate},
		{15.0, models.RiskAggressive},
		{250, models.RiskAggressive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.volatility), "volatility %v", tt.volatility)
	}
}

func TestVolatility(t *testing.T) {
	assert.Zero(t, Volatility(nil))
	assert.Zero(t, Volatility(map[string]float64{"a": 3}))
	assert.InDelta(t, 7.5, Volatility(map[string]float64{"a": 3, "b": -4.5, "c": 0}), 1e-9)
}

func TestRebalance_ConservativeReferenceCase(t *testing.T) {
	profits := map[string]float64{
		scenario.NoGoal:        2.0,
		scenario.FavoriteFirst: -1.0,
		scenario.UnderdogFirst: -1.0,
	}
	got, err := Rebalance(profits, 10, nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, got.Volatility, 1e-9)
	assert.Equal(t, 1.0, got.ContextMultiplier)
	assert.Equal(t, models.RiskConservative, got.Profile)
	assert.InDelta(t, 1.4, got.KeptProfit, 1e-9)
	assert.InDelta(t, 2.0, got.HedgeBudget, 1e-9)
	// equal lows resolve alphabetically
	assert.Equal(t, scenario.FavoriteFirst, got.WeakestScenario)

	require.Len(t, got.Bets, 2)
	assert.Equal(t, MarketDoubleChanceX2, got.Bets[0].Market)
	assert.InDelta(t, 1.40, got.Bets[0].Stake, 1e-9)
	assert.Equal(t, 1.91, got.Bets[0].Odds)
	assert.Equal(t, models.RoleProtection, got.Bets[0].Role)
	assert.Equal(t, MarketUnder25, got.Bets[1].Market)
	assert.InDelta(t, 0.60, got.Bets[1].Stake, 1e-9)
	assert.Equal(t, 1.65, got.Bets[1].Odds)
}

func TestRebalance_KeptProfitShrinksWithRisk(t *testing.T) {
	cases := []struct {
		profits map[string]float64
		profile models.RiskProfile
		kept    float64
	}{
		{map[string]float64{"a": 10, "b": 8}, models.RiskConservative, 7},
		{map[string]float64{"a": 10, "b": 0}, models.RiskModerate, 5},
		{map[string]float64{"a": 10, "b": -10}, models.RiskAggressive, 1},
	}
	prev := 1e9
	for _, c := range cases {
		got, err := Rebalance(c.profits, 100, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, c.profile, got.Profile)
		assert.InDelta(t, c.kept, got.KeptProfit, 1e-9)
		assert.Less(t, got.KeptProfit, prev)
		prev = got.KeptProfit
	}

	got, err := Rebalance(map[string]float64{"a": -1, "b": -3}, 100, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, got.KeptProfit, "losses are never kept")
}

func TestRebalance_ProfileSlots(t *testing.T) {
	moderate, err := Rebalance(map[string]float64{scenario.NoGoal: -4, scenario.FavoriteFirst: 6}, 50, nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.RiskModerate, moderate.Profile)
	require.Len(t, moderate.Bets, 3)
	assert.Equal(t, MarketUnder05, moderate.Bets[0].Market)
	assert.Equal(t, MarketBTTSNo, moderate.Bets[1].Market)
	assert.Equal(t, MarketOver25, moderate.Bets[2].Market)
	assert.Equal(t, models.RoleOpportunity, moderate.Bets[2].Role)
	assert.InDelta(t, 15, moderate.HedgeBudget, 1e-9)
	assert.InDelta(t, 7.5, moderate.Bets[0].Stake, 1e-9)
	assert.InDelta(t, 4.5, moderate.Bets[1].Stake, 1e-9)
	assert.InDelta(t, 3.0, moderate.Bets[2].Stake, 1e-9)

	aggressive, err := Rebalance(map[string]float64{scenario.UnderdogFirst: -20, scenario.FavoriteFirst: 6}, 50, nil, nil)
	require.NoError(t, err)
	require.Equal(t, models.RiskAggressive, aggressive.Profile)
	require.Len(t, aggressive.Bets, 3)
	assert.Equal(t, MarketDoubleChance1X, aggressive.Bets[0].Market)
	assert.Equal(t, MarketOver25, aggressive.Bets[1].Market)
	assert.Equal(t, MarketUnderdogOver05, aggressive.Bets[2].Market)

	for _, a := range []models.RiskAnalysis{moderate, aggressive} {
		share := 0.0
		for _, b := range a.Bets {
			share += b.Share
			assert.NotEmpty(t, b.Description)
		}
		assert.InDelta(t, 1.0, share, 1e-9)
	}
}

func TestRebalance_ZeroExposure(t *testing.T) {
	got, err := Rebalance(map[string]float64{"a": 30, "b": -10}, 0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Bets)
	assert.NotNil(t, got.Bets)
	assert.Zero(t, got.KeptProfit)
	assert.Zero(t, got.HedgeBudget)
	assert.Equal(t, models.RiskAggressive, got.Profile)
}

func TestRebalance_Odds(t *testing.T) {
	profits := map[string]float64{scenario.NoGoal: 1, scenario.FavoriteFirst: 2}
	got, err := Rebalance(profits, 10, map[string]float64{MarketUnder05: 4.2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4.2, got.Bets[0].Odds)
	assert.Equal(t, DefaultOdds[MarketUnder25], got.Bets[1].Odds)

	_, err = Rebalance(profits, 10, map[string]float64{MarketUnder25: 1.0}, nil)
	assert.Error(t, err)
	_, err = Rebalance(profits, 10, map[string]float64{MarketUnder25: -2}, nil)
	assert.Error(t, err)
	_, err = Rebalance(profits, -5, nil, nil)
	assert.Error(t, err)
	_, err = Rebalance(profits, 10, map[string]float64{MarketUnder25: math.NaN()}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRebalance_RejectsNonFiniteInput(t *testing.T) {
	profits := map[string]float64{scenario.NoGoal: 1}
	for _, exposure := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, err := Rebalance(profits, exposure, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidInput, "exposure %v", exposure)
	}
	_, err := Rebalance(map[string]float64{scenario.NoGoal: math.Inf(-1)}, 10, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Rebalance(profits, 10, map[string]float64{MarketUnder25: math.Inf(1)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRebalance_OnlyStakesAreRoundedToCents(t *testing.T) {
	profits := map[string]float64{
		scenario.NoGoal:        0.123,
		scenario.FavoriteFirst: 0,
		scenario.UnderdogFirst: 0,
	}
	got, err := Rebalance(profits, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RiskConservative, got.Profile)
	assert.InDelta(t, 0.0861, got.KeptProfit, 1e-12)

	got, err = Rebalance(profits, 0.333, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0666, got.HedgeBudget, 1e-12)
	require.Len(t, got.Bets, 2)
	assert.Equal(t, 0.05, got.Bets[0].Stake)
	assert.Equal(t, 0.02, got.Bets[1].Stake)
}

func TestRebalance_UnknownWeakestFallsBackTo1X(t *testing.T) {
	got, err := Rebalance(map[string]float64{"custom": -2, scenario.NoGoal: 0}, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", got.WeakestScenario)
	assert.Equal(t, MarketDoubleChance1X, got.Bets[0].Market)
}

func TestRebalance_MatchContext(t *testing.T) {
	profits := map[string]float64{scenario.NoGoal: -1.5, scenario.FavoriteFirst: 3}

	calm, err := Rebalance(profits, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RiskConservative, calm.Profile)

	late := &models.MatchContext{Minute: 90, FavoriteGoals: 1, LastEvent: models.EventGoalFavorite, MinutesSinceGoal: intPtr(2)}
	got, err := Rebalance(profits, 10, nil, late)
	require.NoError(t, err)
	assert.InDelta(t, 1.3*1.25, got.ContextMultiplier, 1e-9)
	assert.InDelta(t, 4.5*1.3*1.25, got.AdjustedVolatility, 1e-9)
	assert.Equal(t, models.RiskModerate, got.Profile)
	assert.Equal(t, MarketNoMoreGoals, got.Bets[0].Market, "the match already has a goal")

	_, err = Rebalance(profits, 10, nil, &models.MatchContext{Minute: 130})
	assert.Error(t, err)
}

func TestContextMultiplier(t *testing.T) {
	tests := []struct {
		name string
		mc   models.MatchContext
		want float64
	}{
		{"kickoff", models.MatchContext{LastEvent: models.EventKickoff}, 1.0},
		{"full time", models.MatchContext{Minute: 90}, 1.3},
		{"extra time is capped", models.MatchContext{Minute: 120}, 1.3},
		{"recent goal", models.MatchContext{Minute: 45, UnderdogGoals: 1, LastEvent: models.EventGoalUnderdog, MinutesSinceGoal: intPtr(10)}, 1.15 * 1.25},
		{"stale goal", models.MatchContext{Minute: 45, UnderdogGoals: 1, LastEvent: models.EventGoalUnderdog, MinutesSinceGoal: intPtr(11)}, 1.15},
		{"goal without timing", models.MatchContext{Minute: 45, FavoriteGoals: 1, LastEvent: models.EventGoalFavorite}, 1.15},
		{"red card", models.MatchContext{Minute: 30, LastEvent: models.EventRedCard}, 1.1 * 1.15},
		{"half time", models.MatchContext{Minute: 45, LastEvent: models.EventHalfTime}, 1.15 * 0.9},
		{"settled scoreline", models.MatchContext{Minute: 60, FavoriteGoals: 0, UnderdogGoals: 2}, 1.2 * 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ContextMultiplier(tt.mc), 1e-9)
		})
	}
}
