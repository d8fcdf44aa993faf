package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/matchhedge/internal/hedge"
	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/scenario"
)

func newTestEngine(t *testing.T, bankroll float64) *Engine {
	t.Helper()
	e, err := New(Options{Bankroll: bankroll})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func typicalStats() models.TeamStatistics {
	return models.TeamStatistics{
		Favorite: models.TeamForm{WinsLast5: 3, GoalsForLast5: 8, GoalsAgainstLast5: 3},
		Underdog: models.TeamForm{WinsLast5: 1, GoalsForLast5: 4, GoalsAgainstLast5: 10},
	}
}

func TestNew_RejectsNegativeBankroll(t *testing.T) {
	_, err := New(Options{Bankroll: -1})
	assert.Error(t, err)
}

func TestEngine_WorkedExample(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.SetBet(models.ExactZeroZero, 1, 7.89))
	require.NoError(t, e.SetBet(models.FavoriteWin, 1, 1.80))

	res, err := e.Evaluate(models.Outcome{})
	require.NoError(t, err)
	assert.InDelta(t, 5.89, res.Profit, 1e-9)
	assert.InDelta(t, 294.5, res.ROI, 1e-9)
	assert.Equal(t, []models.BetType{models.ExactZeroZero}, res.WinningBets)
}

func TestEngine_SetBetsIsAllOrNothing(t *testing.T) {
	e := newTestEngine(t, 10)
	err := e.SetBets([]models.Bet{
		{Type: models.FavoriteWin, Stake: 2, Odds: 1.8},
		{Type: models.Over15, Stake: 1, Odds: 1.0},
	})
	assert.Error(t, err)
	assert.Zero(t, e.TotalInvestment())

	require.NoError(t, e.SetBets([]models.Bet{
		{Type: models.FavoriteWin, Stake: 2, Odds: 1.8},
		{Type: models.Over15, Stake: 1, Odds: 1.3},
	}))
	assert.InDelta(t, 3, e.TotalInvestment(), 1e-9)
}

func TestEngine_Bankroll(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.SetBet(models.FavoriteWin, 3, 1.8))
	assert.False(t, e.Reconciled(), "over-staking is reported, not rejected")

	require.NoError(t, e.SetBankroll(6))
	assert.True(t, e.Reconciled())
	assert.Error(t, e.SetBankroll(-1))

	require.NoError(t, e.ScaleToBankroll())
	assert.InDelta(t, 6, e.TotalInvestment(), 1e-9)
}

func TestEngine_SetBankrollRejectsNonFinite(t *testing.T) {
	e := newTestEngine(t, 5)
	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		assert.Error(t, e.SetBankroll(v))
	}
	assert.Equal(t, 5.0, e.Bankroll())
	_, err := New(Options{Bankroll: math.NaN()})
	assert.Error(t, err)
}

func TestEngine_UpdatePortfolioIsAllOrNothing(t *testing.T) {
	e := newTestEngine(t, 5)
	require.NoError(t, e.SetBet(models.FavoriteWin, 1, 1.8))

	bankroll := 50.0
	err := e.UpdatePortfolio(PortfolioUpdate{
		Bankroll: &bankroll,
		Bets:     []models.Bet{{Type: models.Over15, Stake: 1, Odds: 0.9}},
		Scale:    true,
	})
	assert.Error(t, err)
	assert.Equal(t, 5.0, e.Bankroll())
	assert.InDelta(t, 1, e.TotalInvestment(), 1e-9)

	require.NoError(t, e.UpdatePortfolio(PortfolioUpdate{
		Bankroll: &bankroll,
		Bets:     []models.Bet{{Type: models.Over15, Stake: 1, Odds: 1.3}},
		Scale:    true,
	}))
	assert.Equal(t, 50.0, e.Bankroll())
	assert.InDelta(t, 50, e.TotalInvestment(), 1e-9)
	fav, _ := e.Portfolio().Get(models.FavoriteWin)
	assert.InDelta(t, 25, fav.Stake, 1e-9)
}

func TestEngine_ApplyPreset(t *testing.T) {
	e := newTestEngine(t, 5)
	require.NoError(t, e.SetBet(models.ExactOneOne, 3, 6.5))

	alloc, err := e.ApplyPreset(models.PresetAggressive3W1L, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, alloc.TotalStake)
	assert.InDelta(t, 20, e.Bankroll(), 1e-9)
	assert.InDelta(t, 20, e.TotalInvestment(), 1e-9)

	p := e.Portfolio()
	oneOne, _ := p.Get(models.ExactOneOne)
	assert.Zero(t, oneOne.Stake, "stakes outside the preset are cleared")
	fav, _ := p.Get(models.FavoriteWin)
	assert.Equal(t, 3.6, fav.Stake)
	assert.Equal(t, 1.80, fav.Odds, "odds are kept")

	_, err = e.ApplyPreset("unknown", 20)
	assert.Error(t, err)
	assert.InDelta(t, 20, e.TotalInvestment(), 1e-9)
}

func TestEngine_PresetAllocationDoesNotApply(t *testing.T) {
	e := newTestEngine(t, 5)
	alloc, err := e.PresetAllocation(models.PresetReferenceOptimized, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, alloc.TotalStake)
	assert.Zero(t, e.TotalInvestment())
	assert.Equal(t, 5.0, e.Bankroll())
}

func TestEngine_Coverage(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.SetBet(models.ExactOneOne, 1, 6.5))
	got := e.Coverage()
	assert.Equal(t, 2, got.Profitable)
	assert.InDelta(t, 40, got.Efficiency, 1e-9)
}

func TestEngine_PortfolioIsACopy(t *testing.T) {
	e := newTestEngine(t, 10)
	p := e.Portfolio()
	require.NoError(t, p.SetStake(models.FavoriteWin, 5))
	assert.Zero(t, e.TotalInvestment())
}

func TestEngine_AnalysisPipeline(t *testing.T) {
	e := newTestEngine(t, 100)
	require.NoError(t, e.SetBet(models.ExactZeroZero, 2, 7.89))
	require.NoError(t, e.SetBet(models.FavoriteWin, 10, 1.80))

	est, err := e.EstimateProbabilities(typicalStats())
	require.NoError(t, err)
	assert.InDelta(t, 58.2, est[models.FamilyFavoriteWin], 1e-9)

	report, err := e.AssessValue(typicalStats())
	require.NoError(t, err)
	assert.Len(t, report.Assessments, 2)

	plans, err := e.BuildPlans(typicalStats())
	require.NoError(t, err)
	assert.InDelta(t, 60, plans[models.PlanConservative].BankrollUtilization, 1e-9)
	assert.InDelta(t, 12, plans[models.PlanCurrent].TotalStake, 1e-9)

	_, err = e.BuildPlans(models.TeamStatistics{Favorite: models.TeamForm{WinsLast5: 9}})
	assert.Error(t, err)
}

func TestEngine_ScenarioGrid(t *testing.T) {
	e, err := New(Options{GridMaxGoals: 2})
	require.NoError(t, err)
	defer e.Close()

	grid, err := e.ScenarioGrid()
	require.NoError(t, err)
	assert.Len(t, grid, 9)
}

func TestEngine_HedgeLifecycle(t *testing.T) {
	e := newTestEngine(t, 20)
	require.NoError(t, e.SetBet(models.ExactZeroZero, 1, 7.89))
	require.NoError(t, e.SetBet(models.NextGoalFavorite, 1, 1.91))
	require.NoError(t, e.SetBet(models.ExactOneOne, 1, 6.5))

	profits := e.ReferenceProfits()
	require.Len(t, profits, 3)

	op, err := e.AnalyzeHedge(HedgeRequest{Label: "half time"})
	require.NoError(t, err)
	assert.Equal(t, hedge.StateAnalysisReady, e.HedgeState())
	assert.Equal(t, op.ID, e.CurrentOperationID())
	assert.InDelta(t, 3, op.TotalExposure, 1e-9)
	assert.Equal(t, profits, op.ProfitsBefore)
	// underdog first is the weakest reference outcome
	require.NotNil(t, op.Analysis)
	assert.Equal(t, scenario.UnderdogFirst, op.Analysis.WeakestScenario)

	ok, err := e.AddNote(op.ID, "waiting for live odds")
	require.NoError(t, err)
	assert.True(t, ok)

	applied, err := e.ApplyHedge()
	require.NoError(t, err)
	assert.Equal(t, models.OperationExecuted, applied.Status)
	assert.NotEmpty(t, applied.HedgeBets)
	assert.Equal(t, []string{"waiting for live odds"}, applied.Notes)

	got, err := e.Operation(op.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationExecuted, got.Status)

	missing, err := e.Operation("OP_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEngine_HedgeExplicitInputs(t *testing.T) {
	e := newTestEngine(t, 20)
	exposure := 10.0
	op, err := e.AnalyzeHedge(HedgeRequest{
		Label: "manual",
		Profits: map[string]float64{
			scenario.NoGoal:        2,
			scenario.FavoriteFirst: -1,
			scenario.UnderdogFirst: -1,
		},
		Exposure: &exposure,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RiskConservative, op.RiskProfile)
	assert.InDelta(t, 1.4, op.Analysis.KeptProfit, 1e-9)

	require.NoError(t, e.CancelHedge())
	assert.Equal(t, hedge.StateIdle, e.HedgeState())

	resumed, err := e.ContinueHedge("OP_missing")
	require.NoError(t, err)
	assert.Nil(t, resumed)
}

func TestEngine_HedgeRejectsOverflowingExposure(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.SetBets([]models.Bet{
		{Type: models.FavoriteWin, Stake: 1e308, Odds: 1.8},
		{Type: models.Over15, Stake: 1e308, Odds: 1.3},
	}))
	require.True(t, math.IsInf(e.TotalInvestment(), 1))

	_, err := e.AnalyzeHedge(HedgeRequest{
		Profits: map[string]float64{scenario.NoGoal: 1, scenario.FavoriteFirst: 1, scenario.UnderdogFirst: 1},
	})
	assert.ErrorIs(t, err, hedge.ErrInvalidInput)

	_, err = e.AnalyzeHedge(HedgeRequest{})
	assert.ErrorIs(t, err, hedge.ErrInvalidInput)
	assert.Equal(t, hedge.StateIdle, e.HedgeState())
	assert.Error(t, e.ScaleToBankroll())
}

func TestEngine_HedgeWithStrategy(t *testing.T) {
	e := newTestEngine(t, 10)
	require.NoError(t, e.SetBet(models.ExactZeroZero, 2, 7.89))

	op, err := e.AnalyzeHedge(HedgeRequest{Label: "nil-nil", Strategy: models.StrategyZeroZero})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyZeroZero, op.Analysis.Strategy)
	// 0-0 profit 13.78: 80% reinvested, 20% kept
	assert.InDelta(t, 11.024, op.Analysis.HedgeBudget, 1e-9)
	assert.InDelta(t, 2.756, op.Analysis.KeptProfit, 1e-9)
	require.NoError(t, e.CancelHedge())

	_, err = e.AnalyzeHedge(HedgeRequest{Strategy: models.StrategyOneOne, Scorer: models.FirstScorerUnderdog})
	require.NoError(t, err)
}

func TestEngine_OperationsAreIsolatedPerEngine(t *testing.T) {
	a := newTestEngine(t, 10)
	b := newTestEngine(t, 10)

	op, err := a.AnalyzeHedge(HedgeRequest{Label: "a"})
	require.NoError(t, err)

	n, err := b.OperationCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	got, err := b.Operation(op.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	recent, err := a.RecentOperations(5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, op.ID, recent[0].ID)
}
