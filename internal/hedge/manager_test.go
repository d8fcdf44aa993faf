package hedge

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/scenario"
)

// memLog is a map-backed OperationLog.
type memLog struct {
	ops      map[string]*models.Operation
	next     int
	fail     error
	failPlan error
	failNote error
}

func newMemLog() *memLog {
	return &memLog{ops: make(map[string]*models.Operation)}
}

func (l *memLog) StartOperation(label string, profits map[string]float64, exposure float64) (string, error) {
	if l.fail != nil {
		return "", l.fail
	}
	l.next++
	id := fmt.Sprintf("OP_%d", l.next)
	l.ops[id] = &models.Operation{
		ID:            id,
		Timestamp:     time.Unix(int64(l.next), 0),
		ScenarioLabel: label,
		ProfitsBefore: profits,
		TotalExposure: exposure,
		HedgeBets:     []models.HedgeBet{},
		Status:        models.OperationPending,
		Notes:         []string{},
	}
	return id, nil
}

func (l *memLog) SavePlan(id string, analysis *models.RiskAnalysis) (bool, error) {
	if l.failPlan != nil {
		return false, l.failPlan
	}
	op, ok := l.ops[id]
	if !ok {
		return false, nil
	}
	op.Analysis = analysis
	op.RiskProfile = analysis.Profile
	return true, nil
}

func (l *memLog) SaveHedgeBets(id string, bets []models.HedgeBet) (bool, error) {
	op, ok := l.ops[id]
	if !ok {
		return false, nil
	}
	op.HedgeBets = bets
	op.Status = models.OperationExecuted
	return true, nil
}

func (l *memLog) AddNote(id, text string) (bool, error) {
	if l.failNote != nil {
		return false, l.failNote
	}
	op, ok := l.ops[id]
	if !ok {
		return false, nil
	}
	op.Notes = append(op.Notes, text)
	return true, nil
}

func (l *memLog) CancelOperation(id string) (bool, error) {
	op, ok := l.ops[id]
	if !ok {
		return false, nil
	}
	op.Status = models.OperationCancelled
	return true, nil
}

func (l *memLog) GetOperation(id string) (*models.Operation, error) {
	op, ok := l.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func referenceRequest() Request {
	return Request{
		Label: "favorite scores first",
		Profits: map[string]float64{
			scenario.NoGoal:        2.0,
			scenario.FavoriteFirst: -1.0,
			scenario.UnderdogFirst: -1.0,
		},
		Exposure: 10,
	}
}

func TestManager_AnalyzeApply(t *testing.T) {
	log := newMemLog()
	m := NewManager(log)
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.CurrentOperationID())

	op, err := m.Analyze(referenceRequest())
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, StateAnalysisReady, m.State())
	assert.Equal(t, op.ID, m.CurrentOperationID())
	assert.Equal(t, models.OperationPending, op.Status)
	assert.Equal(t, models.RiskConservative, op.RiskProfile)
	assert.Empty(t, op.HedgeBets)
	assert.Empty(t, op.Notes, "no match context, no note")

	op, err = m.Apply()
	require.NoError(t, err)
	assert.Equal(t, StateApplied, m.State())
	assert.Equal(t, models.OperationExecuted, op.Status)
	assert.Len(t, op.HedgeBets, 2)

	_, err = m.Apply()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, m.Cancel(), ErrInvalidState)
}

func TestManager_AnalyzeRecordsContext(t *testing.T) {
	m := NewManager(newMemLog())
	req := referenceRequest()
	req.Context = &models.MatchContext{Minute: 67, FavoriteGoals: 1, LastEvent: models.EventGoalFavorite}

	op, err := m.Analyze(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"minute 67, score 1-0, last event goal_favorite"}, op.Notes)
}

func TestManager_AnalyzeValidatesBeforeLogging(t *testing.T) {
	log := newMemLog()
	m := NewManager(log)
	req := referenceRequest()
	req.Odds = map[string]float64{MarketUnder25: 0.9}

	_, err := m.Analyze(req)
	assert.Error(t, err)
	assert.Empty(t, log.ops)
	assert.Equal(t, StateIdle, m.State())

	assert.ErrorIs(t, err, ErrInvalidInput)

	log.fail = errors.New("disk full")
	_, err = m.Analyze(referenceRequest())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, StateIdle, m.State())
}

func TestManager_AnalyzeCancelsHalfWrittenOperation(t *testing.T) {
	log := newMemLog()
	log.failPlan = errors.New("disk full")
	m := NewManager(log)

	_, err := m.Analyze(referenceRequest())
	require.Error(t, err)
	assert.Equal(t, StateIdle, m.State())
	require.Len(t, log.ops, 1)
	for _, op := range log.ops {
		assert.Equal(t, models.OperationCancelled, op.Status)
		assert.Nil(t, op.Analysis)
	}

	log.failPlan = nil
	log.failNote = errors.New("disk full")
	req := referenceRequest()
	req.Context = &models.MatchContext{Minute: 10}
	_, err = m.Analyze(req)
	require.Error(t, err)
	assert.Equal(t, StateIdle, m.State())
	for _, op := range log.ops {
		assert.Equal(t, models.OperationCancelled, op.Status)
	}
}

func TestManager_AnalyzeWithStrategy(t *testing.T) {
	log := newMemLog()
	m := NewManager(log)
	req := referenceRequest()
	req.Strategy = models.StrategyFavoriteGoal

	op, err := m.Analyze(req)
	require.NoError(t, err)
	require.NotNil(t, op.Analysis)
	assert.Equal(t, models.StrategyFavoriteGoal, op.Analysis.Strategy)
	require.Len(t, op.Analysis.Bets, 3)
	assert.Equal(t, MarketNoMoreGoals, op.Analysis.Bets[0].Market)

	req.Strategy = models.StrategyOneOne
	_, err = m.Analyze(req)
	assert.ErrorIs(t, err, ErrInvalidInput, "one-one needs a scorer")

	req.Scorer = models.FirstScorerUnderdog
	req.Exposure = math.Inf(1)
	_, err = m.Analyze(req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestManager_Cancel(t *testing.T) {
	log := newMemLog()
	m := NewManager(log)
	assert.ErrorIs(t, m.Cancel(), ErrInvalidState)

	op, err := m.Analyze(referenceRequest())
	require.NoError(t, err)
	require.NoError(t, m.Cancel())
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Analysis())
	assert.Equal(t, models.OperationCancelled, log.ops[op.ID].Status)

	_, err = m.Apply()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestManager_Continue(t *testing.T) {
	log := newMemLog()
	first := NewManager(log)
	pending, err := first.Analyze(referenceRequest())
	require.NoError(t, err)

	resumed := NewManager(log)
	op, err := resumed.Continue(pending.ID)
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, StateAnalysisReady, resumed.State())
	applied, err := resumed.Apply()
	require.NoError(t, err)
	assert.Equal(t, models.OperationExecuted, applied.Status)

	again := NewManager(log)
	_, err = again.Continue(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StateApplied, again.State())
	assert.Len(t, again.Analysis().Bets, 2)

	op, err = again.Continue("OP_missing")
	require.NoError(t, err)
	assert.Nil(t, op)
	assert.Equal(t, StateApplied, again.State(), "a miss leaves the manager alone")

	cancelled := NewManager(log)
	second, err := cancelled.Analyze(referenceRequest())
	require.NoError(t, err)
	require.NoError(t, cancelled.Cancel())
	_, err = NewManager(log).Continue(second.ID)
	assert.ErrorIs(t, err, ErrNotResumable)
}
