package hedge

import (
	"errors"
	"fmt"

	"github.com/rewired-gh/matchhedge/internal/models"
)

// State is the position of the hedging process.
type State string

const (
	StateIdle          State = "idle"
	StateAnalysisReady State = "analysis_ready"
	StateApplied       State = "applied"
)

var (
	// ErrInvalidState is returned when a transition is not allowed from the current state.
	ErrInvalidState = errors.New("invalid hedge state for this action")
	// ErrNotResumable is returned when a logged operation cannot be continued.
	ErrNotResumable = errors.New("operation cannot be resumed")
	// ErrInvalidInput wraps every rejected profit, exposure, odds or context value.
	ErrInvalidInput = errors.New("invalid hedge input")
)

// OperationLog is the journal the manager records decisions in.
type OperationLog interface {
	StartOperation(label string, profits map[string]float64, exposure float64) (string, error)
	SavePlan(id string, analysis *models.RiskAnalysis) (bool, error)
	SaveHedgeBets(id string, bets []models.HedgeBet) (bool, error)
	AddNote(id, text string) (bool, error)
	CancelOperation(id string) (bool, error)
	GetOperation(id string) (*models.Operation, error)
}

// Request carries the inputs of one rebalance cycle.
type Request struct {
	Label    string
	Profits  map[string]float64
	Exposure float64
	Odds     map[string]float64
	Context  *models.MatchContext
	// Strategy, when set, replaces the volatility-driven rebalance with a
	// chosen-scenario redistribution. Scorer feeds the one-one strategy.
	Strategy models.Strategy
	Scorer   models.FirstScorer
}

// Manager drives one hedging process: Idle, then AnalysisReady once a plan
// is saved, then Applied once its bets are committed.
type Manager struct {
	log       OperationLog
	state     State
	currentID string
	analysis  *models.RiskAnalysis
}

// NewManager creates an idle manager writing to log.
func NewManager(log OperationLog) *Manager {
	return &Manager{log: log, state: StateIdle}
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// CurrentOperationID returns the operation being worked on, or "" when idle.
func (m *Manager) CurrentOperationID() string { return m.currentID }

// Analysis returns the pending or applied analysis, nil when idle.
func (m *Manager) Analysis() *models.RiskAnalysis { return m.analysis }

// Analyze builds a hedge plan and logs a new pending operation. Any earlier
// pending operation stays in the log untouched. If the plan cannot be fully
// recorded the new operation is cancelled.
func (m *Manager) Analyze(req Request) (*models.Operation, error) {
	analysis, err := plan(req)
	if err != nil {
		return nil, err
	}

	id, err := m.log.StartOperation(req.Label, req.Profits, req.Exposure)
	if err != nil {
		return nil, fmt.Errorf("failed to start operation: %w", err)
	}
	if _, err := m.log.SavePlan(id, &analysis); err != nil {
		return nil, m.abandon(id, fmt.Errorf("failed to save plan: %w", err))
	}
	if req.Context != nil {
		note := fmt.Sprintf("minute %d, score %d-%d, last event %s",
			req.Context.Minute, req.Context.FavoriteGoals, req.Context.UnderdogGoals, eventName(req.Context.LastEvent))
		if _, err := m.log.AddNote(id, note); err != nil {
			return nil, m.abandon(id, fmt.Errorf("failed to add note: %w", err))
		}
	}

	m.state = StateAnalysisReady
	m.currentID = id
	m.analysis = &analysis
	return m.log.GetOperation(id)
}

// Apply commits the pending analysis' hedge bets.
func (m *Manager) Apply() (*models.Operation, error) {
	if m.state != StateAnalysisReady {
		return nil, fmt.Errorf("apply from %s: %w", m.state, ErrInvalidState)
	}
	ok, err := m.log.SaveHedgeBets(m.currentID, m.analysis.Bets)
	if err != nil {
		return nil, fmt.Errorf("failed to save hedge bets: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("operation not found: %s", m.currentID)
	}
	m.state = StateApplied
	return m.log.GetOperation(m.currentID)
}

// Cancel abandons the pending analysis and returns to Idle.
func (m *Manager) Cancel() error {
	if m.state != StateAnalysisReady {
		return fmt.Errorf("cancel from %s: %w", m.state, ErrInvalidState)
	}
	if _, err := m.log.CancelOperation(m.currentID); err != nil {
		return fmt.Errorf("failed to cancel operation: %w", err)
	}
	m.reset()
	return nil
}

// Reset returns to Idle without touching the log.
func (m *Manager) Reset() { m.reset() }

// Continue resumes a logged operation. It returns (nil, nil) when the id is
// unknown so the caller can start a fresh analysis instead.
func (m *Manager) Continue(id string) (*models.Operation, error) {
	op, err := m.log.GetOperation(id)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, nil
	}

	switch {
	case op.Status == models.OperationPending && op.Analysis != nil:
		m.state = StateAnalysisReady
	case op.Status == models.OperationExecuted:
		m.state = StateApplied
	default:
		return nil, fmt.Errorf("operation %s is %s: %w", id, op.Status, ErrNotResumable)
	}
	m.currentID = op.ID
	m.analysis = op.Analysis
	if m.analysis == nil {
		m.analysis = &models.RiskAnalysis{Bets: op.HedgeBets}
	}
	return op, nil
}

func plan(req Request) (models.RiskAnalysis, error) {
	if req.Strategy == "" {
		return Rebalance(req.Profits, req.Exposure, req.Odds, req.Context)
	}
	if err := validateInputs(req.Profits, req.Exposure, req.Odds); err != nil {
		return models.RiskAnalysis{}, err
	}
	if req.Context != nil {
		if err := req.Context.Validate(); err != nil {
			return models.RiskAnalysis{}, invalid("match context: %v", err)
		}
	}
	return Redistribute(req.Strategy, req.Scorer, req.Profits, req.Odds)
}

// abandon cancels a half-written operation and returns cause.
func (m *Manager) abandon(id string, cause error) error {
	if _, err := m.log.CancelOperation(id); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to cancel operation %s: %w", id, err))
	}
	return cause
}

func (m *Manager) reset() {
	m.state = StateIdle
	m.currentID = ""
	m.analysis = nil
}

func eventName(e models.MatchEvent) models.MatchEvent {
	if e == "" {
		return models.EventNone
	}
	return e
}
