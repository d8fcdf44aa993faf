// Package engine wires the catalog, portfolio, analyzers and hedge process
// of one betting session behind a single facade.
//
// An Engine is not safe for concurrent use; callers serving several users
// create one Engine per session.
package engine

import (
	"fmt"
	"math"

	"github.com/rewired-gh/matchhedge/internal/hedge"
	"github.com/rewired-gh/matchhedge/internal/logger"
	"github.com/rewired-gh/matchhedge/internal/market"
	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/planner"
	"github.com/rewired-gh/matchhedge/internal/probability"
	"github.com/rewired-gh/matchhedge/internal/scenario"
	"github.com/rewired-gh/matchhedge/internal/storage"
	"github.com/rewired-gh/matchhedge/internal/value"
)

const defaultGridMaxGoals = 4

// Options configures a new engine.
type Options struct {
	Bankroll     float64
	GridMaxGoals int
}

// Engine is one session's betting workspace.
type Engine struct {
	catalog      *market.Catalog
	portfolio    *models.Portfolio
	bankroll     float64
	gridMaxGoals int
	ops          *storage.Storage
	hedge        *hedge.Manager
}

// New creates an engine with a fresh portfolio and a private operation log.
func New(opts Options) (*Engine, error) {
	if err := checkBankroll(opts.Bankroll); err != nil {
		return nil, err
	}
	if opts.GridMaxGoals <= 0 {
		opts.GridMaxGoals = defaultGridMaxGoals
	}

	ops, err := storage.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to open operation log: %w", err)
	}

	c := market.NewCatalog()
	return &Engine{
		catalog:      c,
		portfolio:    c.NewPortfolio(),
		bankroll:     opts.Bankroll,
		gridMaxGoals: opts.GridMaxGoals,
		ops:          ops,
		hedge:        hedge.NewManager(ops),
	}, nil
}

// Close releases the operation log.
func (e *Engine) Close() error {
	return e.ops.Close()
}

// Catalog returns the market catalog.
func (e *Engine) Catalog() *market.Catalog { return e.catalog }

// Portfolio returns a copy of the current portfolio.
func (e *Engine) Portfolio() *models.Portfolio { return e.portfolio.Clone() }

// Bankroll returns the tracked bankroll.
func (e *Engine) Bankroll() float64 { return e.bankroll }

// TotalInvestment returns the raw sum of stakes.
func (e *Engine) TotalInvestment() float64 { return e.portfolio.TotalInvestment() }

// Reconciled reports whether the bankroll covers the staked total.
func (e *Engine) Reconciled() bool {
	return e.bankroll >= e.portfolio.TotalInvestment()
}

// SetBet replaces one market's stake and odds.
func (e *Engine) SetBet(bt models.BetType, stake, odds float64) error {
	if err := e.portfolio.Set(bt, stake, odds); err != nil {
		return err
	}
	e.checkReconciled()
	return nil
}

// SetBets replaces several markets at once; nothing changes if any bet is invalid.
func (e *Engine) SetBets(bets []models.Bet) error {
	next := e.portfolio.Clone()
	for _, b := range bets {
		if err := next.Set(b.Type, b.Stake, b.Odds); err != nil {
			return err
		}
	}
	e.portfolio = next
	e.checkReconciled()
	return nil
}

// SetBankroll changes the tracked bankroll.
func (e *Engine) SetBankroll(bankroll float64) error {
	if err := checkBankroll(bankroll); err != nil {
		return err
	}
	e.bankroll = bankroll
	e.checkReconciled()
	return nil
}

// ScaleToBankroll rescales every stake so the portfolio uses the whole bankroll.
func (e *Engine) ScaleToBankroll() error {
	return e.portfolio.ScaleTo(e.bankroll)
}

// PortfolioUpdate is a batch of portfolio changes applied together.
type PortfolioUpdate struct {
	Bankroll *float64
	Bets     []models.Bet
	Scale    bool
}

// UpdatePortfolio stages the bankroll, the bets and the optional rescale on
// a copy and commits them only when every step succeeds.
func (e *Engine) UpdatePortfolio(u PortfolioUpdate) error {
	bankroll := e.bankroll
	if u.Bankroll != nil {
		if err := checkBankroll(*u.Bankroll); err != nil {
			return err
		}
		bankroll = *u.Bankroll
	}
	next := e.portfolio.Clone()
	for _, b := range u.Bets {
		if err := next.Set(b.Type, b.Stake, b.Odds); err != nil {
			return err
		}
	}
	if u.Scale {
		if err := next.ScaleTo(bankroll); err != nil {
			return err
		}
	}
	e.portfolio = next
	e.bankroll = bankroll
	e.checkReconciled()
	return nil
}

// PresetAllocation scales a preset distribution to capital without touching
// the portfolio.
func (e *Engine) PresetAllocation(name models.PresetName, capital float64) (models.PresetAllocation, error) {
	return planner.ApplyPreset(name, capital)
}

// ApplyPreset replaces every stake with the preset's application stakes and
// sets the bankroll to the new total. Odds are kept.
func (e *Engine) ApplyPreset(name models.PresetName, capital float64) (models.PresetAllocation, error) {
	alloc, err := planner.ApplyPreset(name, capital)
	if err != nil {
		return models.PresetAllocation{}, err
	}
	next := e.portfolio.Clone()
	for _, bt := range models.BetTypes {
		if err := next.SetStake(bt, 0); err != nil {
			return models.PresetAllocation{}, err
		}
	}
	for bt, stake := range alloc.Stakes() {
		if err := next.SetStake(bt, stake); err != nil {
			return models.PresetAllocation{}, err
		}
	}
	e.portfolio = next
	e.bankroll = next.TotalInvestment()
	logger.Info("Applied preset %s: bankroll %.2f", name, e.bankroll)
	return alloc, nil
}

func checkBankroll(bankroll float64) error {
	if !(bankroll >= 0) || math.IsInf(bankroll, 1) {
		return fmt.Errorf("bankroll must be a finite non-negative amount, got %v", bankroll)
	}
	return nil
}

func (e *Engine) checkReconciled() {
	if !e.Reconciled() {
		logger.Warn("Total investment %.2f exceeds bankroll %.2f", e.portfolio.TotalInvestment(), e.bankroll)
	}
}

// Evaluate settles the portfolio against one outcome.
func (e *Engine) Evaluate(o models.Outcome) (models.ScenarioResult, error) {
	return scenario.Evaluate(e.catalog, e.portfolio, o)
}

// ReferenceProfits evaluates the canonical no-goal and first-scorer outcomes.
func (e *Engine) ReferenceProfits() map[string]float64 {
	return scenario.ReferenceProfits(e.catalog, e.portfolio)
}

// Coverage reports how many key outcomes the portfolio ends in profit.
func (e *Engine) Coverage() models.CoverageReport {
	return scenario.Coverage(e.catalog, e.portfolio)
}

// ScenarioGrid evaluates every final score up to the configured goal limit.
func (e *Engine) ScenarioGrid() ([]models.ScenarioResult, error) {
	return scenario.Grid(e.catalog, e.portfolio, e.gridMaxGoals)
}

// EstimateProbabilities scores outcome families from team form.
func (e *Engine) EstimateProbabilities(stats models.TeamStatistics) (models.ProbabilityEstimate, error) {
	return probability.Estimate(stats)
}

// AssessValue grades the staked bets against the estimate for stats.
func (e *Engine) AssessValue(stats models.TeamStatistics) (models.ValueReport, error) {
	est, err := probability.Estimate(stats)
	if err != nil {
		return models.ValueReport{}, err
	}
	return value.Assess(e.portfolio, est), nil
}

// BuildPlans builds every allocation plan for the tracked bankroll.
func (e *Engine) BuildPlans(stats models.TeamStatistics) (map[models.PlanName]models.AllocationPlan, error) {
	report, err := e.AssessValue(stats)
	if err != nil {
		return nil, err
	}
	return planner.Build(report, e.bankroll)
}

// HedgeRequest triggers a rebalance. Nil Profits uses the reference profits
// of the current portfolio; nil Exposure uses its total investment.
// A non-empty Strategy redistributes around that chosen scenario instead.
type HedgeRequest struct {
	Label    string               `json:"scenario_label"`
	Profits  map[string]float64   `json:"profits,omitempty"`
	Exposure *float64             `json:"total_exposure,omitempty"`
	Odds     map[string]float64   `json:"odds,omitempty"`
	Context  *models.MatchContext `json:"match_context,omitempty"`
	Strategy models.Strategy      `json:"strategy,omitempty"`
	Scorer   models.FirstScorer   `json:"one_one_scorer,omitempty"`
}

// AnalyzeHedge runs the rebalancer and logs a pending operation.
func (e *Engine) AnalyzeHedge(req HedgeRequest) (*models.Operation, error) {
	profits := req.Profits
	if profits == nil {
		profits = e.ReferenceProfits()
	}
	exposure := e.portfolio.TotalInvestment()
	if req.Exposure != nil {
		exposure = *req.Exposure
	}

	op, err := e.hedge.Analyze(hedge.Request{
		Label:    req.Label,
		Profits:  profits,
		Exposure: exposure,
		Odds:     req.Odds,
		Context:  req.Context,
		Strategy: req.Strategy,
		Scorer:   req.Scorer,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Hedge analysis %s: profile=%s exposure=%.2f", op.ID, op.RiskProfile, exposure)
	return op, nil
}

// ApplyHedge commits the pending hedge bets.
func (e *Engine) ApplyHedge() (*models.Operation, error) {
	op, err := e.hedge.Apply()
	if err != nil {
		return nil, err
	}
	logger.Info("Hedge operation %s executed with %d bets", op.ID, len(op.HedgeBets))
	return op, nil
}

// CancelHedge abandons the pending analysis.
func (e *Engine) CancelHedge() error {
	return e.hedge.Cancel()
}

// ContinueHedge resumes a logged operation; (nil, nil) means the id is unknown.
func (e *Engine) ContinueHedge(id string) (*models.Operation, error) {
	return e.hedge.Continue(id)
}

// HedgeState returns the hedging process state.
func (e *Engine) HedgeState() hedge.State { return e.hedge.State() }

// CurrentOperationID returns the operation the hedge process is on.
func (e *Engine) CurrentOperationID() string { return e.hedge.CurrentOperationID() }

// Operation returns a logged operation, or (nil, nil) when unknown.
func (e *Engine) Operation(id string) (*models.Operation, error) {
	return e.ops.GetOperation(id)
}

// RecentOperations lists up to n operations, newest first.
func (e *Engine) RecentOperations(n int) ([]*models.Operation, error) {
	return e.ops.ListRecent(n)
}

// AddNote appends a note; false means the id is unknown.
func (e *Engine) AddNote(id, text string) (bool, error) {
	return e.ops.AddNote(id, text)
}

// OperationCount returns the size of the operation log.
func (e *Engine) OperationCount() (int, error) {
	return e.ops.Count()
}
