// Package api exposes betting sessions over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rewired-gh/matchhedge/internal/engine"
	"github.com/rewired-gh/matchhedge/internal/hedge"
	"github.com/rewired-gh/matchhedge/internal/logger"
	"github.com/rewired-gh/matchhedge/internal/models"
	"github.com/rewired-gh/matchhedge/internal/planner"
)

// Notifier is told about executed hedge operations.
type Notifier interface {
	SendOperation(op *models.Operation) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	sessions    *Registry
	notifier    Notifier
	recentLimit int
	notifyAsync bool
}

// NewHandler creates a handler. notifier may be nil.
func NewHandler(sessions *Registry, notifier Notifier, recentLimit int) *Handler {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &Handler{
		sessions:    sessions,
		notifier:    notifier,
		recentLimit: recentLimit,
		notifyAsync: true,
	}
}

type createSessionRequest struct {
	Bankroll *float64 `json:"bankroll,omitempty"`
}

type portfolioRequest struct {
	Bets            []models.Bet `json:"bets"`
	Bankroll        *float64     `json:"bankroll,omitempty"`
	ScaleToBankroll bool         `json:"scale_to_bankroll,omitempty"`
}

type portfolioResponse struct {
	Bets            []models.Bet `json:"bets"`
	TotalInvestment float64      `json:"total_investment"`
	Bankroll        float64      `json:"bankroll"`
	Reconciled      bool         `json:"reconciled"`
}

type valueResponse struct {
	Assessments []models.ValueAssessment `json:"assessments"`
	Summary     models.PortfolioSummary  `json:"summary"`
}

type hedgeResponse struct {
	State       hedge.State          `json:"state"`
	OperationID string               `json:"operation_id,omitempty"`
	Operation   *models.Operation    `json:"operation,omitempty"`
	Summary     *models.HedgeSummary `json:"summary,omitempty"`
}

type noteRequest struct {
	Text string `json:"text"`
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "matchhedge",
		"sessions": h.sessions.Len(),
	})
}

// CreateSession opens a new engine.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	// the body is optional
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	id, e, err := h.sessions.Create(req.Bankroll)
	if errors.Is(err, ErrTooManySessions) {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Info("Session %s created with bankroll %.2f", id, e.Bankroll())
	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"bankroll":   e.Bankroll(),
	})
}

// DeleteSession closes an engine.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Delete(id) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	logger.Info("Session %s closed", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	respondJSON(w, http.StatusOK, portfolioOf(e))
}

func (h *Handler) putPortfolio(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var req portfolioRequest
	if !decode(w, r, &req) {
		return
	}
	err := e.UpdatePortfolio(engine.PortfolioUpdate{
		Bankroll: req.Bankroll,
		Bets:     req.Bets,
		Scale:    req.ScaleToBankroll,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, portfolioOf(e))
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var o models.Outcome
	if !decode(w, r, &o) {
		return
	}
	res, err := e.Evaluate(o)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) referenceProfits(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	respondJSON(w, http.StatusOK, e.ReferenceProfits())
}

func (h *Handler) scenarios(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	grid, err := e.ScenarioGrid()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, grid)
}

func (h *Handler) probabilities(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var stats models.TeamStatistics
	if !decode(w, r, &stats) {
		return
	}
	est, err := e.EstimateProbabilities(stats)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func (h *Handler) value(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var stats models.TeamStatistics
	if !decode(w, r, &stats) {
		return
	}
	report, err := e.AssessValue(stats)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, valueResponse{Assessments: report.Ordered(), Summary: report.Summary})
}

func (h *Handler) plans(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var stats models.TeamStatistics
	if !decode(w, r, &stats) {
		return
	}
	plans, err := e.BuildPlans(stats)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ordered := make([]models.AllocationPlan, 0, len(plans))
	for _, name := range planner.Names {
		ordered = append(ordered, plans[name])
	}
	respondJSON(w, http.StatusOK, ordered)
}

func (h *Handler) coverage(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	respondJSON(w, http.StatusOK, e.Coverage())
}

type presetRequest struct {
	Capital *float64 `json:"capital,omitempty"`
}

type presetResponse struct {
	models.PresetAllocation
	Portfolio *portfolioResponse `json:"portfolio,omitempty"`
}

func (h *Handler) listPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, planner.PresetNames)
}

func (h *Handler) previewPreset(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	capital := planner.DefaultPresetCapital
	if raw := r.URL.Query().Get("capital"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "capital must be a number")
			return
		}
		capital = v
	}
	alloc, err := e.PresetAllocation(models.PresetName(chi.URLParam(r, "preset")), capital)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, presetResponse{PresetAllocation: alloc})
}

func (h *Handler) applyPreset(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	capital := planner.DefaultPresetCapital
	if req.Capital != nil {
		capital = *req.Capital
	}
	alloc, err := e.ApplyPreset(models.PresetName(chi.URLParam(r, "preset")), capital)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := portfolioOf(e)
	respondJSON(w, http.StatusOK, presetResponse{PresetAllocation: alloc, Portfolio: &p})
}

func (h *Handler) hedgeStatus(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	respondJSON(w, http.StatusOK, hedgeResponse{State: e.HedgeState(), OperationID: e.CurrentOperationID()})
}

func (h *Handler) hedgeAnalyze(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var req engine.HedgeRequest
	if !decode(w, r, &req) {
		return
	}
	op, err := e.AnalyzeHedge(req)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, hedgeResponseOf(e, op))
}

func (h *Handler) hedgeApply(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	op, err := e.ApplyHedge()
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	h.notify(op)
	respondJSON(w, http.StatusOK, hedgeResponseOf(e, op))
}

func (h *Handler) hedgeCancel(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	if err := e.CancelHedge(); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, hedgeResponse{State: e.HedgeState()})
}

func (h *Handler) hedgeContinue(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	op, err := e.ContinueHedge(chi.URLParam(r, "operationID"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if op == nil {
		respondError(w, http.StatusNotFound, "operation not found")
		return
	}
	respondJSON(w, http.StatusOK, hedgeResponseOf(e, op))
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	limit := h.recentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	ops, err := e.RecentOperations(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ops)
}

func (h *Handler) getOperation(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	op, err := e.Operation(chi.URLParam(r, "operationID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if op == nil {
		respondError(w, http.StatusNotFound, "operation not found")
		return
	}
	respondJSON(w, http.StatusOK, op)
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	id := chi.URLParam(r, "operationID")
	ok, err := e.AddNote(id, req.Text)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "operation not found")
		return
	}
	op, err := e.Operation(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, op)
}

// withSession resolves the session and holds its lock for the request.
func (h *Handler) withSession(fn func(http.ResponseWriter, *http.Request, *engine.Engine)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.sessions.get(chi.URLParam(r, "sessionID"))
		if !ok {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		fn(w, r, s.engine)
	}
}

func (h *Handler) notify(op *models.Operation) {
	if h.notifier == nil {
		return
	}
	send := func() {
		if err := h.notifier.SendOperation(op); err != nil {
			logger.Warn("Failed to send notification for %s: %v", op.ID, err)
		}
	}
	if h.notifyAsync {
		go send()
		return
	}
	send()
}

func portfolioOf(e *engine.Engine) portfolioResponse {
	return portfolioResponse{
		Bets:            e.Portfolio().Bets(),
		TotalInvestment: e.TotalInvestment(),
		Bankroll:        e.Bankroll(),
		Reconciled:      e.Reconciled(),
	}
}

func hedgeResponseOf(e *engine.Engine, op *models.Operation) hedgeResponse {
	resp := hedgeResponse{State: e.HedgeState(), OperationID: op.ID, Operation: op}
	if op.Analysis != nil {
		s := op.Analysis.Summary()
		resp.Summary = &s
	}
	return resp
}

// statusFor maps hedge process errors; anything that is neither a state
// conflict nor bad input failed on our side.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hedge.ErrInvalidState), errors.Is(err, hedge.ErrNotResumable):
		return http.StatusConflict
	case errors.Is(err, hedge.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
