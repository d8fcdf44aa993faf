// Package storage provides the SQLite-backed operation log for hedge decisions.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/matchhedge/internal/models"
	_ "modernc.org/sqlite"
)

// IDPrefix starts every operation id.
const IDPrefix = "OP_"

const idLayout = "20060102_150405.000000000"

// Storage wraps a SQLite database holding one session's operations.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the operation log. An empty dbPath keeps it in memory for the
// lifetime of the Storage.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single connection: an in-memory database lives and dies with it
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	s := &Storage{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			id              TEXT PRIMARY KEY,
			created_at      INTEGER NOT NULL,
			scenario_label  TEXT NOT NULL,
			profits_before  TEXT NOT NULL DEFAULT '{}',
			total_exposure  REAL NOT NULL DEFAULT 0,
			risk_profile    TEXT NOT NULL DEFAULT '',
			analysis        TEXT,
			hedge_bets      TEXT NOT NULL DEFAULT '[]',
			status          TEXT NOT NULL,
			notes           TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartOperation logs a new pending operation and returns its id.
// Ids come from the clock; two starts within one tick share an id and the
// later one wins.
func (s *Storage) StartOperation(label string, profits map[string]float64, exposure float64) (string, error) {
	if profits == nil {
		profits = map[string]float64{}
	}
	profitsJSON, err := json.Marshal(profits)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profits: %w", err)
	}

	now := s.now()
	id := IDPrefix + now.Format(idLayout)
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO operations
			(id, created_at, scenario_label, profits_before, total_exposure,
			 risk_profile, analysis, hedge_bets, status, notes)
		VALUES (?,?,?,?,?,'',NULL,'[]',?,'[]')`,
		id, now.UnixNano(), label, string(profitsJSON), exposure, string(models.OperationPending),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert operation: %w", err)
	}
	return id, nil
}

// SavePlan attaches the rebalancer analysis. Returns false for unknown ids.
func (s *Storage) SavePlan(id string, analysis *models.RiskAnalysis) (bool, error) {
	if analysis == nil {
		return false, fmt.Errorf("analysis must not be nil")
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return false, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return s.update(`UPDATE operations SET analysis=?, risk_profile=? WHERE id=?`,
		string(analysisJSON), string(analysis.Profile), id)
}

// SaveHedgeBets records the committed bets and marks the operation executed.
// Returns false for unknown ids.
func (s *Storage) SaveHedgeBets(id string, bets []models.HedgeBet) (bool, error) {
	if bets == nil {
		bets = []models.HedgeBet{}
	}
	betsJSON, err := json.Marshal(bets)
	if err != nil {
		return false, fmt.Errorf("failed to marshal hedge bets: %w", err)
	}
	return s.update(`UPDATE operations SET hedge_bets=?, status=? WHERE id=?`,
		string(betsJSON), string(models.OperationExecuted), id)
}

// CancelOperation marks the operation cancelled. Returns false for unknown ids.
func (s *Storage) CancelOperation(id string) (bool, error) {
	return s.update(`UPDATE operations SET status=? WHERE id=?`, string(models.OperationCancelled), id)
}

// AddNote appends a note. Returns false for unknown ids.
func (s *Storage) AddNote(id, text string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var notesJSON string
	err = tx.QueryRow(`SELECT notes FROM operations WHERE id = ?`, id).Scan(&notesJSON)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load notes: %w", err)
	}

	var notes []string
	if err := json.Unmarshal([]byte(notesJSON), &notes); err != nil {
		return false, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	notes = append(notes, text)
	updated, err := json.Marshal(notes)
	if err != nil {
		return false, fmt.Errorf("failed to marshal notes: %w", err)
	}
	if _, err := tx.Exec(`UPDATE operations SET notes=? WHERE id=?`, string(updated), id); err != nil {
		return false, fmt.Errorf("failed to save notes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit note: %w", err)
	}
	return true, nil
}

// GetOperation returns the operation, or (nil, nil) when the id is unknown.
func (s *Storage) GetOperation(id string) (*models.Operation, error) {
	row := s.db.QueryRow(`SELECT `+operationCols+` FROM operations WHERE id = ?`, id)
	op, err := scanOperation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// ListRecent returns up to n operations, newest first.
func (s *Storage) ListRecent(n int) ([]*models.Operation, error) {
	if n <= 0 {
		return []*models.Operation{}, nil
	}
	rows, err := s.db.Query(`SELECT `+operationCols+` FROM operations
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	ops := []*models.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Count returns the number of logged operations.
func (s *Storage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return n, nil
}

func (s *Storage) update(query string, args ...any) (bool, error) {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update operation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const operationCols = `id, created_at, scenario_label, profits_before, total_exposure,
	risk_profile, analysis, hedge_bets, status, notes`

func scanOperation(scan func(...any) error) (*models.Operation, error) {
	var op models.Operation
	var createdAtNano int64
	var profitsJSON, betsJSON, notesJSON, profile, status string
	var analysisJSON sql.NullString

	err := scan(
		&op.ID, &createdAtNano, &op.ScenarioLabel, &profitsJSON, &op.TotalExposure,
		&profile, &analysisJSON, &betsJSON, &status, &notesJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(profitsJSON), &op.ProfitsBefore); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profits: %w", err)
	}
	if err := json.Unmarshal([]byte(betsJSON), &op.HedgeBets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hedge bets: %w", err)
	}
	if err := json.Unmarshal([]byte(notesJSON), &op.Notes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	if analysisJSON.Valid {
		var a models.RiskAnalysis
		if err := json.Unmarshal([]byte(analysisJSON.String), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		op.Analysis = &a
	}

	op.Timestamp = time.Unix(0, createdAtNano)
	op.RiskProfile = models.RiskProfile(profile)
	op.Status = models.OperationStatus(status)
	return &op, nil
}
