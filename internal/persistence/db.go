// Package persistence provides a SQLite report store. Rounds are written
// as they complete and are never read back to resume a run.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/circulation/internal/engine"
)

// DB wraps a SQLite connection for round reports.
type DB struct {
	conn *sqlx.DB
}

// Run is one simulation run.
type Run struct {
	ID        string    `db:"id"`
	Preset    string    `db:"preset"`
	Seed      int64     `db:"seed"`
	StartedAt time.Time `db:"started_at"`
}

// RoundRow is the aggregate record of one round.
type RoundRow struct {
	RunID             string  `db:"run_id"`
	Round             uint64  `db:"round"`
	LoanableFunds     float64 `db:"loanable_funds"`
	BorrowerDemand    float64 `db:"borrower_demand"`
	RepaymentDemand   float64 `db:"repayment_demand"`
	RepaymentSupply   float64 `db:"repayment_supply"`
	BorrowedVsDesired float64 `db:"borrowed_vs_desired"`
	SavingsVsDesired  float64 `db:"savings_vs_desired"`
	RepaymentVsDemand float64 `db:"repayment_vs_demand"`
	Degenerate        uint8   `db:"degenerate"`
	AggregateSupply   float64 `db:"aggregate_supply"`
	AggregateDemand   float64 `db:"aggregate_demand"`
	Price             float64 `db:"price"`
	TotalSavings      float64 `db:"total_savings"`
	TotalDebt         float64 `db:"total_debt"`
	Starving          int     `db:"starving"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		preset TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rounds (
		run_id TEXT NOT NULL REFERENCES runs(id),
		round INTEGER NOT NULL,
		loanable_funds REAL NOT NULL,
		borrower_demand REAL NOT NULL,
		repayment_demand REAL NOT NULL,
		repayment_supply REAL NOT NULL,
		borrowed_vs_desired REAL NOT NULL,
		savings_vs_desired REAL NOT NULL,
		repayment_vs_demand REAL NOT NULL,
		degenerate INTEGER NOT NULL,
		aggregate_supply REAL NOT NULL,
		aggregate_demand REAL NOT NULL,
		price REAL NOT NULL,
		total_savings REAL NOT NULL,
		total_debt REAL NOT NULL,
		starving INTEGER NOT NULL,
		PRIMARY KEY (run_id, round)
	);

	CREATE TABLE IF NOT EXISTS agent_rounds (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		income REAL NOT NULL,
		saved REAL NOT NULL,
		consumed REAL NOT NULL,
		borrowed REAL NOT NULL,
		repayment REAL NOT NULL,
		dissaved REAL NOT NULL,
		savings REAL NOT NULL,
		debt REAL NOT NULL,
		next_income REAL NOT NULL,
		cash REAL NOT NULL,
		health REAL NOT NULL,
		PRIMARY KEY (run_id, round, agent_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, round);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns it with a fresh ID.
func (db *DB) StartRun(preset string, seed int64) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Preset:    preset,
		Seed:      seed,
		StartedAt: time.Now().UTC(),
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO runs (id, preset, seed, started_at) VALUES (:id, :preset, :seed, :started_at)",
		run,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	slog.Info("report store run started", "run", run.ID, "preset", preset)
	return run, nil
}

// SaveRound writes the round aggregates and every agent's row.
func (db *DB) SaveRound(runID string, r *engine.RoundReport) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := RoundRow{
		RunID:             runID,
		Round:             r.Round,
		LoanableFunds:     r.Capital.LoanableFunds,
		BorrowerDemand:    r.Capital.BorrowerDemand,
		RepaymentDemand:   r.Capital.RepaymentDemand,
		RepaymentSupply:   r.Capital.RepaymentSupply,
		BorrowedVsDesired: r.Capital.BorrowedVsDesired,
		SavingsVsDesired:  r.Capital.SavingsVsDesired,
		RepaymentVsDemand: r.Capital.RepaymentVsDemand,
		Degenerate:        uint8(r.Capital.Degenerate),
		AggregateSupply:   r.Price.AggregateSupply,
		AggregateDemand:   r.Price.AggregateDemand,
		Price:             r.Price.Price,
		TotalSavings:      r.Stats.TotalSavings,
		TotalDebt:         r.Stats.TotalDebt,
		Starving:          r.Stats.Starving,
	}
	_, err = tx.NamedExec(`INSERT INTO rounds
		(run_id, round, loanable_funds, borrower_demand, repayment_demand, repayment_supply,
		 borrowed_vs_desired, savings_vs_desired, repayment_vs_demand, degenerate,
		 aggregate_supply, aggregate_demand, price, total_savings, total_debt, starving)
		VALUES (:run_id, :round, :loanable_funds, :borrower_demand, :repayment_demand, :repayment_supply,
		 :borrowed_vs_desired, :savings_vs_desired, :repayment_vs_demand, :degenerate,
		 :aggregate_supply, :aggregate_demand, :price, :total_savings, :total_debt, :starving)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("insert round %d: %w", r.Round, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO agent_rounds
		(run_id, round, agent_id, income, saved, consumed, borrowed, repayment, dissaved,
		 savings, debt, next_income, cash, health)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range r.Agents {
		_, err := stmt.Exec(
			runID, r.Round, a.ID,
			a.Income, a.SavedIncome, a.ConsumedIncome, a.BorrowedIncome,
			a.RepaymentIncome, a.DissavedIncome,
			a.Savings, a.Debt, a.NextIncome, a.Cash, a.Health,
		)
		if err != nil {
			return fmt.Errorf("insert agent %d round %d: %w", a.ID, r.Round, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, round, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Round, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(runID string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT id, preset, seed, started_at FROM runs WHERE id = ?", runID)
	return run, err
}

// RecentRounds returns the latest N rounds of a run, newest first.
func (db *DB) RecentRounds(runID string, limit int) ([]RoundRow, error) {
	var rows []RoundRow
	err := db.conn.Select(&rows,
		"SELECT * FROM rounds WHERE run_id = ? ORDER BY round DESC LIMIT ?",
		runID, limit,
	)
	return rows, err
}

// RecentEvents returns the most recent N events of a run.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT round, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// AgentRound is one agent's stored row.
type AgentRound struct {
	AgentID    uint64  `db:"agent_id"`
	Income     float64 `db:"income"`
	Saved      float64 `db:"saved"`
	Consumed   float64 `db:"consumed"`
	Borrowed   float64 `db:"borrowed"`
	Repayment  float64 `db:"repayment"`
	Dissaved   float64 `db:"dissaved"`
	Savings    float64 `db:"savings"`
	Debt       float64 `db:"debt"`
	NextIncome float64 `db:"next_income"`
}

// AgentRounds returns every agent's row for one round, by agent ID.
func (db *DB) AgentRounds(runID string, round uint64) ([]AgentRound, error) {
	var rows []AgentRound
	err := db.conn.Select(&rows,
		`SELECT agent_id, income, saved, consumed, borrowed, repayment, dissaved,
		        savings, debt, next_income
		 FROM agent_rounds WHERE run_id = ? AND round = ? ORDER BY agent_id`,
		runID, round,
	)
	return rows, err
}
