/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores everything the planning service needs between requests: revenue
  targets and role configs per billing period, an audit trail of plan
  runs, and submitted worklogs. The worklogs table doubles as a
  tracker.WorklogSource/WorklogWriter implementation, so hours submitted
  through the API count as existing capacity on subsequent runs.

KEY TABLES:
  period_settings:  Target revenue + role configs, keyed by YYYY-MM
  plan_runs:        One row per allocator/distributor invocation (audit)
  worklogs:         Submitted schedule entries

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control would handle this instead.

USAGE:
  store, err := sqlite.New("./data/plans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - tracker: Interface definitions this store implements
  - api: Handlers reading and writing through this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/worklog-engine/planning"
	"github.com/warp/worklog-engine/tracker"
)

// Store implements the persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Revenue target and role configs per billing period
	CREATE TABLE IF NOT EXISTS period_settings (
		period TEXT PRIMARY KEY,
		target_revenue TEXT NOT NULL,
		roles_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Audit trail: one row per plan computation
	CREATE TABLE IF NOT EXISTS plan_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		period TEXT,
		seed INTEGER NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		params_json TEXT,
		entry_count INTEGER NOT NULL,
		overflow_count INTEGER NOT NULL,
		achieved_revenue TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_runs_created_at
		ON plan_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_plan_runs_period
		ON plan_runs(period);

	-- Submitted schedule entries
	CREATE TABLE IF NOT EXISTS worklogs (
		id TEXT PRIMARY KEY,
		run_id TEXT,
		account_id TEXT NOT NULL,
		work_item_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		overflow INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Capacity lookups scan by date range (hot path)
	CREATE INDEX IF NOT EXISTS idx_worklogs_date
		ON worklogs(date);
	CREATE INDEX IF NOT EXISTS idx_worklogs_account_date
		ON worklogs(account_id, date);
	CREATE INDEX IF NOT EXISTS idx_worklogs_run
		ON worklogs(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PERIOD SETTINGS
// =============================================================================

// PeriodSettings holds the revenue target and participating roles for
// one billing period.
type PeriodSettings struct {
	Period        planning.Period
	TargetRevenue decimal.Decimal
	Roles         []planning.RoleInput
	UpdatedAt     time.Time
}

type roleJSON struct {
	RoleID      string `json:"role_id"`
	RoleName    string `json:"role_name"`
	BillingRate string `json:"billing_rate"`
	MemberCount int    `json:"member_count"`
}

// SaveSettings inserts or replaces the settings for a period.
func (s *Store) SaveSettings(ctx context.Context, settings PeriodSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := make([]roleJSON, len(settings.Roles))
	for i, r := range settings.Roles {
		roles[i] = roleJSON{
			RoleID:      r.RoleID,
			RoleName:    r.RoleName,
			BillingRate: r.BillingRate.String(),
			MemberCount: r.MemberCount,
		}
	}
	rolesBlob, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO period_settings (period, target_revenue, roles_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			target_revenue = excluded.target_revenue,
			roles_json = excluded.roles_json,
			updated_at = excluded.updated_at
	`, settings.Period.String(), settings.TargetRevenue.String(), string(rolesBlob),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSettings loads the settings for a period. Returns
// planning.ErrPeriodNotFound when none exist.
func (s *Store) GetSettings(ctx context.Context, period planning.Period) (PeriodSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT target_revenue, roles_json, updated_at
		FROM period_settings WHERE period = ?
	`, period.String())

	var target, rolesBlob, updatedAt string
	if err := row.Scan(&target, &rolesBlob, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return PeriodSettings{}, planning.ErrPeriodNotFound
		}
		return PeriodSettings{}, err
	}

	settings := PeriodSettings{Period: period}
	var err error
	if settings.TargetRevenue, err = decimal.NewFromString(target); err != nil {
		return PeriodSettings{}, fmt.Errorf("corrupt target revenue: %w", err)
	}
	var roles []roleJSON
	if err := json.Unmarshal([]byte(rolesBlob), &roles); err != nil {
		return PeriodSettings{}, fmt.Errorf("corrupt roles config: %w", err)
	}
	for _, r := range roles {
		rate, err := decimal.NewFromString(r.BillingRate)
		if err != nil {
			return PeriodSettings{}, fmt.Errorf("corrupt billing rate for %s: %w", r.RoleID, err)
		}
		settings.Roles = append(settings.Roles, planning.RoleInput{
			RoleID:      r.RoleID,
			RoleName:    r.RoleName,
			BillingRate: rate,
			MemberCount: r.MemberCount,
		})
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		settings.UpdatedAt = t
	}
	return settings, nil
}

// =============================================================================
// PLAN RUNS (audit trail)
// =============================================================================

// Run kinds.
const (
	RunKindPreview   = "preview"
	RunKindSubmit    = "submit"
	RunKindScheduled = "scheduled"
)

// PlanRun records one allocator/distributor invocation. Runs are
// append-only: the audit trail is never updated or deleted.
//
// AchievedRevenue is populated only by allocation-bearing runs (kind
// "scheduled"); schedule submits carry hours without rates and store
// zero.
type PlanRun struct {
	ID              string
	Kind            string
	Period          string
	Seed            int64
	From            planning.Date
	To              planning.Date
	ParamsJSON      string
	EntryCount      int
	OverflowCount   int
	AchievedRevenue decimal.Decimal
	CreatedAt       time.Time
}

// SaveRun appends a run record.
func (s *Store) SaveRun(ctx context.Context, run PlanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_runs
			(id, kind, period, seed, from_date, to_date, params_json,
			 entry_count, overflow_count, achieved_revenue, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.Period, run.Seed, run.From.String(), run.To.String(),
		run.ParamsJSON, run.EntryCount, run.OverflowCount,
		run.AchievedRevenue.String(), createdAt.Format(time.RFC3339Nano))
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]PlanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, period, seed, from_date, to_date, params_json,
		       entry_count, overflow_count, achieved_revenue, created_at
		FROM plan_runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []PlanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads a single run by ID; nil when not found.
func (s *Store) GetRun(ctx context.Context, id string) (*PlanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, period, seed, from_date, to_date, params_json,
		       entry_count, overflow_count, achieved_revenue, created_at
		FROM plan_runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func scanRun(rows *sql.Rows) (PlanRun, error) {
	var run PlanRun
	var from, to, achieved, createdAt string
	var params sql.NullString
	if err := rows.Scan(&run.ID, &run.Kind, &run.Period, &run.Seed, &from, &to,
		&params, &run.EntryCount, &run.OverflowCount, &achieved, &createdAt); err != nil {
		return PlanRun{}, err
	}
	run.ParamsJSON = params.String

	var err error
	if run.From, err = planning.ParseDate(from); err != nil {
		return PlanRun{}, fmt.Errorf("corrupt from_date: %w", err)
	}
	if run.To, err = planning.ParseDate(to); err != nil {
		return PlanRun{}, fmt.Errorf("corrupt to_date: %w", err)
	}
	if run.AchievedRevenue, err = decimal.NewFromString(achieved); err != nil {
		return PlanRun{}, fmt.Errorf("corrupt achieved_revenue: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = t
	}
	return run, nil
}

// =============================================================================
// WORKLOGS - tracker.WorklogSource / tracker.WorklogWriter
// =============================================================================

// CreateWorklogs persists schedule entries with no run association.
// Implements tracker.WorklogWriter.
func (s *Store) CreateWorklogs(ctx context.Context, logs []tracker.Worklog) error {
	return s.SaveRunWorklogs(ctx, "", logs)
}

// SaveRunWorklogs persists submitted schedule entries atomically, tagged
// with the plan run that produced them.
func (s *Store) SaveRunWorklogs(ctx context.Context, runID string, logs []tracker.Worklog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO worklogs (id, run_id, account_id, work_item_id, date, hours, overflow, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, wl := range logs {
		overflow := 0
		if wl.Overflow {
			overflow = 1
		}
		if _, err := stmt.ExecContext(ctx, wl.ID, runID, wl.AccountID,
			wl.WorkItemID, wl.Date.String(), wl.Hours.String(), overflow, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// WorklogsInRange returns all worklogs with dates in [from, to],
// ordered by date then account. Implements tracker.WorklogSource.
func (s *Store) WorklogsInRange(ctx context.Context, from, to planning.Date) ([]tracker.Worklog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, work_item_id, date, hours, overflow
		FROM worklogs WHERE date >= ? AND date <= ?
		ORDER BY date, account_id
	`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []tracker.Worklog
	for rows.Next() {
		var wl tracker.Worklog
		var date, hours string
		var overflow int
		if err := rows.Scan(&wl.ID, &wl.AccountID, &wl.WorkItemID, &date, &hours, &overflow); err != nil {
			return nil, err
		}
		if wl.Date, err = planning.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt worklog date: %w", err)
		}
		if wl.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("corrupt worklog hours: %w", err)
		}
		wl.Overflow = overflow != 0
		logs = append(logs, wl)
	}
	return logs, rows.Err()
}
