package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// timeLayout has fixed-width fractional seconds so created_at sorts
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRunStore implements RunStore on a single SQLite database file.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteRunStore opens (creating if needed) the archive at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string { return s.dbPath }

// SaveRun stores rec and its series in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	outbreak, err := json.Marshal(nonNilInts(rec.Outbreak))
	if err != nil {
		return "", fmt.Errorf("failed to marshal outbreak: %w", err)
	}
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, seed, network, nodes, edges, outbreak, params, steps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(timeLayout), rec.Seed, rec.Network,
		rec.Nodes, rec.Edges, string(outbreak), string(params), rec.Steps)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (run_id, step, infected, susceptible, resistant, r_over_s)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range rec.Series {
		if _, err := stmt.ExecContext(ctx, rec.ID, snap.Step, snap.Infected,
			snap.Susceptible, snap.Resistant, nullRatio(snap.Ratio)); err != nil {
			return "", fmt.Errorf("failed to insert snapshot %d: %w", snap.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, created_at, seed, network, nodes, edges, outbreak, params, steps
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID equals or starts with id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, seed, network, nodes, edges, outbreak, params, steps
		FROM runs WHERE id = ?`, fullID)
	rec, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	series, err := s.loadSeries(ctx, fullID)
	if err != nil {
		return nil, err
	}
	rec.Series = series
	return rec, nil
}

// DeleteRun removes a run; its snapshots cascade.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, fullID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", fullID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

// resolveID expands an ID prefix to exactly one stored ID.
func (s *SQLiteRunStore) resolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up run %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

func (s *SQLiteRunStore) loadSeries(ctx context.Context, id string) ([]epidemic.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, infected, susceptible, resistant, r_over_s
		FROM snapshots WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var series []epidemic.Snapshot
	for rows.Next() {
		var snap epidemic.Snapshot
		var ratio sql.NullFloat64
		if err := rows.Scan(&snap.Step, &snap.Infected, &snap.Susceptible, &snap.Resistant, &ratio); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if ratio.Valid {
			snap.Ratio = epidemic.Ratio(ratio.Float64)
		} else {
			snap.Ratio = epidemic.Ratio(math.Inf(1))
		}
		series = append(series, snap)
	}
	return series, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt, outbreak, params string
	err := row.Scan(&rec.ID, &createdAt, &rec.Seed, &rec.Network, &rec.Nodes, &rec.Edges,
		&outbreak, &params, &rec.Steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad created_at %q: %w", rec.ID, createdAt, err)
	}
	if err := json.Unmarshal([]byte(outbreak), &rec.Outbreak); err != nil {
		return nil, fmt.Errorf("run %s: bad outbreak: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("run %s: bad params: %w", rec.ID, err)
	}
	return &rec, nil
}

// nullRatio maps the +Inf sentinel to NULL since SQLite REAL cannot hold it
// portably.
func nullRatio(r epidemic.Ratio) sql.NullFloat64 {
	if r.IsInf() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(r), Valid: true}
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
