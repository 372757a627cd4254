// Package sqlite persists wizard results in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens a SQLite database with the pragmas the store relies on.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Migrate applies every embedded up migration to db.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// ResultStore implements ports.ResultStore on SQLite.
type ResultStore struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates it.
func New(path string) (*ResultStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ResultStore{db: db}, nil
}

// NewFromDB wraps an already migrated database handle.
func NewFromDB(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

// DB exposes the underlying handle.
func (s *ResultStore) DB() *sql.DB {
	return s.db
}

func (s *ResultStore) Save(ctx context.Context, result *domain.WizardResult) error {
	if result.ID == "" {
		return fmt.Errorf("result id cannot be empty")
	}
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	recs := result.Recommendations
	if recs == nil {
		recs = map[string]string{}
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO results(id, session_id, flow_id, answers, recommendations, captured_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		session_id=excluded.session_id,
		flow_id=excluded.flow_id,
		answers=excluded.answers,
		recommendations=excluded.recommendations,
		captured_at=excluded.captured_at,
		updated_at=excluded.updated_at;
	`, result.ID, result.SessionID, result.FlowID, string(answers), string(recsJSON),
		result.CapturedAt.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.ID, err)
	}
	return nil
}

func (s *ResultStore) Load(ctx context.Context, id string) (*domain.WizardResult, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, session_id, flow_id, answers, recommendations, captured_at
	FROM results WHERE id = ?`, id)

	var (
		r                       domain.WizardResult
		answers, recs, captured string
	)
	if err := row.Scan(&r.ID, &r.SessionID, &r.FlowID, &answers, &recs, &captured); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(recs), &r.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations of %s: %w", id, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, captured)
	if err != nil {
		return nil, fmt.Errorf("bad captured_at for %s: %w", id, err)
	}
	r.CapturedAt = ts
	return &r, nil
}

func (s *ResultStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete result %s: %w", id, err)
	}
	return nil
}

func (s *ResultStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM results ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByFlow returns the IDs of results captured from flowID, newest first.
func (s *ResultStore) ListByFlow(ctx context.Context, flowID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id FROM results WHERE flow_id = ? ORDER BY captured_at DESC, id`, flowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
