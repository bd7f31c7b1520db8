package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a project does not exist.
	ErrNotFound = errors.New("project not found")

	// ErrDuplicateName is returned when a project name is already taken.
	ErrDuplicateName = errors.New("project name already in use")
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	sketch_path TEXT NOT NULL,
	board       TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	state       TEXT NOT NULL,
	attempts    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id, created_at);
`

// Store is a SQLite-backed project registry.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the registry database at path.
// If path is empty, ~/.local/share/sketchforge/projects.db is used.
func Open(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("project: get home dir: %w", err)
		}
		path = filepath.Join(home, ".local", "share", "sketchforge", "projects.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("project: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("project: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("project: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Create registers a new project. The sketch path is stored in absolute form.
func (s *Store) Create(ctx context.Context, name, sketchPath, board string) (*Project, error) {
	abs, err := filepath.Abs(sketchPath)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &Project{
		ID:         uuid.NewString(),
		Name:       name,
		SketchPath: abs,
		Board:      board,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, sketch_path, board, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.SketchPath, p.Board, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return p, nil
}

// Get returns the project with the given name.
func (s *Store) Get(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sketch_path, board, created_at, updated_at FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

// FindBySketchPath looks up the project owning the given sketch path.
// The path is normalized to absolute form before comparison.
func (s *Store) FindBySketchPath(ctx context.Context, sketchPath string) (*Project, error) {
	abs, err := filepath.Abs(sketchPath)
	if err != nil {
		return nil, fmt.Errorf("project: resolve path: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sketch_path, board, created_at, updated_at FROM projects WHERE sketch_path = ?`, abs)
	return scanProject(row)
}

// List returns all projects ordered by name.
func (s *Store) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sketch_path, board, created_at, updated_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SetBoard updates a project's board selection.
func (s *Store) SetBoard(ctx context.Context, name, board string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET board = ?, updated_at = ? WHERE name = ?`,
		board, time.Now().UTC().UnixMilli(), name)
	if err != nil {
		return fmt.Errorf("project: set board: %w", err)
	}
	return requireRow(res)
}

// Delete removes a project and its run history.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("project: delete: %w", err)
	}
	return requireRow(res)
}

// RecordRun appends a run record for the named project.
func (s *Store) RecordRun(ctx context.Context, name string, rec RunRecord) error {
	p, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_id, state, attempts, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, p.ID, rec.State, rec.Attempts, rec.Duration.Milliseconds(), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("project: record run: %w", err)
	}
	return nil
}

// History returns the project's runs, newest first.
func (s *Store) History(ctx context.Context, name string, limit int) ([]RunRecord, error) {
	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, state, attempts, duration_ms, created_at FROM runs
		 WHERE project_id = ? ORDER BY created_at DESC LIMIT ?`, p.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("project: history: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var durationMS, createdAt int64
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.State, &rec.Attempts, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("project: scan run: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Name, &p.SketchPath, &p.Board, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project: scan: %w", err)
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
