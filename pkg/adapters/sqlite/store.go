package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
)

// Store implements ports.ProjectStore on a SQL database.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type Store struct {
	db    *sql.DB
	codec document.Codec
}

// New initializes the required schema in the given database and returns a new Store.
func New(ctx context.Context, db *sql.DB, codec document.Codec) (*Store, error) {
	s := &Store{db: db, codec: codec}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Open opens the SQLite database at path with the modernc driver and returns a Store on it.
func Open(ctx context.Context, path string, codec document.Codec) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s, err := New(ctx, db, codec)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY,
			format TEXT NOT NULL,
			document BLOB NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

// Save upserts the project document. Every save increments the revision.
func (s *Store) Save(ctx context.Context, name string, p *domain.Project) error {
	if name == "" {
		return fmt.Errorf("%w: project name cannot be empty", domain.ErrPrecondition)
	}
	data, err := s.codec.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (name, format, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			format = excluded.format,
			document = excluded.document,
			revision = projects.revision + 1,
			updated_at = excluded.updated_at`,
		name,
		string(s.codec.Format),
		data,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save project %s: %w", name, err)
	}
	return nil
}

// Load retrieves and rebuilds the project. Documents are decoded with the format they were
// saved in.
func (s *Store) Load(ctx context.Context, name string) (*domain.Project, error) {
	var (
		format string
		data   []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT format, document FROM projects WHERE name = ?`, name).Scan(&format, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to query project %s: %w", name, err)
	}

	codec := s.codec
	codec.Format = document.Format(format)
	p, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", name, err)
	}
	return p, nil
}

// Revision returns how many times the project was saved.
func (s *Store) Revision(ctx context.Context, name string) (int, error) {
	var rev int
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM projects WHERE name = ?`, name).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProjectNotFound
	}
	return rev, err
}

// Delete removes the project.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", name, err)
	}
	return nil
}

// List returns the stored project names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
