// Package sqlite provides a durable chunk set store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docquery-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkSetStore = (*Store)(nil)

// Store persists chunk sets in a SQLite database. Saves replace the
// document's previous generation inside one transaction, so readers never
// observe a half-written set.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docquery/data/chunks.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docquery", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveChunkSet stores a document's chunk set atomically, replacing any
// previous generation for the same document name.
func (s *Store) SaveChunkSet(ctx context.Context, set *domain.ChunkSet) error {
	if set == nil || set.Info.DocumentName == "" {
		return fmt.Errorf("%w: chunk set missing document name", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Drop the previous generation; chunks cascade.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunk_sets WHERE document_name = ?`, set.Info.DocumentName); err != nil {
		return fmt.Errorf("delete previous chunk set: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chunk_sets (id, document_name, filename, total_chunks, method, token_range, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		set.ID, set.Info.DocumentName, set.Info.Filename, set.Info.TotalChunks,
		string(set.Info.Method), set.Info.TokenRange, set.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert chunk set: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, set_id, number, content, token_count, topic, reasoning, out_of_bounds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range set.Chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, set.ID, c.Number, c.Content, c.TokenCount,
			c.Topic, c.Reasoning, boolToInt(c.OutOfBounds), c.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk set: %w", err)
	}
	return nil
}

// GetChunkSet retrieves the chunk set for a document.
func (s *Store) GetChunkSet(ctx context.Context, documentName string) (*domain.ChunkSet, error) {
	set := &domain.ChunkSet{}
	var method string

	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_name, filename, total_chunks, method, token_range, created_at
		FROM chunk_sets WHERE document_name = ?`, documentName)
	err := row.Scan(&set.ID, &set.Info.DocumentName, &set.Info.Filename,
		&set.Info.TotalChunks, &method, &set.Info.TokenRange, &set.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no chunk set for %q", domain.ErrNotFound, documentName)
	}
	if err != nil {
		return nil, fmt.Errorf("scan chunk set: %w", err)
	}
	set.Info.Method = domain.ChunkingMethod(method)

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, number, content, token_count, topic, reasoning, out_of_bounds, created_at
		FROM chunks WHERE set_id = ? ORDER BY number`, set.ID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	source := domain.SourceInfo{
		Filename:     set.Info.Filename,
		DocumentName: set.Info.DocumentName,
	}
	for rows.Next() {
		var c domain.Chunk
		var outOfBounds int
		var createdAt time.Time
		if err := rows.Scan(&c.ID, &c.Number, &c.Content, &c.TokenCount,
			&c.Topic, &c.Reasoning, &outOfBounds, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Source = source
		c.OutOfBounds = outOfBounds != 0
		c.CreatedAt = createdAt
		set.Chunks = append(set.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return set, nil
}

// ListChunkSets returns the DocumentInfo of every stored set, ordered by
// document name.
func (s *Store) ListChunkSets(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_name, filename, total_chunks, method, token_range
		FROM chunk_sets ORDER BY document_name`)
	if err != nil {
		return nil, fmt.Errorf("query chunk sets: %w", err)
	}
	defer rows.Close()

	var infos []domain.DocumentInfo
	for rows.Next() {
		var info domain.DocumentInfo
		var method string
		if err := rows.Scan(&info.DocumentName, &info.Filename,
			&info.TotalChunks, &method, &info.TokenRange); err != nil {
			return nil, fmt.Errorf("scan chunk set info: %w", err)
		}
		info.Method = domain.ChunkingMethod(method)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk sets: %w", err)
	}
	return infos, nil
}

// DeleteChunkSet removes a document's chunk set.
func (s *Store) DeleteChunkSet(ctx context.Context, documentName string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chunk_sets WHERE document_name = ?`, documentName)
	if err != nil {
		return fmt.Errorf("delete chunk set: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no chunk set for %q", domain.ErrNotFound, documentName)
	}
	return nil
}

// migrate applies any pending SQL migrations from the embedded filesystem.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
