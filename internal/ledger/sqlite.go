package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alnah/go-md2deck/internal/ledger/migrations"
)

// SQLiteStore keeps records of many sources in one database, keyed by
// source path.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path and applies pending
// migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("ledger: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("ledger: creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("ledger: opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate runs every NNN_name.up.sql file newer than the recorded version.
func (s *SQLiteStore) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, sourcePath string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, source_path, content_hash, config, slide_count, stats,
		       targets, warnings, duration_ms, created_at
		FROM records WHERE source_path = ?
	`, sourcePath)

	var (
		rec                          Record
		configJSON, statsJSON, tJSON string
		createdAt                    string
	)
	err := row.Scan(&rec.RunID, &rec.SourcePath, &rec.ContentHash, &configJSON,
		&rec.SlideCount, &statsJSON, &tJSON, &rec.Warnings, &rec.DurationMS, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: querying record: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("ledger: decoding config: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &rec.Stats); err != nil {
		return nil, fmt.Errorf("ledger: decoding stats: %w", err)
	}
	if err := json.Unmarshal([]byte(tJSON), &rec.Targets); err != nil {
		return nil, fmt.Errorf("ledger: decoding targets: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("ledger: decoding created_at: %w", err)
	}
	return &rec, nil
}

// Put upserts the record; the last write for a source wins.
func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("ledger: encoding config: %w", err)
	}
	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("ledger: encoding stats: %w", err)
	}
	targetsJSON, err := json.Marshal(rec.Targets)
	if err != nil {
		return fmt.Errorf("ledger: encoding targets: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (source_path, run_id, content_hash, config, slide_count,
		                     stats, targets, warnings, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			run_id = excluded.run_id,
			content_hash = excluded.content_hash,
			config = excluded.config,
			slide_count = excluded.slide_count,
			stats = excluded.stats,
			targets = excluded.targets,
			warnings = excluded.warnings,
			duration_ms = excluded.duration_ms,
			created_at = excluded.created_at
	`, rec.SourcePath, rec.RunID, rec.ContentHash, string(configJSON), rec.SlideCount,
		string(statsJSON), string(targetsJSON), rec.Warnings, rec.DurationMS,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("ledger: saving record: %w", err)
	}
	return nil
}

// List returns every record ordered by source path.
func (s *SQLiteStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT source_path FROM records ORDER BY source_path")
	if err != nil {
		return nil, fmt.Errorf("ledger: listing records: %w", err)
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ledger: listing records: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(paths))
	for _, p := range paths {
		rec, err := s.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
