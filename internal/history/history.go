package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/leonardotrapani/opentranscribe/internal/pipeline"
)

// Record is one finished session.
type Record struct {
	ID           int64
	CreatedAt    time.Time
	Status       string
	Text         string
	ArtifactPath string // set when the recording was kept after a failure
	Languages    []string
	Prompt       string
	Backend      string
	Duration     time.Duration
	Error        string
}

// FromResult converts a session outcome into a history record.
func FromResult(status pipeline.Status, res pipeline.Result) *Record {
	rec := &Record{
		CreatedAt:    time.Now(),
		Status:       string(status),
		Text:         res.Text,
		ArtifactPath: res.ArtifactPath,
		Languages:    res.Languages,
		Prompt:       res.Prompt,
		Backend:      res.Backend,
		Duration:     res.Duration,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

// Store persists session records in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("history")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	logger.Debug("Opening history database", zap.String("path", path))
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			status TEXT NOT NULL,
			text TEXT NOT NULL,
			artifact_path TEXT,
			languages TEXT,
			prompt TEXT,
			backend TEXT,
			duration_ms INTEGER NOT NULL,
			error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}
	return nil
}

// Store inserts rec and sets its ID.
func (s *Store) Store(ctx context.Context, rec *Record) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions
		(created_at, status, text, artifact_path, languages, prompt, backend, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Status,
		rec.Text,
		nullString(rec.ArtifactPath),
		strings.Join(rec.Languages, ", "),
		nullString(rec.Prompt),
		nullString(rec.Backend),
		rec.Duration.Milliseconds(),
		nullString(rec.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, status, text, artifact_path, languages, prompt, backend, duration_ms, error
		FROM sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, status, text, artifact_path, languages, prompt, backend, duration_ms, error
		FROM sessions WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var rec Record
	var createdAt string
	var artifactPath, languages, prompt, backend, errText sql.NullString
	var durationMs int64
	if err := sc.Scan(&rec.ID, &createdAt, &rec.Status, &rec.Text, &artifactPath,
		&languages, &prompt, &backend, &durationMs, &errText); err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.CreatedAt = t
	rec.ArtifactPath = artifactPath.String
	rec.Prompt = prompt.String
	rec.Backend = backend.String
	rec.Error = errText.String
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if languages.String != "" {
		rec.Languages = strings.Split(languages.String, ", ")
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
