package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Store persists load/build diagnostics. It records counts and timings, never
// analysis results; derived graphs stay in memory only.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveLoad(rec LoadRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	if rec.SchemaVersion != SchemaVersion {
		return "", fmt.Errorf("unsupported history schema version %d", rec.SchemaVersion)
	}

	_, err := s.db.Exec(`
INSERT INTO loads (id, ts_utc, schema_version, source, module_count, function_count, block_count, orphan_edges, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.SchemaVersion,
		rec.Source,
		rec.ModuleCount,
		rec.FunctionCount,
		rec.BlockCount,
		rec.OrphanEdges,
		rec.DurationMS,
	)
	if err != nil {
		return "", fmt.Errorf("insert load record: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) SaveBuild(rec BuildRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.LoadID == "" {
		return "", fmt.Errorf("build record requires a load id")
	}

	_, err := s.db.Exec(`
INSERT INTO builds (id, load_id, ts_utc, module_id, filter_signature, node_count, edge_count, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.LoadID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.ModuleID,
		rec.FilterSignature,
		rec.NodeCount,
		rec.EdgeCount,
		rec.DurationMS,
	)
	if err != nil {
		return "", fmt.Errorf("insert build record: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) RecentLoads(limit int) ([]LoadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT id, ts_utc, schema_version, source, module_count, function_count, block_count, orphan_edges, duration_ms
FROM loads ORDER BY ts_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var out []LoadRecord
	for rows.Next() {
		var rec LoadRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.SchemaVersion, &rec.Source,
			&rec.ModuleCount, &rec.FunctionCount, &rec.BlockCount,
			&rec.OrphanEdges, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan load record: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = parsed
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
