package history

import (
	"database/sql"
	"fmt"
	"time"
)

const SchemaVersion = 1

// LoadRecord is one row in the loads table: diagnostics for a dataset load.
type LoadRecord struct {
	ID            string
	Timestamp     time.Time
	SchemaVersion int
	Source        string
	ModuleCount   int
	FunctionCount int
	BlockCount    int
	OrphanEdges   int
	DurationMS    int64
}

// BuildRecord is one row in the builds table: diagnostics for a graph build.
type BuildRecord struct {
	ID              string
	LoadID          string
	Timestamp       time.Time
	ModuleID        int
	FilterSignature string
	NodeCount       int
	EdgeCount       int
	DurationMS      int64
}

func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loads (
			id TEXT PRIMARY KEY,
			ts_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			source TEXT NOT NULL,
			module_count INTEGER NOT NULL,
			function_count INTEGER NOT NULL,
			block_count INTEGER NOT NULL,
			orphan_edges INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			load_id TEXT NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
			ts_utc TEXT NOT NULL,
			module_id INTEGER NOT NULL,
			filter_signature TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ts ON loads(ts_utc)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_load ON builds(load_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
