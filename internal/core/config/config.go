package config

import "time"

type Config struct {
	Version       int           `toml:"version"`
	Dataset       Dataset       `toml:"dataset"`
	Filter        Filter        `toml:"filter"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

type Dataset struct {
	// Path to the wire-format JSON dataset.
	Path string `toml:"path"`
	// Alternative source: read straight from the analyzer's SQLite pair.
	MasterDB   string `toml:"master_db"`
	CoverageDB string `toml:"coverage_db"`
}

// Filter holds the applied-filter defaults. These seed the engine's applied
// values; the UI edits pending copies and re-applies explicitly.
type Filter struct {
	Statuses              []string `toml:"statuses"`
	IncludeOld            bool     `toml:"include_old"`
	MinFunctionSize       int      `toml:"min_function_size"`
	MinTotalNewBB         int      `toml:"min_total_new_bb"`
	MaxTransitiveDistance int      `toml:"max_transitive_distance"`
	IncludeUnconnected    bool     `toml:"include_unconnected"`
	NamePattern           string   `toml:"name_pattern"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// Reloads per second admitted by the rate limiter.
	ReloadRate  float64 `toml:"reload_rate"`
	ReloadBurst int     `toml:"reload_burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Output struct {
	DOT  string `toml:"dot"`
	TSV  string `toml:"tsv"`
	JSON string `toml:"json"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}
