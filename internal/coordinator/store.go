package coordinator

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store owns the zones / tool_instances / tool_data tables behind the
// command bus.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the app-state database at the given path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS zones (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			color       TEXT,
			archived    INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tool_instances (
			id          TEXT PRIMARY KEY,
			zone_id     TEXT,
			name        TEXT NOT NULL,
			tool_type   TEXT NOT NULL,
			config_json TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			FOREIGN KEY (zone_id) REFERENCES zones(id)
		);

		CREATE TABLE IF NOT EXISTS tool_data (
			id               TEXT PRIMARY KEY,
			tool_instance_id TEXT NOT NULL,
			name             TEXT,
			data_json        TEXT NOT NULL,
			recorded_at      TEXT NOT NULL,
			created_at       TEXT NOT NULL,
			FOREIGN KEY (tool_instance_id) REFERENCES tool_instances(id)
		);

		CREATE INDEX IF NOT EXISTS idx_tools_zone ON tool_instances(zone_id);
		CREATE INDEX IF NOT EXISTS idx_data_tool ON tool_data(tool_instance_id);
		CREATE INDEX IF NOT EXISTS idx_data_recorded ON tool_data(recorded_at);
	`)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
