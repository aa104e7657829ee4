package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database
// configuration. Each section is stored as a JSON document in the
// settings table, keyed by section name.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	// _busy_timeout: wait up to 10 seconds when the database is locked.
	// WAL keeps readers unblocked while tooling writes settings.
	connStr := fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := &SQLiteProvider{db: db, dbPath: dbPath}
	if err := provider.initializeSchemaIfNeeded(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return provider, nil
}

func (s *SQLiteProvider) initializeSchemaIfNeeded() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		section TEXT PRIMARY KEY,
		body    TEXT NOT NULL
	)`)
	return err
}

// LoadConfig assembles a ConfigData from the stored sections. Missing
// sections simply fall back to defaults.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	sections := map[string]interface{}{
		"i1":        &config.I1,
		"store":     &config.Store,
		"http":      &config.HTTP,
		"generator": &config.Generator,
		"logging":   &config.Logging,
	}

	for name, dest := range sections {
		var body string
		err := s.db.QueryRow("SELECT body FROM settings WHERE section = ?", name).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading section %q: %w", name, err)
		}
		if err := json.Unmarshal([]byte(body), dest); err != nil {
			return nil, fmt.Errorf("decoding section %q: %w", name, err)
		}
	}

	config.ApplyDefaults()
	return config, nil
}

// SaveSection stores one configuration section, replacing any previous
// value. Used by provisioning tooling, not by the server at runtime.
func (s *SQLiteProvider) SaveSection(name string, section interface{}) error {
	body, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("encoding section %q: %w", name, err)
	}
	_, err = s.db.Exec(
		"INSERT INTO settings (section, body) VALUES (?, ?) ON CONFLICT(section) DO UPDATE SET body = excluded.body",
		name, string(body))
	return err
}

// IsReadOnly returns false: SQLite configuration can be written back.
func (s *SQLiteProvider) IsReadOnly() bool { return false }

// Close closes the underlying database.
func (s *SQLiteProvider) Close() error { return s.db.Close() }
