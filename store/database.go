// Package store database for frame settings and the display power schedule
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aouyang1/einkframe/slideshow"
	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS app_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		order_mode       TEXT    NOT NULL,
		interval_minutes INTEGER NOT NULL,
		enabled          INTEGER NOT NULL,
		orientation      TEXT    NOT NULL,
		fit_mode         TEXT    NOT NULL,
		saturation       REAL    NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS schedule (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		enabled INTEGER NOT NULL,
		start   TEXT NOT NULL,
		end     TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

const selectSettings = `
	SELECT order_mode,
	       interval_minutes,
	       enabled,
	       orientation,
	       fit_mode,
	       saturation
	FROM app_settings
	WHERE singleton = 1
`

const upsertSettings = `
	INSERT INTO app_settings (
		singleton,
		order_mode,
		interval_minutes,
		enabled,
		orientation,
		fit_mode,
		saturation
	) VALUES (1, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(singleton) DO UPDATE SET
		order_mode       = excluded.order_mode,
		interval_minutes = excluded.interval_minutes,
		enabled          = excluded.enabled,
		orientation      = excluded.orientation,
		fit_mode         = excluded.fit_mode,
		saturation       = excluded.saturation
`

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// GetSettings returns the stored settings, bootstrapping defaults if no row
// exists yet.
func (d *Database) GetSettings() (*slideshow.Settings, error) {
	return getSettings(d.db)
}

func getSettings(q queryer) (*slideshow.Settings, error) {
	var (
		orderMode   string
		enabledInt  int
		settings    slideshow.Settings
		intervalMin int
	)

	err := q.QueryRow(selectSettings).Scan(
		&orderMode,
		&intervalMin,
		&enabledInt,
		&settings.Display.Orientation,
		&settings.Display.FitMode,
		&settings.Display.Saturation,
	)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := DefaultSettings
		if err := putSettings(q, &defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app settings: %w", err)
	}

	mode, err := slideshow.ParseOrderMode(orderMode)
	if err != nil {
		mode = DefaultSettings.Slideshow.OrderMode
	}
	settings.Slideshow = slideshow.SlideshowConfig{
		OrderMode:       mode,
		IntervalMinutes: intervalMin,
		Enabled:         enabledInt != 0,
	}
	return &settings, nil
}

func putSettings(q queryer, s *slideshow.Settings) error {
	_, err := q.Exec(
		upsertSettings,
		string(s.Slideshow.OrderMode),
		s.Slideshow.IntervalMinutes,
		boolToInt(s.Slideshow.Enabled),
		s.Display.Orientation,
		s.Display.FitMode,
		s.Display.Saturation,
	)
	if err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}

// UpdateSettings applies a partial update as a read-modify-write and returns
// the resulting settings.
func (d *Database) UpdateSettings(u SettingsUpdate) (*slideshow.Settings, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settings, err := getSettings(tx)
	if err != nil {
		return nil, err
	}
	u.apply(settings)

	if err := putSettings(tx, settings); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settings, nil
}

func (d *Database) GetSchedule() (*Schedule, error) {
	const query = `
		SELECT enabled,
		       start,
		       end
		FROM schedule
		WHERE singleton = 1
	`

	var enabled bool
	var start, end string

	err := d.db.QueryRow(query).Scan(&enabled, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no schedule row exists yet
		defaults := &Schedule{
			Enabled: false,
			Start:   "06:00",
			End:     "23:00",
		}
		if err := d.UpsertSchedule(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	return &Schedule{
		Enabled: enabled,
		Start:   start,
		End:     end,
	}, nil
}

func (d *Database) UpsertSchedule(s *Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}

	const stmt = `
		INSERT INTO schedule (
			singleton,
			enabled,
			start,
			end
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			enabled = excluded.enabled,
			start   = excluded.start,
			end     = excluded.end
	`

	_, err := d.db.Exec(
		stmt,
		boolToInt(s.Enabled),
		s.Start,
		s.End,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
