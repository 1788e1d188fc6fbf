// Package sqlite persists the station table and the joined monthly
// observations of a run into a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/temperature-dispersion/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS station (
	city     TEXT PRIMARY KEY,
	province TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS city_temp (
	province TEXT    NOT NULL,
	city     TEXT    NOT NULL,
	month    INTEGER NOT NULL,
	temp     REAL    NOT NULL,
	UNIQUE(province, city, month)
);
CREATE INDEX IF NOT EXISTS idx_city_temp_province ON city_temp(province);`

// Store implements pipeline.ObservationStore on SQLite.
type Store struct {
	db     *sql.DB
	Path   string
	logger *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &Store{db: db, Path: path, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveStations stores the city -> province rows. Existing cities keep their
// stored province, matching first-seen-wins.
func (s *Store) SaveStations(ctx context.Context, records []domain.StationRecord) error {
	return s.inTx(ctx, `INSERT INTO station(city, province) VALUES(?, ?) ON CONFLICT(city) DO NOTHING`,
		len(records), func(stmt *sql.Stmt, i int) error {
			_, err := stmt.ExecContext(ctx, records[i].City, records[i].Province)
			return err
		})
}

// SaveObservations upserts observations; a repeated province|city|month keeps
// the latest temperature.
func (s *Store) SaveObservations(ctx context.Context, observations []domain.Observation) error {
	err := s.inTx(ctx, `
		INSERT INTO city_temp(province, city, month, temp) VALUES(?, ?, ?, ?)
		ON CONFLICT(province, city, month) DO UPDATE SET temp = excluded.temp`,
		len(observations), func(stmt *sql.Stmt, i int) error {
			o := observations[i]
			_, err := stmt.ExecContext(ctx, o.Province, o.City, o.Month, o.Value)
			return err
		})
	if err != nil {
		return err
	}
	s.logger.Info("observations saved", "count", len(observations), "path", s.Path)
	return nil
}

// observations returns the stored observations of a province ordered by city
// and month.
func (s *Store) observations(ctx context.Context, province string) ([]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT province, city, month, temp FROM city_temp WHERE province = ? ORDER BY city, month`, province)
	if err != nil {
		return nil, fmt.Errorf("query observations for %s: %w", province, err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.Province, &o.City, &o.Month, &o.Value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return out, nil
}

// province returns the stored province of a city.
func (s *Store) province(ctx context.Context, city string) (string, bool, error) {
	var province string
	err := s.db.QueryRowContext(ctx, `SELECT province FROM station WHERE city = ?`, city).Scan(&province)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query station %s: %w", city, err)
	}
	return province, true, nil
}

func (s *Store) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback() //nolint:errcheck // already failing
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			tx.Rollback() //nolint:errcheck // already failing
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
