// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"

	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/models"
)

// SQLiteStore implements SeriesStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based series store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-writer CLI; one connection keeps WAL checkpoints simple.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per observation; ts is Unix nanoseconds (UTC), NULL value = missing
	CREATE TABLE IF NOT EXISTS series_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		series TEXT NOT NULL,
		ts INTEGER NOT NULL,
		value REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(series, ts)
	);

	CREATE INDEX IF NOT EXISTS idx_series_points_series_ts ON series_points(series, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSeries replaces the stored series with the given points.
func (s *SQLiteStore) SaveSeries(ctx context.Context, series *models.Series) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.dbError(series.Name(), "failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreDone(tx.Rollback()))
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM series_points WHERE series = ?`, series.Name()); err != nil {
		return s.dbError(series.Name(), "failed to clear series", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO series_points (series, ts, value)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return s.dbError(series.Name(), "failed to prepare statement", err)
	}
	defer func() {
		err = multierr.Append(err, stmt.Close())
	}()

	for _, p := range series.Points() {
		value := sql.NullFloat64{Float64: p.Value, Valid: !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)}
		if _, err = stmt.ExecContext(ctx, series.Name(), p.Timestamp.UTC().UnixNano(), value); err != nil {
			return s.dbError(series.Name(), "failed to insert point", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return s.dbError(series.Name(), "failed to commit transaction", err)
	}

	return nil
}

// LoadSeries retrieves a series restricted to the inclusive date range.
// A series that exists but has no points inside the range is returned empty.
func (s *SQLiteStore) LoadSeries(ctx context.Context, name string, dateRange models.DateRange) (_ *models.Series, err error) {
	query := `SELECT ts, value FROM series_points WHERE series = ?`
	args := []interface{}{name}
	if !dateRange.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, dateRange.Start.UTC().UnixNano())
	}
	if !dateRange.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, dateRange.End.UTC().UnixNano())
	}
	query += ` ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dbError(name, "failed to query series", err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	var points []models.Point
	for rows.Next() {
		var ts int64
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, s.dbError(name, "failed to scan point", err)
		}
		p := models.Point{Timestamp: time.Unix(0, ts).UTC(), Value: math.NaN()}
		if value.Valid {
			p.Value = value.Float64
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dbError(name, "error iterating points", err)
	}

	if len(points) == 0 {
		exists, err := s.exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewDataError("series", name, "no such series", apperrors.ErrSeriesNotFound)
		}
	}

	return models.NewSeries(name, points)
}

// ListSeries summarizes every stored series ordered by name.
func (s *SQLiteStore) ListSeries(ctx context.Context) (_ []SeriesInfo, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT series, COUNT(*), SUM(CASE WHEN value IS NULL THEN 1 ELSE 0 END), MIN(ts), MAX(ts)
		FROM series_points
		GROUP BY series
		ORDER BY series ASC
	`)
	if err != nil {
		return nil, s.dbError("*", "failed to list series", err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	var infos []SeriesInfo
	for rows.Next() {
		var info SeriesInfo
		var first, last int64
		if err := rows.Scan(&info.Name, &info.Points, &info.Missing, &first, &last); err != nil {
			return nil, s.dbError("*", "failed to scan series summary", err)
		}
		info.First = time.Unix(0, first).UTC()
		info.Last = time.Unix(0, last).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dbError("*", "error iterating series", err)
	}

	return infos, nil
}

// DeleteSeries removes a stored series.
func (s *SQLiteStore) DeleteSeries(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM series_points WHERE series = ?`, name)
	if err != nil {
		return s.dbError(name, "failed to delete series", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return s.dbError(name, "failed to read affected rows", err)
	}
	if n == 0 {
		return apperrors.NewDataError("series", name, "no such series", apperrors.ErrSeriesNotFound)
	}

	return nil
}

// GetSeriesFreshness returns the timestamp of the most recent point.
func (s *SQLiteStore) GetSeriesFreshness(ctx context.Context, name string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(ts) FROM series_points WHERE series = ?
	`, name).Scan(&ts)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, s.dbError(name, "failed to get series freshness", err)
	}
	if !ts.Valid {
		return time.Time{}, apperrors.NewDataError("series", name, "no such series", apperrors.ErrSeriesNotFound)
	}
	return time.Unix(0, ts.Int64).UTC(), nil
}

func (s *SQLiteStore) exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series_points WHERE series = ?`, name).Scan(&n)
	if err != nil {
		return false, s.dbError(name, "failed to check series", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) dbError(series, message string, err error) error {
	return apperrors.NewDataError("series", series, message, fmt.Errorf("%w: %w", apperrors.ErrDatabaseError, err))
}

// ignoreDone drops the error returned when rolling back a finished transaction.
func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
