package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveDaily(ctx context.Context, run snapshot.Run, rows []dataset.DailyObservation) error {
	if run.ID == "" {
		return snapshot.ErrEmptyRunID
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_snapshots (
			region_code, region_name, day, consommation,
			thermique, nucleaire, eolien, solaire, hydraulique, bioenergies,
			ech_physiques, samples, run_id, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region_code, region_name, day)
		DO UPDATE SET
			consommation = excluded.consommation,
			thermique = excluded.thermique,
			nucleaire = excluded.nucleaire,
			eolien = excluded.eolien,
			solaire = excluded.solaire,
			hydraulique = excluded.hydraulique,
			bioenergies = excluded.bioenergies,
			ech_physiques = excluded.ech_physiques,
			samples = excluded.samples,
			run_id = excluded.run_id,
			published_at = excluded.published_at
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	publishedAt := run.PublishedAt.UTC().Format(time.RFC3339)
	for _, row := range rows {
		p := row.Production
		_, err = stmt.ExecContext(
			ctx,
			row.RegionCode,
			row.RegionName,
			row.Date.Format(time.DateOnly),
			row.Consumption,
			p.Thermal,
			p.Nuclear,
			p.Wind,
			p.Solar,
			p.Hydraulic,
			p.Bioenergy,
			row.Exchange,
			row.Samples,
			run.ID,
			publishedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListDaily(ctx context.Context, q snapshot.Query) ([]dataset.DailyObservation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			region_code, region_name, day, consommation,
			thermique, nucleaire, eolien, solaire, hydraulique, bioenergies,
			ech_physiques, samples
		FROM daily_snapshots
		WHERE (? = '' OR day >= ?)
			AND (? = '' OR day <= ?)
			AND (? = '' OR region_name = ?)
		ORDER BY day ASC, region_name ASC
	`, dateArg(q.From), dateArg(q.From), dateArg(q.To), dateArg(q.To), q.Region.Name(), q.Region.Name())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]dataset.DailyObservation, 0)
	for rows.Next() {
		var (
			row dataset.DailyObservation
			p   dataset.Production
			day string
		)
		if err := rows.Scan(
			&row.RegionCode,
			&row.RegionName,
			&day,
			&row.Consumption,
			&p.Thermal,
			&p.Nuclear,
			&p.Wind,
			&p.Solar,
			&p.Hydraulic,
			&p.Bioenergy,
			&row.Exchange,
			&row.Samples,
		); err != nil {
			return nil, err
		}
		row.Date, err = time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("sqlite: invalid day %q: %w", day, err)
		}
		row.Production = p
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestRun returns the most recent publication, if any.
func (s *Store) LatestRun(ctx context.Context) (snapshot.Run, bool, error) {
	var (
		run         snapshot.Run
		publishedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, published_at, COUNT(*)
		FROM daily_snapshots
		GROUP BY run_id, published_at
		ORDER BY published_at DESC
		LIMIT 1
	`).Scan(&run.ID, &publishedAt, &run.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Run{}, false, nil
	}
	if err != nil {
		return snapshot.Run{}, false, err
	}
	run.PublishedAt, err = time.Parse(time.RFC3339, publishedAt)
	if err != nil {
		return snapshot.Run{}, false, err
	}
	return run, true, nil
}

func dateArg(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return dataset.Day(t).Format(time.DateOnly)
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_snapshots (
			region_code TEXT NOT NULL,
			region_name TEXT NOT NULL,
			day TEXT NOT NULL,
			consommation REAL NOT NULL,
			thermique REAL NOT NULL,
			nucleaire REAL NOT NULL,
			eolien REAL NOT NULL,
			solaire REAL NOT NULL,
			hydraulique REAL NOT NULL,
			bioenergies REAL NOT NULL,
			ech_physiques REAL NOT NULL,
			samples INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			published_at TEXT NOT NULL,
			PRIMARY KEY (region_code, region_name, day)
		);`,
		`CREATE INDEX IF NOT EXISTS daily_snapshots_region_day ON daily_snapshots (region_name, day);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
