package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

const defaultDailyTable = "energy_daily_snapshots"

// DailySnapshotRepository persists the daily table in Postgres.
type DailySnapshotRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*DailySnapshotRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *DailySnapshotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewDailySnapshotRepository creates a repository using the default table name.
func NewDailySnapshotRepository(db *sql.DB, opts ...RepositoryOption) (*DailySnapshotRepository, error) {
	if db == nil {
		return nil, errors.New("daily snapshot repo: nil db")
	}
	repo := &DailySnapshotRepository{
		db:    db,
		table: defaultDailyTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// EnsureSchema creates the snapshot table when missing.
func (r *DailySnapshotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	region_code TEXT NOT NULL,
	region_name TEXT NOT NULL,
	day DATE NOT NULL,
	consommation DOUBLE PRECISION NOT NULL,
	thermique DOUBLE PRECISION NOT NULL,
	nucleaire DOUBLE PRECISION NOT NULL,
	eolien DOUBLE PRECISION NOT NULL,
	solaire DOUBLE PRECISION NOT NULL,
	hydraulique DOUBLE PRECISION NOT NULL,
	bioenergies DOUBLE PRECISION NOT NULL,
	ech_physiques DOUBLE PRECISION NOT NULL,
	samples INTEGER NOT NULL,
	run_id TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (region_code, region_name, day)
)`, r.table))
	return err
}

// SaveDaily upserts the rows of one publication in a single transaction.
func (r *DailySnapshotRepository) SaveDaily(ctx context.Context, run snapshot.Run, rows []dataset.DailyObservation) (err error) {
	if run.ID == "" {
		return snapshot.ErrEmptyRunID
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (
	region_code,
	region_name,
	day,
	consommation,
	thermique,
	nucleaire,
	eolien,
	solaire,
	hydraulique,
	bioenergies,
	ech_physiques,
	samples,
	run_id,
	published_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
ON CONFLICT (region_code, region_name, day)
DO UPDATE SET
	consommation = EXCLUDED.consommation,
	thermique = EXCLUDED.thermique,
	nucleaire = EXCLUDED.nucleaire,
	eolien = EXCLUDED.eolien,
	solaire = EXCLUDED.solaire,
	hydraulique = EXCLUDED.hydraulique,
	bioenergies = EXCLUDED.bioenergies,
	ech_physiques = EXCLUDED.ech_physiques,
	samples = EXCLUDED.samples,
	run_id = EXCLUDED.run_id,
	published_at = EXCLUDED.published_at,
	updated_at = NOW()`, r.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	publishedAt := run.PublishedAt.UTC()
	for _, row := range rows {
		p := row.Production
		if _, err = stmt.ExecContext(
			ctx,
			row.RegionCode,
			row.RegionName,
			row.Date,
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
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListDaily returns persisted rows ordered by date then region.
func (r *DailySnapshotRepository) ListDaily(ctx context.Context, q snapshot.Query) ([]dataset.DailyObservation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT
	region_code,
	region_name,
	day,
	consommation,
	thermique,
	nucleaire,
	eolien,
	solaire,
	hydraulique,
	bioenergies,
	ech_physiques,
	samples
FROM %s
WHERE ($1::date IS NULL OR day >= $1::date)
	AND ($2::date IS NULL OR day <= $2::date)
	AND ($3 = '' OR region_name = $3)
ORDER BY day ASC, region_name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, nullDate(q.From), nullDate(q.To), q.Region.Name())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]dataset.DailyObservation, 0)
	for rows.Next() {
		row, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestRun returns the most recent publication, if any.
func (r *DailySnapshotRepository) LatestRun(ctx context.Context) (snapshot.Run, bool, error) {
	var run snapshot.Run
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT run_id, published_at, COUNT(*)
FROM %s
GROUP BY run_id, published_at
ORDER BY published_at DESC
LIMIT 1`, r.table)).Scan(&run.ID, &run.PublishedAt, &run.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Run{}, false, nil
	}
	if err != nil {
		return snapshot.Run{}, false, err
	}
	run.PublishedAt = run.PublishedAt.UTC()
	return run, true, nil
}

func nullDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dataset.Day(t), Valid: true}
}

func scanDaily(scanner interface{ Scan(dest ...any) error }) (dataset.DailyObservation, error) {
	var (
		row dataset.DailyObservation
		p   dataset.Production
	)
	if err := scanner.Scan(
		&row.RegionCode,
		&row.RegionName,
		&row.Date,
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
		return dataset.DailyObservation{}, err
	}
	row.Date = dataset.Day(row.Date)
	row.Production = p
	return row, nil
}
