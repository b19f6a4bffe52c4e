package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/export"
)

const schema = `
CREATE TABLE IF NOT EXISTS exports (
	id            UUID PRIMARY KEY,
	experiment_id TEXT NOT NULL,
	label         TEXT NOT NULL,
	anchor        TEXT NOT NULL,
	window_start  INTEGER NOT NULL,
	window_end    INTEGER NOT NULL,
	files         JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS export_summaries (
	experiment_id      TEXT NOT NULL,
	channel            TEXT NOT NULL,
	export_id          UUID NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
	peak_index         INTEGER NOT NULL,
	rise_start_index   INTEGER NOT NULL,
	rise_end_index     INTEGER NOT NULL,
	peak_velocity      DOUBLE PRECISION NOT NULL,
	time_to_peak       DOUBLE PRECISION NOT NULL,
	decel_time         DOUBLE PRECISION NOT NULL,
	fwhm               DOUBLE PRECISION NOT NULL,
	delta_t            DOUBLE PRECISION NOT NULL,
	rise_to_peak_slope DOUBLE PRECISION NOT NULL,
	peak_user_selected BOOLEAN NOT NULL,
	PRIMARY KEY (experiment_id, channel)
);
`

const insertExport = `
	INSERT INTO exports (id, experiment_id, label, anchor, window_start, window_end, files, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// The latest export of an experiment wins per channel.
const upsertSummary = `
	INSERT INTO export_summaries (experiment_id, channel, export_id, peak_index, rise_start_index, rise_end_index,
		peak_velocity, time_to_peak, decel_time, fwhm, delta_t, rise_to_peak_slope, peak_user_selected)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (experiment_id, channel) DO UPDATE SET
		export_id = EXCLUDED.export_id,
		peak_index = EXCLUDED.peak_index,
		rise_start_index = EXCLUDED.rise_start_index,
		rise_end_index = EXCLUDED.rise_end_index,
		peak_velocity = EXCLUDED.peak_velocity,
		time_to_peak = EXCLUDED.time_to_peak,
		decel_time = EXCLUDED.decel_time,
		fwhm = EXCLUDED.fwhm,
		delta_t = EXCLUDED.delta_t,
		rise_to_peak_slope = EXCLUDED.rise_to_peak_slope,
		peak_user_selected = EXCLUDED.peak_user_selected
`

const selectSummaries = `
	SELECT channel, peak_index, rise_start_index, rise_end_index, peak_velocity, time_to_peak,
		decel_time, fwhm, delta_t, rise_to_peak_slope, peak_user_selected
	FROM export_summaries
	WHERE experiment_id = $1
	ORDER BY channel
`

// PostgresRepository stores exported summaries. It is an export.Sink.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewPostgresRepositoryFromDSN opens and pings the database.
func NewPostgresRepositoryFromDSN(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Consume records an export and upserts its summary rows in one transaction.
func (r *PostgresRepository) Consume(ctx context.Context, a export.Artifacts) error {
	files, err := json.Marshal(a.Files())
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exportID := uuid.New().String()
	if _, err := tx.ExecContext(ctx, insertExport,
		exportID,
		a.ExperimentID,
		a.Label,
		a.Anchor,
		a.Window.Start,
		a.Window.End,
		files,
		a.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}

	for _, row := range a.Rows {
		if _, err := tx.ExecContext(ctx, upsertSummary, summaryArgs(a.ExperimentID, exportID, row)...); err != nil {
			return fmt.Errorf("failed to upsert summary %s: %w", row.Channel, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

// Summaries returns the stored summary rows of an experiment.
func (r *PostgresRepository) Summaries(ctx context.Context, experimentID string) ([]export.SummaryRow, error) {
	rows, err := r.db.QueryContext(ctx, selectSummaries, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []export.SummaryRow
	for rows.Next() {
		var s export.SummaryRow
		if err := rows.Scan(
			&s.Channel,
			&s.PeakIndex,
			&s.RiseStartIndex,
			&s.RiseEndIndex,
			&s.PeakVelocity,
			&s.TimeToPeak,
			&s.DecelTime,
			&s.FWHM,
			&s.DeltaT,
			&s.RiseToPeakSlope,
			&s.PeakUserSelected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ExperimentSummaries returns the last exported summaries of an experiment
// keyed by channel name.
func (r *PostgresRepository) ExperimentSummaries(ctx context.Context, experimentID string) (map[string]channel.Summary, error) {
	rows, err := r.Summaries(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSummaryNotFound, experimentID)
	}
	out := make(map[string]channel.Summary, len(rows))
	for _, row := range rows {
		out[row.Channel] = row.Summary()
	}
	return out, nil
}

func summaryArgs(experimentID, exportID string, s export.SummaryRow) []any {
	return []any{
		experimentID,
		s.Channel,
		exportID,
		s.PeakIndex,
		s.RiseStartIndex,
		s.RiseEndIndex,
		s.PeakVelocity,
		s.TimeToPeak,
		s.DecelTime,
		s.FWHM,
		s.DeltaT,
		s.RiseToPeakSlope,
		s.PeakUserSelected,
	}
}
