package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// sourceDataRepository implements SourceDataRepository over pgx. Column
// metadata and free-form options travel as jsonb.
type sourceDataRepository struct {
	db DBTX
}

func NewSourceDataRepository(db DBTX) SourceDataRepository {
	return &sourceDataRepository{db: db}
}

const sourceDataColumns = `sd_id, li_id, load_source_id, user_generated, options,
	table_name, columns, to_load, loaded_timestamp, error_message`

func scanSourceData(row pgx.Row) (domain.SourceData, error) {
	var sd domain.SourceData
	err := row.Scan(
		&sd.SdID,
		&sd.LiID,
		&sd.LoadSourceID,
		&sd.UserGenerated,
		&sd.Options,
		&sd.TableName,
		&sd.Columns,
		&sd.ToLoad,
		&sd.LoadedTimestamp,
		&sd.ErrorMessage,
	)
	return sd, err
}

func (r *sourceDataRepository) Create(ctx context.Context, sd domain.SourceData) (domain.SourceData, error) {
	// A zero load_source_id means "assign the next slot". The subquery and the
	// unique constraint on (li_id, load_source_id) keep concurrent inserts from
	// sharing a sequence number.
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO geoflow.source_data (
			li_id, load_source_id, user_generated, options, table_name, columns, to_load
		 ) VALUES (
			$1,
			CASE WHEN $2::smallint > 0 THEN $2::smallint
			     ELSE (SELECT COALESCE(MAX(load_source_id), 0) + 1
			           FROM geoflow.source_data WHERE li_id = $1)::smallint
			END,
			$3, $4, $5, $6, $7
		 )
		 RETURNING `+sourceDataColumns,
		sd.LiID,
		sd.LoadSourceID,
		sd.UserGenerated,
		sd.Options,
		sd.TableName,
		sd.Columns,
		sd.ToLoad,
	)
	created, err := scanSourceData(row)
	if err != nil {
		return domain.SourceData{}, fmt.Errorf("failed to create source data: %w", translateError(err))
	}
	return created, nil
}

func (r *sourceDataRepository) GetByID(ctx context.Context, sdID int64) (domain.SourceData, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+sourceDataColumns+` FROM geoflow.source_data WHERE sd_id = $1`,
		sdID,
	)
	sd, err := scanSourceData(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sdID}
		}
		return domain.SourceData{}, fmt.Errorf("failed to get source data: %w", err)
	}
	return sd, nil
}

func (r *sourceDataRepository) ListByLoadInstance(ctx context.Context, liID int64) ([]domain.SourceData, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+sourceDataColumns+`
		 FROM geoflow.source_data
		 WHERE li_id = $1
		 ORDER BY load_source_id`,
		liID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list source data: %w", err)
	}
	defer rows.Close()

	entries := []domain.SourceData{}
	for rows.Next() {
		sd, err := scanSourceData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source data: %w", err)
		}
		entries = append(entries, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source data: %w", err)
	}
	return entries, nil
}

func (r *sourceDataRepository) Update(ctx context.Context, sd domain.SourceData) (domain.SourceData, error) {
	row := r.db.QueryRow(
		ctx,
		`UPDATE geoflow.source_data SET
			user_generated = $2,
			options = $3,
			table_name = $4,
			columns = $5,
			to_load = $6,
			loaded_timestamp = $7,
			error_message = $8
		 WHERE sd_id = $1
		 RETURNING `+sourceDataColumns,
		sd.SdID,
		sd.UserGenerated,
		sd.Options,
		sd.TableName,
		sd.Columns,
		sd.ToLoad,
		sd.LoadedTimestamp,
		sd.ErrorMessage,
	)
	updated, err := scanSourceData(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sd.SdID}
		}
		return domain.SourceData{}, fmt.Errorf("failed to update source data: %w", translateError(err))
	}
	return updated, nil
}

func (r *sourceDataRepository) Delete(ctx context.Context, sdID int64) (domain.SourceData, error) {
	row := r.db.QueryRow(
		ctx,
		`DELETE FROM geoflow.source_data WHERE sd_id = $1 RETURNING `+sourceDataColumns,
		sdID,
	)
	deleted, err := scanSourceData(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sdID}
		}
		return domain.SourceData{}, fmt.Errorf("failed to delete source data: %w", translateError(err))
	}
	return deleted, nil
}
