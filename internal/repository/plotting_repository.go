package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// plottingRepository implements PlottingRepository over pgx.
type plottingRepository struct {
	db DBTX
}

func NewPlottingRepository(db DBTX) PlottingRepository {
	return &plottingRepository{db: db}
}

func (r *plottingRepository) ReplaceSteps(ctx context.Context, sdID int64, steps []domain.PlottingMethodStep) error {
	if _, err := r.db.Exec(
		ctx,
		`DELETE FROM geoflow.plotting_method_steps WHERE sd_id = $1`,
		sdID,
	); err != nil {
		return fmt.Errorf("failed to clear plotting steps: %w", err)
	}
	for _, step := range steps {
		if _, err := r.db.Exec(
			ctx,
			`INSERT INTO geoflow.plotting_method_steps (sd_id, position, method_id)
			 VALUES ($1, $2, $3)`,
			sdID,
			step.Position,
			step.MethodID,
		); err != nil {
			return fmt.Errorf("failed to insert plotting step %d: %w", step.Position, translateError(err))
		}
	}
	return nil
}

func (r *plottingRepository) ListSteps(ctx context.Context, sdID int64) ([]domain.PlottingMethodStep, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT sd_id, position, method_id
		 FROM geoflow.plotting_method_steps
		 WHERE sd_id = $1
		 ORDER BY position`,
		sdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plotting steps: %w", err)
	}
	defer rows.Close()

	steps := []domain.PlottingMethodStep{}
	for rows.Next() {
		var step domain.PlottingMethodStep
		if err := rows.Scan(&step.SdID, &step.Position, &step.MethodID); err != nil {
			return nil, fmt.Errorf("failed to scan plotting step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plotting steps: %w", err)
	}
	return steps, nil
}

func (r *plottingRepository) UpsertFields(ctx context.Context, fields domain.PlottingFields) (domain.PlottingFields, error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO geoflow.plotting_fields (sd_id, address, city, lat, long)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (sd_id) DO UPDATE SET
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			lat = EXCLUDED.lat,
			long = EXCLUDED.long
		 RETURNING sd_id, address, city, lat, long`,
		fields.SdID,
		fields.Address,
		fields.City,
		fields.Lat,
		fields.Long,
	)
	var saved domain.PlottingFields
	if err := row.Scan(&saved.SdID, &saved.Address, &saved.City, &saved.Lat, &saved.Long); err != nil {
		return domain.PlottingFields{}, fmt.Errorf("failed to upsert plotting fields: %w", translateError(err))
	}
	return saved, nil
}

func (r *plottingRepository) GetFields(ctx context.Context, sdID int64) (*domain.PlottingFields, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT sd_id, address, city, lat, long
		 FROM geoflow.plotting_fields
		 WHERE sd_id = $1`,
		sdID,
	)
	var fields domain.PlottingFields
	if err := row.Scan(&fields.SdID, &fields.Address, &fields.City, &fields.Lat, &fields.Long); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plotting fields: %w", err)
	}
	return &fields, nil
}
