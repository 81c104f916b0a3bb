package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// loadInstanceRepository implements LoadInstanceRepository over pgx.
type loadInstanceRepository struct {
	db DBTX
}

func NewLoadInstanceRepository(db DBTX) LoadInstanceRepository {
	return &loadInstanceRepository{db: db}
}

const loadInstanceColumns = `li_id, ds_id, version_date, state, merge_type,
	production_count, staging_count, match_count, new_count, statistics,
	collect_user_id, collect_start, collect_finish, collect_workflow_id, collect_workflow_run_id,
	load_user_id, load_start, load_finish, load_workflow_id, load_workflow_run_id,
	check_user_id, check_start, check_finish, check_workflow_id, check_workflow_run_id,
	done, created, last_updated`

func scanLoadInstance(row pgx.Row) (domain.LoadInstance, error) {
	var li domain.LoadInstance
	err := row.Scan(
		&li.LiID,
		&li.DsID,
		&li.VersionDate,
		&li.State,
		&li.MergeType,
		&li.ProductionCount,
		&li.StagingCount,
		&li.MatchCount,
		&li.NewCount,
		&li.Statistics,
		&li.Collect.UserID,
		&li.Collect.Start,
		&li.Collect.Finish,
		&li.Collect.WorkflowID,
		&li.Collect.RunID,
		&li.Load.UserID,
		&li.Load.Start,
		&li.Load.Finish,
		&li.Load.WorkflowID,
		&li.Load.RunID,
		&li.Check.UserID,
		&li.Check.Start,
		&li.Check.Finish,
		&li.Check.WorkflowID,
		&li.Check.RunID,
		&li.Done,
		&li.Created,
		&li.LastUpdated,
	)
	return li, err
}

func (r *loadInstanceRepository) Create(ctx context.Context, li domain.LoadInstance) (domain.LoadInstance, error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO geoflow.load_instances (
			ds_id, version_date, state, merge_type,
			collect_workflow_id, load_workflow_id, check_workflow_id
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+loadInstanceColumns,
		li.DsID,
		li.VersionDate,
		li.State,
		li.MergeType,
		li.Collect.WorkflowID,
		li.Load.WorkflowID,
		li.Check.WorkflowID,
	)
	created, err := scanLoadInstance(row)
	if err != nil {
		return domain.LoadInstance{}, fmt.Errorf("failed to create load instance: %w", translateError(err))
	}
	return created, nil
}

func (r *loadInstanceRepository) GetByID(ctx context.Context, liID int64) (domain.LoadInstance, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+loadInstanceColumns+` FROM geoflow.load_instances WHERE li_id = $1`,
		liID,
	)
	li, err := scanLoadInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoadInstance{}, domain.NotFound{Kind: "load instance", ID: liID}
		}
		return domain.LoadInstance{}, fmt.Errorf("failed to get load instance: %w", err)
	}
	return li, nil
}

func (r *loadInstanceRepository) ListByDataSource(ctx context.Context, dsID int64) ([]domain.LoadInstance, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+loadInstanceColumns+`
		 FROM geoflow.load_instances
		 WHERE ds_id = $1
		 ORDER BY version_date DESC, li_id DESC`,
		dsID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list load instances: %w", err)
	}
	defer rows.Close()

	instances := []domain.LoadInstance{}
	for rows.Next() {
		li, err := scanLoadInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load instance: %w", err)
		}
		instances = append(instances, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate load instances: %w", err)
	}
	return instances, nil
}

func (r *loadInstanceRepository) GetLatestForDataSource(ctx context.Context, dsID int64) (*domain.LoadInstance, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+loadInstanceColumns+`
		 FROM geoflow.load_instances
		 WHERE ds_id = $1
		 ORDER BY created DESC, li_id DESC
		 LIMIT 1`,
		dsID,
	)
	li, err := scanLoadInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest load instance: %w", err)
	}
	return &li, nil
}

func (r *loadInstanceRepository) Update(ctx context.Context, li domain.LoadInstance) (domain.LoadInstance, error) {
	row := r.db.QueryRow(
		ctx,
		`UPDATE geoflow.load_instances SET
			version_date = $2,
			state = $3,
			merge_type = $4,
			production_count = $5,
			staging_count = $6,
			match_count = $7,
			new_count = $8,
			statistics = $9,
			collect_user_id = $10,
			collect_start = $11,
			collect_finish = $12,
			collect_workflow_id = $13,
			collect_workflow_run_id = $14,
			load_user_id = $15,
			load_start = $16,
			load_finish = $17,
			load_workflow_id = $18,
			load_workflow_run_id = $19,
			check_user_id = $20,
			check_start = $21,
			check_finish = $22,
			check_workflow_id = $23,
			check_workflow_run_id = $24,
			done = $25,
			last_updated = now()
		 WHERE li_id = $1
		 RETURNING `+loadInstanceColumns,
		li.LiID,
		li.VersionDate,
		li.State,
		li.MergeType,
		li.ProductionCount,
		li.StagingCount,
		li.MatchCount,
		li.NewCount,
		li.Statistics,
		li.Collect.UserID,
		li.Collect.Start,
		li.Collect.Finish,
		li.Collect.WorkflowID,
		li.Collect.RunID,
		li.Load.UserID,
		li.Load.Start,
		li.Load.Finish,
		li.Load.WorkflowID,
		li.Load.RunID,
		li.Check.UserID,
		li.Check.Start,
		li.Check.Finish,
		li.Check.WorkflowID,
		li.Check.RunID,
		li.Done,
	)
	updated, err := scanLoadInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoadInstance{}, domain.NotFound{Kind: "load instance", ID: li.LiID}
		}
		return domain.LoadInstance{}, fmt.Errorf("failed to update load instance: %w", translateError(err))
	}
	return updated, nil
}
