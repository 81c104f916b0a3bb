package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// dataSourceRepository implements DataSourceRepository over pgx.
type dataSourceRepository struct {
	db DBTX
}

func NewDataSourceRepository(db DBTX) DataSourceRepository {
	return &dataSourceRepository{db: db}
}

const dataSourceColumns = `ds_id, name, description, search_radius, comments, region_id,
	assigned_user, created, created_by, last_updated, updated_by,
	warehouse_type_id, collection_workflow, load_workflow, check_workflow`

func scanDataSource(row pgx.Row) (domain.DataSource, error) {
	var ds domain.DataSource
	err := row.Scan(
		&ds.DsID,
		&ds.Name,
		&ds.Description,
		&ds.SearchRadius,
		&ds.Comments,
		&ds.RegionID,
		&ds.AssignedUserID,
		&ds.Created,
		&ds.CreatedBy,
		&ds.LastUpdated,
		&ds.UpdatedBy,
		&ds.WarehouseTypeID,
		&ds.CollectionWorkflow,
		&ds.LoadWorkflow,
		&ds.CheckWorkflow,
	)
	return ds, err
}

func (r *dataSourceRepository) Create(ctx context.Context, ds domain.DataSource) (domain.DataSource, error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO geoflow.data_sources (
			name, description, search_radius, comments, region_id, assigned_user,
			created_by, warehouse_type_id, collection_workflow, load_workflow, check_workflow
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+dataSourceColumns,
		ds.Name,
		ds.Description,
		ds.SearchRadius,
		ds.Comments,
		ds.RegionID,
		ds.AssignedUserID,
		ds.CreatedBy,
		ds.WarehouseTypeID,
		ds.CollectionWorkflow,
		ds.LoadWorkflow,
		ds.CheckWorkflow,
	)
	created, err := scanDataSource(row)
	if err != nil {
		return domain.DataSource{}, fmt.Errorf("failed to create data source: %w", translateError(err))
	}
	return created, nil
}

func (r *dataSourceRepository) GetByID(ctx context.Context, dsID int64) (domain.DataSource, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+dataSourceColumns+` FROM geoflow.data_sources WHERE ds_id = $1`,
		dsID,
	)
	ds, err := scanDataSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DataSource{}, domain.NotFound{Kind: "data source", ID: dsID}
		}
		return domain.DataSource{}, fmt.Errorf("failed to get data source: %w", err)
	}
	return ds, nil
}

func (r *dataSourceRepository) List(ctx context.Context) ([]domain.DataSource, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+dataSourceColumns+` FROM geoflow.data_sources ORDER BY ds_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	sources := []domain.DataSource{}
	for rows.Next() {
		ds, err := scanDataSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data source: %w", err)
		}
		sources = append(sources, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate data sources: %w", err)
	}
	return sources, nil
}

func (r *dataSourceRepository) Update(ctx context.Context, ds domain.DataSource) (domain.DataSource, error) {
	row := r.db.QueryRow(
		ctx,
		`UPDATE geoflow.data_sources SET
			name = $2,
			description = $3,
			search_radius = $4,
			comments = $5,
			region_id = $6,
			assigned_user = $7,
			last_updated = now(),
			updated_by = $8,
			warehouse_type_id = $9,
			collection_workflow = $10,
			load_workflow = $11,
			check_workflow = $12
		 WHERE ds_id = $1
		 RETURNING `+dataSourceColumns,
		ds.DsID,
		ds.Name,
		ds.Description,
		ds.SearchRadius,
		ds.Comments,
		ds.RegionID,
		ds.AssignedUserID,
		ds.UpdatedBy,
		ds.WarehouseTypeID,
		ds.CollectionWorkflow,
		ds.LoadWorkflow,
		ds.CheckWorkflow,
	)
	updated, err := scanDataSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DataSource{}, domain.NotFound{Kind: "data source", ID: ds.DsID}
		}
		return domain.DataSource{}, fmt.Errorf("failed to update data source: %w", translateError(err))
	}
	return updated, nil
}
