package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// roleRepository reads the fixed role catalog. Roles are seeded by migration
// and never mutated at runtime.
type roleRepository struct {
	db DBTX
}

func NewRoleRepository(db DBTX) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT role_id, name, description FROM geoflow.roles ORDER BY role_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.RoleID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRow(
		ctx,
		`SELECT role_id, name, description FROM geoflow.roles WHERE name = $1`,
		name,
	).Scan(&role.RoleID, &role.Name, &role.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Role{}, domain.NotFound{Kind: "role", ID: 0}
		}
		return domain.Role{}, fmt.Errorf("failed to get role %q: %w", name, err)
	}
	return role, nil
}

// lookupRepository reads the reference lookup tables.
type lookupRepository struct {
	db DBTX
}

func NewLookupRepository(db DBTX) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) ListRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT region_id, country_code, country_name, prov_code, prov_name, county
		 FROM geoflow.regions
		 ORDER BY region_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	regions := []domain.Region{}
	for rows.Next() {
		var region domain.Region
		if err := rows.Scan(
			&region.RegionID,
			&region.CountryCode,
			&region.CountryName,
			&region.ProvCode,
			&region.ProvName,
			&region.County,
		); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regions: %w", err)
	}
	return regions, nil
}

func (r *lookupRepository) ListWarehouseTypes(ctx context.Context) ([]domain.WarehouseType, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT wt_id, name, description FROM geoflow.warehouse_types ORDER BY wt_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouse types: %w", err)
	}
	defer rows.Close()

	types := []domain.WarehouseType{}
	for rows.Next() {
		var wt domain.WarehouseType
		if err := rows.Scan(&wt.WtID, &wt.Name, &wt.Description); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse type: %w", err)
		}
		types = append(types, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate warehouse types: %w", err)
	}
	return types, nil
}

func (r *lookupRepository) ListPlottingMethods(ctx context.Context) ([]domain.PlottingMethod, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT method_id, name, description FROM geoflow.plotting_methods ORDER BY method_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plotting methods: %w", err)
	}
	defer rows.Close()

	methods := []domain.PlottingMethod{}
	for rows.Next() {
		var method domain.PlottingMethod
		if err := rows.Scan(&method.MethodID, &method.Name, &method.Description); err != nil {
			return nil, fmt.Errorf("failed to scan plotting method: %w", err)
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plotting methods: %w", err)
	}
	return methods, nil
}
