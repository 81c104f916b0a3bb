package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geoflow/geoflow/internal/domain"
)

// DBTX is the querying surface shared by pgxpool.Pool and pgx.Tx, so the
// same repository code runs inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines the interface for user and role assignment operations.
type UserRepository interface {
	Create(ctx context.Context, user domain.User, roleIDs []int64) (domain.User, error)
	GetByID(ctx context.Context, uid int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateName(ctx context.Context, uid int64, name string) error
	UpdatePassword(ctx context.Context, uid int64, passwordHash string) error
	AddRole(ctx context.Context, uid, roleID int64) error
	RemoveRole(ctx context.Context, uid, roleID int64) error
	GetRoles(ctx context.Context, uid int64) ([]domain.Role, error)
}

// RoleRepository reads the fixed role catalog.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	GetByName(ctx context.Context, name string) (domain.Role, error)
}

// LookupRepository reads the reference lookup tables.
type LookupRepository interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	ListWarehouseTypes(ctx context.Context) ([]domain.WarehouseType, error)
	ListPlottingMethods(ctx context.Context) ([]domain.PlottingMethod, error)
}

// DataSourceRepository defines the interface for data source storage.
type DataSourceRepository interface {
	Create(ctx context.Context, ds domain.DataSource) (domain.DataSource, error)
	GetByID(ctx context.Context, dsID int64) (domain.DataSource, error)
	List(ctx context.Context) ([]domain.DataSource, error)
	Update(ctx context.Context, ds domain.DataSource) (domain.DataSource, error)
}

// LoadInstanceRepository defines the interface for load instance storage.
type LoadInstanceRepository interface {
	Create(ctx context.Context, li domain.LoadInstance) (domain.LoadInstance, error)
	GetByID(ctx context.Context, liID int64) (domain.LoadInstance, error)
	ListByDataSource(ctx context.Context, dsID int64) ([]domain.LoadInstance, error)
	// GetLatestForDataSource returns the most recently created load instance
	// for the data source, or nil when none exists.
	GetLatestForDataSource(ctx context.Context, dsID int64) (*domain.LoadInstance, error)
	Update(ctx context.Context, li domain.LoadInstance) (domain.LoadInstance, error)
}

// SourceDataRepository defines the interface for source data storage.
type SourceDataRepository interface {
	// Create inserts the entry, assigning the next load source sequence
	// number within the load instance when the request carries zero.
	Create(ctx context.Context, sd domain.SourceData) (domain.SourceData, error)
	GetByID(ctx context.Context, sdID int64) (domain.SourceData, error)
	ListByLoadInstance(ctx context.Context, liID int64) ([]domain.SourceData, error)
	Update(ctx context.Context, sd domain.SourceData) (domain.SourceData, error)
	Delete(ctx context.Context, sdID int64) (domain.SourceData, error)
}

// PlottingRepository defines the interface for plotting pipeline storage.
type PlottingRepository interface {
	// ReplaceSteps swaps the full ordered step set of one source data entry.
	ReplaceSteps(ctx context.Context, sdID int64, steps []domain.PlottingMethodStep) error
	ListSteps(ctx context.Context, sdID int64) ([]domain.PlottingMethodStep, error)
	UpsertFields(ctx context.Context, fields domain.PlottingFields) (domain.PlottingFields, error)
	GetFields(ctx context.Context, sdID int64) (*domain.PlottingFields, error)
}

// AuditLogRepository appends and reads change-capture records. There is no
// update or delete; the log is append only.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	ListByTable(ctx context.Context, tableName string, limit, offset int) ([]domain.AuditLogEntry, error)
}

// Store bundles every repository over one querying surface. Tx-scoped stores
// are built per unit of work so a mutation, its invariant reads, and its
// audit append share a transaction.
type Store struct {
	Users         UserRepository
	Roles         RoleRepository
	Lookups       LookupRepository
	DataSources   DataSourceRepository
	LoadInstances LoadInstanceRepository
	SourceData    SourceDataRepository
	Plotting      PlottingRepository
	AuditLogs     AuditLogRepository
}

// NewStore wires the pgx repositories over the given querying surface.
func NewStore(db DBTX) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Roles:         NewRoleRepository(db),
		Lookups:       NewLookupRepository(db),
		DataSources:   NewDataSourceRepository(db),
		LoadInstances: NewLoadInstanceRepository(db),
		SourceData:    NewSourceDataRepository(db),
		Plotting:      NewPlottingRepository(db),
		AuditLogs:     NewAuditLogRepository(db),
	}
}

// UnitOfWork runs a function against a tx-scoped store; either everything
// inside the function becomes visible together or nothing does.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, store *Store) error) error
}
