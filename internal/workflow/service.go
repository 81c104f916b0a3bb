package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/geoflow/geoflow/internal/audit"
	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/metrics"
	"github.com/geoflow/geoflow/internal/repository"
)

const schemaName = "geoflow"

const (
	tableDataSources   = "data_sources"
	tableLoadInstances = "load_instances"
	tableSourceData    = "source_data"
	tableUsers         = "users"
	tablePlottingSteps = "plotting_method_steps"
	tablePlottingField = "plotting_fields"
)

// Service is the mutation surface of the lifecycle. Every write runs inside
// one unit of work covering the authorization check, the mutation, and its
// audit record.
type Service struct {
	store  *repository.Store
	uow    repository.UnitOfWork
	engine *audit.Engine
}

func NewService(store *repository.Store, uow repository.UnitOfWork, engine *audit.Engine) *Service {
	return &Service{store: store, uow: uow, engine: engine}
}

func (s *Service) require(ctx context.Context, store *repository.Store, userID int64, capability auth.Capability) error {
	gate := auth.NewGate(store.Users, store.LoadInstances)
	if err := gate.Require(ctx, userID, capability); err != nil {
		var denied auth.AuthorizationDenied
		if errors.As(err, &denied) {
			metrics.CountAuthzDenial(denied.Capability.String())
		}
		return err
	}
	return nil
}

func (s *Service) capture(ctx context.Context, store *repository.Store, session auth.Session, event audit.Event) error {
	entry, err := s.engine.Capture(ctx, store.AuditLogs, session, event)
	if err != nil {
		return err
	}
	if entry == nil {
		metrics.CountAuditSuppressed()
		return nil
	}
	metrics.CountAuditRecord(event.TableName)
	return nil
}

// --- data sources ---

func (s *Service) CreateDataSource(ctx context.Context, session auth.Session, req domain.DataSourceRequest) (domain.DataSource, error) {
	if err := req.Validate(); err != nil {
		return domain.DataSource{}, err
	}

	var created domain.DataSource
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.CreateDataSource()); err != nil {
			return err
		}

		assigned := req.AssignedUserID
		if assigned == 0 {
			assigned = session.UserID
		}
		ds := domain.DataSource{
			Name:               req.Name,
			Description:        req.Description,
			SearchRadius:       req.SearchRadius,
			Comments:           req.Comments,
			RegionID:           req.RegionID,
			AssignedUserID:     assigned,
			CreatedBy:          session.UserID,
			WarehouseTypeID:    req.WarehouseTypeID,
			CollectionWorkflow: req.CollectionWorkflow,
			LoadWorkflow:       req.LoadWorkflow,
			CheckWorkflow:      req.CheckWorkflow,
		}

		var err error
		created, err = store.DataSources.Create(ctx, ds)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableDataSources,
			RelID:      created.DsID,
			Action:     domain.AuditActionInsert,
			NewImage:   dataSourceImage(created),
		})
	})
	if err != nil {
		return domain.DataSource{}, err
	}
	metrics.CountMutation(tableDataSources, "insert")
	return created, nil
}

func (s *Service) UpdateDataSource(ctx context.Context, session auth.Session, req domain.DataSourceRequest) (domain.DataSource, error) {
	if err := req.Validate(); err != nil {
		return domain.DataSource{}, err
	}

	var updated domain.DataSource
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.UpdateDataSource()); err != nil {
			return err
		}

		current, err := store.DataSources.GetByID(ctx, req.DsID)
		if err != nil {
			return err
		}

		next := current
		next.Name = req.Name
		next.Description = req.Description
		next.SearchRadius = req.SearchRadius
		next.Comments = req.Comments
		next.RegionID = req.RegionID
		if req.AssignedUserID != 0 {
			next.AssignedUserID = req.AssignedUserID
		}
		next.WarehouseTypeID = req.WarehouseTypeID
		next.CollectionWorkflow = req.CollectionWorkflow
		next.LoadWorkflow = req.LoadWorkflow
		next.CheckWorkflow = req.CheckWorkflow
		updatedBy := session.UserID
		next.UpdatedBy = &updatedBy

		updated, err = store.DataSources.Update(ctx, next)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableDataSources,
			RelID:      updated.DsID,
			Action:     domain.AuditActionUpdate,
			OldImage:   dataSourceImage(current),
			NewImage:   dataSourceImage(updated),
		})
	})
	if err != nil {
		return domain.DataSource{}, err
	}
	metrics.CountMutation(tableDataSources, "update")
	return updated, nil
}

func (s *Service) GetDataSource(ctx context.Context, dsID int64) (domain.DataSource, error) {
	return s.store.DataSources.GetByID(ctx, dsID)
}

func (s *Service) ListDataSources(ctx context.Context) ([]domain.DataSource, error) {
	return s.store.DataSources.List(ctx)
}

// --- load instances ---

// InitLoadInstanceRequest carries the caller supplied fields of a load
// instance creation. Everything else is derived from the data source and its
// most recent prior instance.
type InitLoadInstanceRequest struct {
	DsID        int64     `json:"ds_id"`
	VersionDate time.Time `json:"version_date"`
}

func (s *Service) InitLoadInstance(ctx context.Context, session auth.Session, req InitLoadInstanceRequest) (domain.LoadInstance, error) {
	if req.VersionDate.IsZero() {
		return domain.LoadInstance{}, domain.ValidationFailed{Field: "version_date", Reason: "must be set"}
	}

	var created domain.LoadInstance
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.CreateLoadInstance()); err != nil {
			return err
		}

		ds, err := store.DataSources.GetByID(ctx, req.DsID)
		if err != nil {
			return err
		}

		// New instances inherit the merge policy of their predecessor; the
		// first instance of a data source starts with no merging.
		mergeType := domain.MergeTypeNone
		latest, err := store.LoadInstances.GetLatestForDataSource(ctx, req.DsID)
		if err != nil {
			return err
		}
		if latest != nil {
			mergeType = latest.MergeType
		}

		li := domain.LoadInstance{
			DsID:        ds.DsID,
			VersionDate: req.VersionDate,
			State:       domain.LoadStateReady,
			MergeType:   mergeType,
			Collect:     domain.PhaseDetail{WorkflowID: ds.CollectionWorkflow},
			Load:        domain.PhaseDetail{WorkflowID: ds.LoadWorkflow},
			Check:       domain.PhaseDetail{WorkflowID: ds.CheckWorkflow},
		}

		created, err = store.LoadInstances.Create(ctx, li)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableLoadInstances,
			RelID:      created.LiID,
			Action:     domain.AuditActionInsert,
			NewImage:   loadInstanceImage(created),
		})
	})
	if err != nil {
		return domain.LoadInstance{}, err
	}
	metrics.CountMutation(tableLoadInstances, "insert")
	return created, nil
}

func (s *Service) UpdateLoadInstance(ctx context.Context, session auth.Session, li domain.LoadInstance) (domain.LoadInstance, error) {
	if err := li.Validate(); err != nil {
		return domain.LoadInstance{}, err
	}

	var updated domain.LoadInstance
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(li.LiID)); err != nil {
			return err
		}

		current, err := store.LoadInstances.GetByID(ctx, li.LiID)
		if err != nil {
			return err
		}

		// The owning data source and creation stamp never move.
		next := li
		next.DsID = current.DsID
		next.Created = current.Created

		updated, err = store.LoadInstances.Update(ctx, next)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableLoadInstances,
			RelID:      updated.LiID,
			Action:     domain.AuditActionUpdate,
			OldImage:   loadInstanceImage(current),
			NewImage:   loadInstanceImage(updated),
		})
	})
	if err != nil {
		return domain.LoadInstance{}, err
	}
	metrics.CountMutation(tableLoadInstances, "update")
	return updated, nil
}

func (s *Service) GetLoadInstance(ctx context.Context, liID int64) (domain.LoadInstance, error) {
	return s.store.LoadInstances.GetByID(ctx, liID)
}

func (s *Service) ListLoadInstances(ctx context.Context, dsID int64) ([]domain.LoadInstance, error) {
	return s.store.LoadInstances.ListByDataSource(ctx, dsID)
}

// --- source data ---

func (s *Service) CreateSourceData(ctx context.Context, session auth.Session, sd domain.SourceData) (domain.SourceData, error) {
	if err := sd.Validate(); err != nil {
		return domain.SourceData{}, err
	}

	var created domain.SourceData
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(sd.LiID)); err != nil {
			return err
		}

		var err error
		created, err = store.SourceData.Create(ctx, sd)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableSourceData,
			RelID:      created.SdID,
			Action:     domain.AuditActionInsert,
			NewImage:   sourceDataImage(created),
		})
	})
	if err != nil {
		return domain.SourceData{}, err
	}
	metrics.CountMutation(tableSourceData, "insert")
	return created, nil
}

func (s *Service) UpdateSourceData(ctx context.Context, session auth.Session, sd domain.SourceData) (domain.SourceData, error) {
	if err := sd.Validate(); err != nil {
		return domain.SourceData{}, err
	}

	var updated domain.SourceData
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		current, err := store.SourceData.GetByID(ctx, sd.SdID)
		if err != nil {
			return err
		}
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(current.LiID)); err != nil {
			return err
		}

		// Ownership and the assigned sequence slot are immutable.
		next := sd
		next.LiID = current.LiID
		next.LoadSourceID = current.LoadSourceID

		updated, err = store.SourceData.Update(ctx, next)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableSourceData,
			RelID:      updated.SdID,
			Action:     domain.AuditActionUpdate,
			OldImage:   sourceDataImage(current),
			NewImage:   sourceDataImage(updated),
		})
	})
	if err != nil {
		return domain.SourceData{}, err
	}
	metrics.CountMutation(tableSourceData, "update")
	return updated, nil
}

func (s *Service) DeleteSourceData(ctx context.Context, session auth.Session, sdID int64) (domain.SourceData, error) {
	var deleted domain.SourceData
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		current, err := store.SourceData.GetByID(ctx, sdID)
		if err != nil {
			return err
		}
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(current.LiID)); err != nil {
			return err
		}

		deleted, err = store.SourceData.Delete(ctx, sdID)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableSourceData,
			RelID:      deleted.SdID,
			Action:     domain.AuditActionDelete,
			OldImage:   sourceDataImage(deleted),
		})
	})
	if err != nil {
		return domain.SourceData{}, err
	}
	metrics.CountMutation(tableSourceData, "delete")
	return deleted, nil
}

func (s *Service) GetSourceData(ctx context.Context, sdID int64) (domain.SourceData, error) {
	return s.store.SourceData.GetByID(ctx, sdID)
}

func (s *Service) ListSourceData(ctx context.Context, liID int64) ([]domain.SourceData, error) {
	return s.store.SourceData.ListByLoadInstance(ctx, liID)
}

// --- plotting ---

// ReplacePlottingSteps swaps the full ordered pipeline of one source data
// entry. The batch is validated as a set before any row moves.
func (s *Service) ReplacePlottingSteps(ctx context.Context, session auth.Session, sdID int64, steps []domain.PlottingMethodStep) ([]domain.PlottingMethodStep, error) {
	for i := range steps {
		if steps[i].SdID == 0 {
			steps[i].SdID = sdID
		}
	}
	if err := domain.ValidateStepBatch(steps); err != nil {
		return nil, err
	}
	if steps[0].SdID != sdID {
		return nil, domain.ValidationFailed{Field: "steps", Reason: "batch targets a different source data entry"}
	}

	var saved []domain.PlottingMethodStep
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		sd, err := store.SourceData.GetByID(ctx, sdID)
		if err != nil {
			return err
		}
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(sd.LiID)); err != nil {
			return err
		}

		if err := store.Plotting.ReplaceSteps(ctx, sdID, steps); err != nil {
			return err
		}
		saved, err = store.Plotting.ListSteps(ctx, sdID)
		if err != nil {
			return err
		}

		// The replace is a bulk delete+insert; a statement level record keeps
		// the log proportional to the mutation rather than the batch size.
		return s.capture(ctx, store, session, audit.Event{
			SchemaName:    schemaName,
			TableName:     tablePlottingSteps,
			RelID:         sdID,
			Action:        domain.AuditActionUpdate,
			StatementOnly: true,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.CountMutation(tablePlottingSteps, "update")
	return saved, nil
}

func (s *Service) ListPlottingSteps(ctx context.Context, sdID int64) ([]domain.PlottingMethodStep, error) {
	return s.store.Plotting.ListSteps(ctx, sdID)
}

func (s *Service) SavePlottingFields(ctx context.Context, session auth.Session, fields domain.PlottingFields) (domain.PlottingFields, error) {
	if err := fields.Validate(); err != nil {
		return domain.PlottingFields{}, err
	}

	var saved domain.PlottingFields
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		sd, err := store.SourceData.GetByID(ctx, fields.SdID)
		if err != nil {
			return err
		}
		if err := s.require(ctx, store, session.UserID, auth.UpdateLoadInstanceAsParticipant(sd.LiID)); err != nil {
			return err
		}

		current, err := store.Plotting.GetFields(ctx, fields.SdID)
		if err != nil {
			return err
		}

		saved, err = store.Plotting.UpsertFields(ctx, fields)
		if err != nil {
			return err
		}

		event := audit.Event{
			SchemaName: schemaName,
			TableName:  tablePlottingField,
			RelID:      saved.SdID,
			NewImage:   plottingFieldsImage(saved),
		}
		if current == nil {
			event.Action = domain.AuditActionInsert
		} else {
			event.Action = domain.AuditActionUpdate
			event.OldImage = plottingFieldsImage(*current)
		}
		return s.capture(ctx, store, session, event)
	})
	if err != nil {
		return domain.PlottingFields{}, err
	}
	metrics.CountMutation(tablePlottingField, "upsert")
	return saved, nil
}

func (s *Service) GetPlottingFields(ctx context.Context, sdID int64) (*domain.PlottingFields, error) {
	return s.store.Plotting.GetFields(ctx, sdID)
}

// --- lookups ---

func (s *Service) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return s.store.Lookups.ListRegions(ctx)
}

func (s *Service) ListWarehouseTypes(ctx context.Context) ([]domain.WarehouseType, error) {
	return s.store.Lookups.ListWarehouseTypes(ctx)
}

func (s *Service) ListPlottingMethods(ctx context.Context) ([]domain.PlottingMethod, error) {
	return s.store.Lookups.ListPlottingMethods(ctx)
}
