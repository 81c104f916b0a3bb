package workflow

import (
	"github.com/geoflow/geoflow/internal/domain"
)

// Row images mirror the flat column layout of each audited table, so diffs in
// the audit log line up with what a DBA sees in the schema.

func dataSourceImage(ds domain.DataSource) domain.RowImage {
	return domain.RowImage{
		"ds_id":               ds.DsID,
		"name":                ds.Name,
		"description":         ds.Description,
		"search_radius":       ds.SearchRadius,
		"comments":            ds.Comments,
		"region_id":           ds.RegionID,
		"assigned_user":       ds.AssignedUserID,
		"created":             ds.Created,
		"created_by":          ds.CreatedBy,
		"last_updated":        ds.LastUpdated,
		"updated_by":          ds.UpdatedBy,
		"warehouse_type_id":   ds.WarehouseTypeID,
		"collection_workflow": ds.CollectionWorkflow,
		"load_workflow":       ds.LoadWorkflow,
		"check_workflow":      ds.CheckWorkflow,
	}
}

func loadInstanceImage(li domain.LoadInstance) domain.RowImage {
	return domain.RowImage{
		"li_id":                   li.LiID,
		"ds_id":                   li.DsID,
		"version_date":            li.VersionDate,
		"state":                   li.State,
		"merge_type":              li.MergeType,
		"production_count":        li.ProductionCount,
		"staging_count":           li.StagingCount,
		"match_count":             li.MatchCount,
		"new_count":               li.NewCount,
		"statistics":              li.Statistics,
		"collect_user_id":         li.Collect.UserID,
		"collect_start":           li.Collect.Start,
		"collect_finish":          li.Collect.Finish,
		"collect_workflow_id":     li.Collect.WorkflowID,
		"collect_workflow_run_id": li.Collect.RunID,
		"load_user_id":            li.Load.UserID,
		"load_start":              li.Load.Start,
		"load_finish":             li.Load.Finish,
		"load_workflow_id":        li.Load.WorkflowID,
		"load_workflow_run_id":    li.Load.RunID,
		"check_user_id":           li.Check.UserID,
		"check_start":             li.Check.Start,
		"check_finish":            li.Check.Finish,
		"check_workflow_id":       li.Check.WorkflowID,
		"check_workflow_run_id":   li.Check.RunID,
		"done":                    li.Done,
		"created":                 li.Created,
		"last_updated":            li.LastUpdated,
	}
}

func sourceDataImage(sd domain.SourceData) domain.RowImage {
	return domain.RowImage{
		"sd_id":            sd.SdID,
		"li_id":            sd.LiID,
		"load_source_id":   sd.LoadSourceID,
		"user_generated":   sd.UserGenerated,
		"options":          sd.Options,
		"table_name":       sd.TableName,
		"columns":          sd.Columns,
		"to_load":          sd.ToLoad,
		"loaded_timestamp": sd.LoadedTimestamp,
		"error_message":    sd.ErrorMessage,
	}
}

func userImage(u domain.User) domain.RowImage {
	return domain.RowImage{
		"uid":      u.UID,
		"name":     u.Name,
		"username": u.Username,
		"password": u.PasswordHash,
	}
}

func plottingFieldsImage(pf domain.PlottingFields) domain.RowImage {
	return domain.RowImage{
		"sd_id":   pf.SdID,
		"address": pf.Address,
		"city":    pf.City,
		"lat":     pf.Lat,
		"long":    pf.Long,
	}
}
