package domain

import (
	"strings"
	"time"
)

// DataSource describes one registered provider of geographic data and the
// workflow identifiers used to re-collect it.
type DataSource struct {
	DsID               int64      `json:"ds_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	SearchRadius       float64    `json:"search_radius"`
	Comments           *string    `json:"comments,omitempty"`
	RegionID           int64      `json:"region_id"`
	AssignedUserID     int64      `json:"assigned_user"`
	Created            time.Time  `json:"created"`
	CreatedBy          int64      `json:"created_by"`
	LastUpdated        *time.Time `json:"last_updated,omitempty"`
	UpdatedBy          *int64     `json:"updated_by,omitempty"`
	WarehouseTypeID    int64      `json:"warehouse_type_id"`
	CollectionWorkflow int64      `json:"collection_workflow"`
	LoadWorkflow       int64      `json:"load_workflow"`
	CheckWorkflow      int64      `json:"check_workflow"`
}

// DataSourceRequest carries the caller supplied fields of a create or update.
type DataSourceRequest struct {
	DsID               int64   `json:"ds_id,omitempty"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	SearchRadius       float64 `json:"search_radius"`
	Comments           *string `json:"comments,omitempty"`
	RegionID           int64   `json:"region_id"`
	AssignedUserID     int64   `json:"assigned_user,omitempty"`
	WarehouseTypeID    int64   `json:"warehouse_type_id"`
	CollectionWorkflow int64   `json:"collection_workflow"`
	LoadWorkflow       int64   `json:"load_workflow"`
	CheckWorkflow      int64   `json:"check_workflow"`
}

// Validate checks the request fields that do not require a store lookup.
func (r DataSourceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ValidationFailed{Field: "name", Reason: "must not be blank"}
	}
	if strings.TrimSpace(r.Description) == "" {
		return ValidationFailed{Field: "description", Reason: "must not be blank"}
	}
	if r.SearchRadius <= 0 {
		return ValidationFailed{Field: "search_radius", Reason: "must be greater than zero"}
	}
	if r.CollectionWorkflow <= 0 {
		return ValidationFailed{Field: "collection_workflow", Reason: "must be a positive workflow id"}
	}
	if r.LoadWorkflow <= 0 {
		return ValidationFailed{Field: "load_workflow", Reason: "must be a positive workflow id"}
	}
	if r.CheckWorkflow <= 0 {
		return ValidationFailed{Field: "check_workflow", Reason: "must be a positive workflow id"}
	}
	return nil
}
