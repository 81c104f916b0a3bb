package server

import (
	"net/http"
)

// Routes registers the versioned API onto the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/login", h.login)

	mux.HandleFunc("GET /api/v1/users", h.listUsers)
	mux.HandleFunc("POST /api/v1/users", h.createUser)
	mux.HandleFunc("GET /api/v1/users/{uid}", h.getUser)
	mux.HandleFunc("PATCH /api/v1/users/{uid}/name", h.updateUserName)
	mux.HandleFunc("PATCH /api/v1/users/{uid}/password", h.updateUserPassword)
	mux.HandleFunc("POST /api/v1/users/{uid}/roles", h.addUserRole)
	mux.HandleFunc("DELETE /api/v1/users/{uid}/roles/{role}", h.removeUserRole)

	mux.HandleFunc("GET /api/v1/roles", h.listRoles)
	mux.HandleFunc("GET /api/v1/regions", h.listRegions)
	mux.HandleFunc("GET /api/v1/warehouse_types", h.listWarehouseTypes)
	mux.HandleFunc("GET /api/v1/plotting_methods", h.listPlottingMethods)

	mux.HandleFunc("GET /api/v1/data_sources", h.listDataSources)
	mux.HandleFunc("POST /api/v1/data_sources", h.createDataSource)
	mux.HandleFunc("GET /api/v1/data_sources/{ds_id}", h.getDataSource)
	mux.HandleFunc("PUT /api/v1/data_sources/{ds_id}", h.updateDataSource)
	mux.HandleFunc("GET /api/v1/data_sources/{ds_id}/load_instances", h.listLoadInstances)

	mux.HandleFunc("POST /api/v1/load_instances", h.initLoadInstance)
	mux.HandleFunc("GET /api/v1/load_instances/{li_id}", h.getLoadInstance)
	mux.HandleFunc("PUT /api/v1/load_instances/{li_id}", h.updateLoadInstance)
	mux.HandleFunc("GET /api/v1/load_instances/{li_id}/source_data", h.listSourceData)

	mux.HandleFunc("POST /api/v1/source_data", h.createSourceData)
	mux.HandleFunc("GET /api/v1/source_data/{sd_id}", h.getSourceData)
	mux.HandleFunc("PUT /api/v1/source_data/{sd_id}", h.updateSourceData)
	mux.HandleFunc("DELETE /api/v1/source_data/{sd_id}", h.deleteSourceData)

	mux.HandleFunc("GET /api/v1/source_data/{sd_id}/plotting_steps", h.listPlottingSteps)
	mux.HandleFunc("PUT /api/v1/source_data/{sd_id}/plotting_steps", h.replacePlottingSteps)
	mux.HandleFunc("GET /api/v1/source_data/{sd_id}/plotting_fields", h.getPlottingFields)
	mux.HandleFunc("PUT /api/v1/source_data/{sd_id}/plotting_fields", h.savePlottingFields)

	mux.HandleFunc("GET /api/v1/audit/{table}", h.listAuditLog)
	mux.HandleFunc("POST /api/v1/audit/{table}/export", h.exportAuditLog)
}
