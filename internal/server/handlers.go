package server

import (
	"net/http"
	"strconv"

	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/export"
	"github.com/geoflow/geoflow/internal/workflow"
)

// Handler serves the JSON API over the workflow service.
type Handler struct {
	service  *workflow.Service
	exporter *export.Service
}

func NewHandler(service *workflow.Service, exporter *export.Service) *Handler {
	return &Handler{service: service, exporter: exporter}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// --- auth ---

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- users ---

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Name     string   `json:"name"`
		Username string   `json:"username"`
		Password string   `json:"password"`
		Roles    []string `json:"roles"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), session, req.Name, req.Username, req.Password, req.Roles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) updateUserName(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.UpdateUserName(r.Context(), session, uid, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) updateUserPassword(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.UpdateUserPassword(r.Context(), session, uid, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) addUserRole(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.AddUserRole(r.Context(), session, uid, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) removeUserRole(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	user, err := h.service.RemoveUserRole(r.Context(), session, uid, r.PathValue("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- lookups ---

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

func (h *Handler) listWarehouseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListWarehouseTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *Handler) listPlottingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListPlottingMethods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

// --- data sources ---

func (h *Handler) createDataSource(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req domain.DataSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ds, err := h.service.CreateDataSource(r.Context(), session, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

func (h *Handler) listDataSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListDataSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *Handler) getDataSource(w http.ResponseWriter, r *http.Request) {
	dsID, ok := pathID(w, r, "ds_id")
	if !ok {
		return
	}
	ds, err := h.service.GetDataSource(r.Context(), dsID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) updateDataSource(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	dsID, ok := pathID(w, r, "ds_id")
	if !ok {
		return
	}
	var req domain.DataSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DsID = dsID
	ds, err := h.service.UpdateDataSource(r.Context(), session, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// --- load instances ---

func (h *Handler) initLoadInstance(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req workflow.InitLoadInstanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	li, err := h.service.InitLoadInstance(r.Context(), session, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, li)
}

func (h *Handler) listLoadInstances(w http.ResponseWriter, r *http.Request) {
	dsID, ok := pathID(w, r, "ds_id")
	if !ok {
		return
	}
	instances, err := h.service.ListLoadInstances(r.Context(), dsID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

func (h *Handler) getLoadInstance(w http.ResponseWriter, r *http.Request) {
	liID, ok := pathID(w, r, "li_id")
	if !ok {
		return
	}
	li, err := h.service.GetLoadInstance(r.Context(), liID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (h *Handler) updateLoadInstance(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	liID, ok := pathID(w, r, "li_id")
	if !ok {
		return
	}
	var li domain.LoadInstance
	if !decodeJSON(w, r, &li) {
		return
	}
	li.LiID = liID
	updated, err := h.service.UpdateLoadInstance(r.Context(), session, li)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- source data ---

func (h *Handler) createSourceData(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var sd domain.SourceData
	if !decodeJSON(w, r, &sd) {
		return
	}
	created, err := h.service.CreateSourceData(r.Context(), session, sd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listSourceData(w http.ResponseWriter, r *http.Request) {
	liID, ok := pathID(w, r, "li_id")
	if !ok {
		return
	}
	entries, err := h.service.ListSourceData(r.Context(), liID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getSourceData(w http.ResponseWriter, r *http.Request) {
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	sd, err := h.service.GetSourceData(r.Context(), sdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sd)
}

func (h *Handler) updateSourceData(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	var sd domain.SourceData
	if !decodeJSON(w, r, &sd) {
		return
	}
	sd.SdID = sdID
	updated, err := h.service.UpdateSourceData(r.Context(), session, sd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSourceData(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	deleted, err := h.service.DeleteSourceData(r.Context(), session, sdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// --- plotting ---

func (h *Handler) replacePlottingSteps(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	var steps []domain.PlottingMethodStep
	if !decodeJSON(w, r, &steps) {
		return
	}
	saved, err := h.service.ReplacePlottingSteps(r.Context(), session, sdID, steps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) listPlottingSteps(w http.ResponseWriter, r *http.Request) {
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	steps, err := h.service.ListPlottingSteps(r.Context(), sdID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

func (h *Handler) savePlottingFields(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	var fields domain.PlottingFields
	if !decodeJSON(w, r, &fields) {
		return
	}
	fields.SdID = sdID
	saved, err := h.service.SavePlottingFields(r.Context(), session, fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) getPlottingFields(w http.ResponseWriter, r *http.Request) {
	sdID, ok := pathID(w, r, "sd_id")
	if !ok {
		return
	}
	fields, err := h.service.GetPlottingFields(r.Context(), sdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if fields == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no plotting fields recorded"})
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// --- audit ---

func (h *Handler) listAuditLog(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	entries, err := h.service.ListAuditLog(r.Context(), session, r.PathValue("table"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) exportAuditLog(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	table := r.PathValue("table")
	limit, offset := pagination(r)
	// Reuse the admin gate on the list path before writing anything to disk.
	if _, err := h.service.ListAuditLog(r.Context(), session, table, 1, 0); err != nil {
		writeError(w, err)
		return
	}
	path, err := h.exporter.ExportAuditLog(r.Context(), table, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+table+"_audit.xlsx\"")
	http.ServeFile(w, r, path)
}
