package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/internal/pagination"
)

const templateEntity = "notification template"

// ListTemplates handles GET /v1/notification-templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())

	page, err := pagination.ParsePageRequest(r)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}

	result, err := h.templates.GetList(r.Context(), tenant.OrganizationID, tenant.EnvironmentID, page)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListActiveTemplates handles GET /v1/notification-templates/active.
// Without the active query parameter every template is returned.
func (h *Handler) ListActiveTemplates(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())

	params := types.ActiveListParams{Active: r.URL.Query().Get("active")}
	if err := h.validate.Struct(params); err != nil {
		h.respondValidationError(w, err)
		return
	}

	var active *bool
	if params.Active != "" {
		v, _ := strconv.ParseBool(params.Active)
		active = &v
	}

	templates, err := h.templates.GetActiveList(r.Context(), tenant.OrganizationID, tenant.EnvironmentID, active)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, types.NewTemplatesResponse(templates))
}

// GetByTrigger handles GET /v1/notification-templates/triggers/{identifier}.
func (h *Handler) GetByTrigger(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())
	identifier := chi.URLParam(r, "identifier")

	tpl, err := h.templates.FindByTriggerIdentifier(r.Context(), tenant.EnvironmentID, identifier)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	if tpl == nil {
		h.respondError(w, http.StatusNotFound, "could not find "+templateEntity+" with trigger "+identifier)
		return
	}

	h.respondJSON(w, http.StatusOK, tpl)
}

// GetTemplate handles GET /v1/notification-templates/{id}.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())

	id, ok := h.templateID(w, r)
	if !ok {
		return
	}

	tpl, err := h.templates.FindByID(r.Context(), id, tenant.OrganizationID)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	if tpl == nil {
		h.respondRepoError(w, r, notFound("find", id))
		return
	}

	h.respondJSON(w, http.StatusOK, tpl)
}

// DeleteTemplate handles DELETE /v1/notification-templates/{id}. Templates of
// other organizations are reported as missing.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())

	id, ok := h.templateID(w, r)
	if !ok {
		return
	}

	tpl, err := h.templates.FindByID(r.Context(), id, tenant.OrganizationID)
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	if tpl == nil {
		h.respondRepoError(w, r, notFound("delete", id))
		return
	}

	if err := h.templates.Delete(r.Context(), id); err != nil {
		h.respondRepoError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDeletedTemplate handles GET /v1/notification-templates/{id}/deleted.
func (h *Handler) GetDeletedTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, _ := TenantFromContext(r.Context())

	id, ok := h.templateID(w, r)
	if !ok {
		return
	}

	oid, _ := models.ParseID(id)
	envID, _ := models.ParseID(tenant.EnvironmentID)

	tpl, err := h.templates.FindDeleted(r.Context(), mongodb.Filter{
		"_id":            oid,
		"_environmentId": envID,
	})
	if err != nil {
		h.respondRepoError(w, r, err)
		return
	}
	if tpl == nil {
		h.respondRepoError(w, r, notFound("find deleted", id))
		return
	}

	h.respondJSON(w, http.StatusOK, tpl)
}

// templateID validates the {id} path parameter, writing a 400 when invalid.
func (h *Handler) templateID(w http.ResponseWriter, r *http.Request) (string, bool) {
	param := types.TemplateIDParam{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(param); err != nil {
		h.respondValidationError(w, err)
		return "", false
	}
	return param.ID, true
}

func notFound(op, id string) error {
	return &repository.DalError{Op: op, Entity: templateEntity, ID: id, Err: repository.ErrNotFound}
}
