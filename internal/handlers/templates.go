package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// TemplateHandler provides HTTP handlers for templates. Reads are
// public; writes are staff only.
type TemplateHandler struct {
	templateService *services.TemplateService
	userService     *services.UserService
}

func NewTemplateHandler(templateService *services.TemplateService, userService *services.UserService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, userService: userService}
}

// TemplateRouter registers template routes on the given router.
func TemplateRouter(
	r chi.Router,
	templateService *services.TemplateService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTemplateHandler(templateService, userService)

	r.Get("/", handler.ListTemplates)
	r.With(authMiddleware, handler.requireStaff).Post("/", handler.CreateTemplate)
	r.Route("/{templateID}", func(r chi.Router) {
		r.Get("/", handler.GetTemplate)
		r.With(authMiddleware, handler.requireStaff).Put("/", handler.UpdateTemplate)
		r.With(authMiddleware, handler.requireStaff).Delete("/", handler.DeleteTemplate)
	})
}

func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.templateService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}

	writeJSON(w, http.StatusOK, TemplateListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "templateID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := h.templateService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch template")
		return
	}

	writeJSON(w, http.StatusOK, tpl)
}

func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.templateService.Create(r.Context(), types.Template{
		Name:        req.Name,
		Description: req.Description,
		Theme:       req.Theme,
		Structure:   req.Structure,
	})
	if err != nil {
		writeServiceError(w, err, "template not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "templateID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.templateService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch template")
		return
	}

	var req TemplateUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Theme = req.Theme
	existing.Structure = req.Structure

	updated, err := h.templateService.Update(r.Context(), existing)
	if err != nil {
		writeServiceError(w, err, "template not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteTemplate removes a template. Pages created from it keep their
// sections and simply lose the template reference.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "templateID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.templateService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplateHandler) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := h.userService.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		if !user.IsStaff || !user.IsActive {
			writeError(w, http.StatusForbidden, "staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type TemplateUpsertRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Theme       string              `json:"theme"`
	Structure   []types.SectionSpec `json:"structure"`
}

// TemplateListResponse is the paginated list response payload.
type TemplateListResponse struct {
	Items []types.Template `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}
