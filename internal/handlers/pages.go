package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/slatecms/apiserver/internal/access"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// PageHandler provides HTTP handlers for pages and their section
// sub-resources.
type PageHandler struct {
	pageService    *services.PageService
	sectionService *services.SectionService
	userService    *services.UserService
}

// NewPageHandler constructs a handler with the provided services.
func NewPageHandler(
	pageService *services.PageService,
	sectionService *services.SectionService,
	userService *services.UserService,
) *PageHandler {
	return &PageHandler{
		pageService:    pageService,
		sectionService: sectionService,
		userService:    userService,
	}
}

// PageRouter registers page routes on the given router.
func PageRouter(
	r chi.Router,
	pageService *services.PageService,
	sectionService *services.SectionService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
	optionalAuthMiddleware func(http.Handler) http.Handler,
) {
	handler := NewPageHandler(pageService, sectionService, userService)

	r.With(optionalAuthMiddleware).Get("/", handler.ListPages)
	r.With(authMiddleware).Post("/", handler.CreatePage)
	r.With(optionalAuthMiddleware).Get("/slug/{slug}", handler.GetPageBySlug)
	r.Route("/{pageID}", func(r chi.Router) {
		r.With(optionalAuthMiddleware).Get("/", handler.GetPage)
		r.With(authMiddleware).Put("/", handler.UpdatePage)
		r.With(authMiddleware).Delete("/", handler.DeletePage)
		r.With(authMiddleware).Post("/publish", handler.PublishPage)
		r.With(authMiddleware).Post("/homepage", handler.SetHomepage)
		r.With(optionalAuthMiddleware).Get("/sections", handler.ListSections)
		r.With(authMiddleware).Post("/sections", handler.CreateSection)
	})
}

// ListPages lists pages. Anonymous callers and callers browsing other
// users only ever see published pages; owners and staff see everything
// when asking for their own pages via mine=true.
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	filter := store.PageFilter{Status: r.URL.Query().Get("status")}
	mine := r.URL.Query().Get("mine") == "true"
	switch {
	case actor == nil:
		filter.Status = types.PageStatusPublished
	case mine:
		filter.UserID = &actor.UserID
	case actor.IsStaff:
		// Staff may browse everything, optionally narrowed by user_id.
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid user_id")
				return
			}
			filter.UserID = &userID
		}
	default:
		filter.Status = types.PageStatusPublished
	}

	items, total, err := h.pageService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}

	writeJSON(w, http.StatusOK, PageListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, actor, ok := h.loadPageForRead(w, r)
	if !ok {
		return
	}

	if countsView(actor, page) {
		_ = h.pageService.RecordView(r.Context(), page.ID)
	}
	writeJSON(w, http.StatusOK, page)
}

// GetPageBySlug resolves a page by its slug. This is the route public
// renderers hit, so published pages count a view here too.
func (h *PageHandler) GetPageBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.pageService.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch page")
		return
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	if err := access.CanRead(actor, page, page.IsPublished()); err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	if countsView(actor, page) {
		_ = h.pageService.RecordView(r.Context(), page.ID)
	}

	sections, err := h.sectionService.ListByPage(r.Context(), page.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sections")
		return
	}

	writeJSON(w, http.StatusOK, PageResponse{Page: page, Sections: sections})
}

func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r, h.userService)
	if err != nil || actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, sections, err := h.pageService.Create(r.Context(), services.CreatePageInput{
		UserID:     actor.UserID,
		Title:      req.Title,
		Slug:       req.Slug,
		TemplateID: req.TemplateID,
		Status:     req.Status,
		SEOMeta:    req.SEOMeta,
		IsHomepage: req.IsHomepage,
	})
	if err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	writeJSON(w, http.StatusCreated, PageResponse{Page: created, Sections: sections})
}

func (h *PageHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForMutate(w, r)
	if !ok {
		return
	}

	var req PageUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.pageService.Update(r.Context(), page, services.UpdatePageInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Status:  req.Status,
		SEOMeta: req.SEOMeta,
	})
	if err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// PublishPage flips the page to published.
func (h *PageHandler) PublishPage(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForMutate(w, r)
	if !ok {
		return
	}

	status := types.PageStatusPublished
	updated, err := h.pageService.Update(r.Context(), page, services.UpdatePageInput{Status: &status})
	if err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// SetHomepage flags the page as its owner's homepage. Every other page
// of the same owner loses the flag in the same transaction.
func (h *PageHandler) SetHomepage(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForMutate(w, r)
	if !ok {
		return
	}

	updated, err := h.pageService.SetHomepage(r.Context(), page)
	if err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForMutate(w, r)
	if !ok {
		return
	}

	if err := h.pageService.Delete(r.Context(), page); err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForRead(w, r)
	if !ok {
		return
	}

	sections, err := h.sectionService.ListByPage(r.Context(), page.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sections")
		return
	}

	writeJSON(w, http.StatusOK, sections)
}

// CreateSection appends a section to the page. This page-scoped route is
// the only way to create sections by hand; the generic /sections
// collection rejects creation outright.
func (h *PageHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	page, _, ok := h.loadPageForMutate(w, r)
	if !ok {
		return
	}

	var req SectionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.sectionService.Create(r.Context(), services.CreateSectionInput{
		PageID:     page.ID,
		Type:       req.Type,
		Properties: req.Properties,
		ThemeKey:   req.ThemeKey,
		CategoryID: req.CategoryID,
		Order:      req.Order,
	})
	if err != nil {
		writeServiceError(w, err, "page not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// countsView reports whether serving the page to actor is a public
// render for view counting. Every published read counts except the
// owner previewing their own page.
func countsView(actor *access.Identity, page types.Page) bool {
	if !page.IsPublished() {
		return false
	}
	return actor == nil || actor.UserID != page.UserID
}

func (h *PageHandler) loadPageForRead(w http.ResponseWriter, r *http.Request) (types.Page, *access.Identity, bool) {
	id, err := parseIDParam(r, "pageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Page{}, nil, false
	}

	page, err := h.pageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return types.Page{}, nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch page")
		return types.Page{}, nil, false
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return types.Page{}, nil, false
	}

	if err := access.CanRead(actor, page, page.IsPublished()); err != nil {
		writeServiceError(w, err, "page not found")
		return types.Page{}, nil, false
	}
	return page, actor, true
}

func (h *PageHandler) loadPageForMutate(w http.ResponseWriter, r *http.Request) (types.Page, *access.Identity, bool) {
	id, err := parseIDParam(r, "pageID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Page{}, nil, false
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return types.Page{}, nil, false
	}
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Page{}, nil, false
	}

	page, err := h.pageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "page not found")
			return types.Page{}, nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch page")
		return types.Page{}, nil, false
	}

	if err := access.CanMutate(actor, page); err != nil {
		writeServiceError(w, err, "page not found")
		return types.Page{}, nil, false
	}
	return page, actor, true
}

type PageCreateRequest struct {
	Title      string         `json:"title"`
	Slug       string         `json:"slug"`
	TemplateID *uuid.UUID     `json:"template_id"`
	Status     string         `json:"status"`
	SEOMeta    map[string]any `json:"seo_meta"`
	IsHomepage bool           `json:"is_homepage"`
}

type PageUpdateRequest struct {
	Title   *string        `json:"title"`
	Slug    *string        `json:"slug"`
	Status  *string        `json:"status"`
	SEOMeta map[string]any `json:"seo_meta"`
}

// PageResponse bundles a page with its (possibly just instantiated)
// sections.
type PageResponse struct {
	Page     types.Page      `json:"page"`
	Sections []types.Section `json:"sections"`
}

// PageListResponse is the paginated list response payload.
type PageListResponse struct {
	Items []types.Page `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

type SectionCreateRequest struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	ThemeKey   string         `json:"theme_key"`
	CategoryID *uuid.UUID     `json:"category_id"`
	Order      int            `json:"order"`
}
