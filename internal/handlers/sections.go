package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/slatecms/apiserver/internal/access"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/storage"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

const maxUploadMemory = 32 << 20

// SectionHandler provides HTTP handlers for sections and their element
// sub-resources. Authorization always walks up to the owning page.
type SectionHandler struct {
	sectionService *services.SectionService
	elementService *services.ElementService
	pageService    *services.PageService
	userService    *services.UserService
	media          *storage.Media
}

func NewSectionHandler(
	sectionService *services.SectionService,
	elementService *services.ElementService,
	pageService *services.PageService,
	userService *services.UserService,
	media *storage.Media,
) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		elementService: elementService,
		pageService:    pageService,
		userService:    userService,
		media:          media,
	}
}

// SectionRouter registers section routes on the given router. Sections
// are never created here; creation only happens through the owning
// page's sections route, so the collection POST answers 405.
func SectionRouter(
	r chi.Router,
	sectionService *services.SectionService,
	elementService *services.ElementService,
	pageService *services.PageService,
	userService *services.UserService,
	media *storage.Media,
	authMiddleware func(http.Handler) http.Handler,
	optionalAuthMiddleware func(http.Handler) http.Handler,
) {
	handler := NewSectionHandler(sectionService, elementService, pageService, userService, media)

	r.Post("/", handler.CreateLocked)
	r.Route("/{sectionID}", func(r chi.Router) {
		r.With(optionalAuthMiddleware).Get("/", handler.GetSection)
		r.With(authMiddleware).Put("/", handler.UpdateSection)
		r.With(authMiddleware).Delete("/", handler.DeleteSection)
		r.With(authMiddleware).Post("/image", handler.UploadImage)
		r.With(optionalAuthMiddleware).Get("/elements", handler.ListElements)
		r.With(authMiddleware).Post("/elements", handler.CreateElement)
	})
}

// CreateLocked rejects direct section creation. Sections only exist
// inside a page, so clients must POST to /pages/{pageID}/sections.
func (h *SectionHandler) CreateLocked(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "sections are created through their page")
}

func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section, _, _, ok := h.loadSectionForRead(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	section, ok := h.loadSectionForMutate(w, r)
	if !ok {
		return
	}

	var req SectionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.sectionService.Update(r.Context(), section, services.UpdateSectionInput{
		Type:       req.Type,
		Properties: req.Properties,
		ThemeKey:   req.ThemeKey,
		CategoryID: req.CategoryID,
		Order:      req.Order,
	})
	if err != nil {
		writeServiceError(w, err, "section not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	section, ok := h.loadSectionForMutate(w, r)
	if !ok {
		return
	}

	if err := h.sectionService.Delete(r.Context(), section); err != nil {
		writeServiceError(w, err, "section not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores an uploaded image for the section and records its
// object key. A previously stored image is removed.
func (h *SectionHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	section, ok := h.loadSectionForMutate(w, r)
	if !ok {
		return
	}

	key, ok := h.storeUpload(w, r)
	if !ok {
		return
	}

	updated, err := h.sectionService.SetImage(r.Context(), section, key)
	if err != nil {
		writeServiceError(w, err, "section not found")
		return
	}

	writeJSON(w, http.StatusOK, SectionImageResponse{
		Section:  updated,
		ImageURL: h.media.URL(key),
	})
}

func (h *SectionHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	section, _, _, ok := h.loadSectionForRead(w, r)
	if !ok {
		return
	}

	elements, err := h.elementService.ListBySection(r.Context(), section.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list elements")
		return
	}

	writeJSON(w, http.StatusOK, elements)
}

func (h *SectionHandler) CreateElement(w http.ResponseWriter, r *http.Request) {
	section, ok := h.loadSectionForMutate(w, r)
	if !ok {
		return
	}

	var req ElementCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.elementService.Create(r.Context(), services.CreateElementInput{
		SectionID: section.ID,
		Type:      req.Type,
		X:         req.X,
		Y:         req.Y,
		Width:     req.Width,
		Height:    req.Height,
		ZIndex:    req.ZIndex,
		Content:   req.Content,
		Style:     req.Style,
	})
	if err != nil {
		writeServiceError(w, err, "section not found")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// storeUpload reads the multipart "image" field and writes it to the
// media backend, returning the stored object key.
func (h *SectionHandler) storeUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, "media storage is not configured")
		return "", false
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.Key("sections", header.Filename)
	if err := h.media.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return "", false
	}
	return key, true
}

func (h *SectionHandler) loadSectionForRead(w http.ResponseWriter, r *http.Request) (types.Section, types.Page, *access.Identity, bool) {
	section, page, ok := h.resolveSection(w, r)
	if !ok {
		return types.Section{}, types.Page{}, nil, false
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return types.Section{}, types.Page{}, nil, false
	}

	if err := access.CanRead(actor, page, page.IsPublished()); err != nil {
		writeServiceError(w, err, "section not found")
		return types.Section{}, types.Page{}, nil, false
	}
	return section, page, actor, true
}

func (h *SectionHandler) loadSectionForMutate(w http.ResponseWriter, r *http.Request) (types.Section, bool) {
	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return types.Section{}, false
	}
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Section{}, false
	}

	section, page, ok := h.resolveSection(w, r)
	if !ok {
		return types.Section{}, false
	}

	if err := access.CanMutate(actor, page); err != nil {
		writeServiceError(w, err, "section not found")
		return types.Section{}, false
	}
	return section, true
}

// resolveSection loads the section and its owning page. Ownership lives
// on the page, so every access decision needs both.
func (h *SectionHandler) resolveSection(w http.ResponseWriter, r *http.Request) (types.Section, types.Page, bool) {
	id, err := parseIDParam(r, "sectionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Section{}, types.Page{}, false
	}

	section, err := h.sectionService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "section not found")
			return types.Section{}, types.Page{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch section")
		return types.Section{}, types.Page{}, false
	}

	page, err := h.pageService.Get(r.Context(), section.PageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch page")
		return types.Section{}, types.Page{}, false
	}
	return section, page, true
}

type SectionUpdateRequest struct {
	Type       *string        `json:"type"`
	Properties map[string]any `json:"properties"`
	ThemeKey   *string        `json:"theme_key"`
	CategoryID *uuid.UUID     `json:"category_id"`
	Order      *int           `json:"order"`
}

type ElementCreateRequest struct {
	Type    string         `json:"type"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
	ZIndex  int            `json:"z_index"`
	Content string         `json:"content"`
	Style   map[string]any `json:"style"`
}

type SectionImageResponse struct {
	Section  types.Section `json:"section"`
	ImageURL string        `json:"image_url"`
}
