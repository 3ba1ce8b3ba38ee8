package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/slatecms/apiserver/internal/access"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/storage"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// ElementHandler provides HTTP handlers for canvas elements.
// Authorization walks element -> section -> page.
type ElementHandler struct {
	elementService *services.ElementService
	sectionService *services.SectionService
	pageService    *services.PageService
	userService    *services.UserService
	media          *storage.Media
}

func NewElementHandler(
	elementService *services.ElementService,
	sectionService *services.SectionService,
	pageService *services.PageService,
	userService *services.UserService,
	media *storage.Media,
) *ElementHandler {
	return &ElementHandler{
		elementService: elementService,
		sectionService: sectionService,
		pageService:    pageService,
		userService:    userService,
		media:          media,
	}
}

// ElementRouter registers element routes on the given router. Like
// sections, elements are created through their parent resource only.
func ElementRouter(
	r chi.Router,
	elementService *services.ElementService,
	sectionService *services.SectionService,
	pageService *services.PageService,
	userService *services.UserService,
	media *storage.Media,
	authMiddleware func(http.Handler) http.Handler,
	optionalAuthMiddleware func(http.Handler) http.Handler,
) {
	handler := NewElementHandler(elementService, sectionService, pageService, userService, media)

	r.Route("/{elementID}", func(r chi.Router) {
		r.With(optionalAuthMiddleware).Get("/", handler.GetElement)
		r.With(authMiddleware).Put("/", handler.UpdateElement)
		r.With(authMiddleware).Delete("/", handler.DeleteElement)
		r.With(authMiddleware).Post("/image", handler.UploadImage)
	})
}

func (h *ElementHandler) GetElement(w http.ResponseWriter, r *http.Request) {
	element, page, ok := h.resolveElement(w, r)
	if !ok {
		return
	}

	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return
	}

	if err := access.CanRead(actor, page, page.IsPublished()); err != nil {
		writeServiceError(w, err, "element not found")
		return
	}

	writeJSON(w, http.StatusOK, element)
}

func (h *ElementHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	element, ok := h.loadElementForMutate(w, r)
	if !ok {
		return
	}

	var req ElementUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.elementService.Update(r.Context(), element, services.UpdateElementInput{
		Type:    req.Type,
		X:       req.X,
		Y:       req.Y,
		Width:   req.Width,
		Height:  req.Height,
		ZIndex:  req.ZIndex,
		Content: req.Content,
		Style:   req.Style,
	})
	if err != nil {
		writeServiceError(w, err, "element not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ElementHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	element, ok := h.loadElementForMutate(w, r)
	if !ok {
		return
	}

	if err := h.elementService.Delete(r.Context(), element); err != nil {
		writeServiceError(w, err, "element not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores an uploaded image for an image element and records
// its object key.
func (h *ElementHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	element, ok := h.loadElementForMutate(w, r)
	if !ok {
		return
	}

	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, "media storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.Key("elements", header.Filename)
	if err := h.media.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := h.elementService.SetImage(r.Context(), element, key)
	if err != nil {
		writeServiceError(w, err, "element not found")
		return
	}

	writeJSON(w, http.StatusOK, ElementImageResponse{
		Element:  updated,
		ImageURL: h.media.URL(key),
	})
}

func (h *ElementHandler) loadElementForMutate(w http.ResponseWriter, r *http.Request) (types.Element, bool) {
	actor, err := identity(r, h.userService)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve identity")
		return types.Element{}, false
	}
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Element{}, false
	}

	element, page, ok := h.resolveElement(w, r)
	if !ok {
		return types.Element{}, false
	}

	if err := access.CanMutate(actor, page); err != nil {
		writeServiceError(w, err, "element not found")
		return types.Element{}, false
	}
	return element, true
}

func (h *ElementHandler) resolveElement(w http.ResponseWriter, r *http.Request) (types.Element, types.Page, bool) {
	id, err := parseIDParam(r, "elementID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Element{}, types.Page{}, false
	}

	element, err := h.elementService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "element not found")
			return types.Element{}, types.Page{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch element")
		return types.Element{}, types.Page{}, false
	}

	section, err := h.sectionService.Get(r.Context(), element.SectionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch section")
		return types.Element{}, types.Page{}, false
	}

	page, err := h.pageService.Get(r.Context(), section.PageID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch page")
		return types.Element{}, types.Page{}, false
	}
	return element, page, true
}

type ElementUpdateRequest struct {
	Type    *string        `json:"type"`
	X       *float64       `json:"x"`
	Y       *float64       `json:"y"`
	Width   *float64       `json:"width"`
	Height  *float64       `json:"height"`
	ZIndex  *int           `json:"z_index"`
	Content *string        `json:"content"`
	Style   map[string]any `json:"style"`
}

type ElementImageResponse struct {
	Element  types.Element `json:"element"`
	ImageURL string        `json:"image_url"`
}
