package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/internal/services"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

const testSecret = "handler-test-secret"

type memUserRepo struct {
	users map[uuid.UUID]types.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	u, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, store.ErrConflict
	}
	user.ID = uuid.New()
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

type memTemplateRepo struct {
	templates map[uuid.UUID]types.Template
}

func (r *memTemplateRepo) List(ctx context.Context, offset, limit int) ([]types.Template, int, error) {
	var out []types.Template
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (r *memTemplateRepo) Get(ctx context.Context, id uuid.UUID) (types.Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return types.Template{}, store.ErrNotFound
	}
	return t, nil
}

func (r *memTemplateRepo) Create(ctx context.Context, tpl types.Template) (types.Template, error) {
	tpl.ID = uuid.New()
	r.templates[tpl.ID] = tpl
	return tpl, nil
}

func (r *memTemplateRepo) Update(ctx context.Context, tpl types.Template) (types.Template, error) {
	r.templates[tpl.ID] = tpl
	return tpl, nil
}

func (r *memTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.templates[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

type memPageRepo struct {
	pages    map[uuid.UUID]types.Page
	sections *memSectionRepo
}

func (r *memPageRepo) List(ctx context.Context, filter store.PageFilter, offset, limit int) ([]types.Page, int, error) {
	var out []types.Page
	for _, p := range r.pages {
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memPageRepo) Get(ctx context.Context, id uuid.UUID) (types.Page, error) {
	p, ok := r.pages[id]
	if !ok {
		return types.Page{}, store.ErrNotFound
	}
	return p, nil
}

func (r *memPageRepo) GetBySlug(ctx context.Context, slug string) (types.Page, error) {
	for _, p := range r.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return types.Page{}, store.ErrNotFound
}

func (r *memPageRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (r *memPageRepo) Create(ctx context.Context, page types.Page, sections []types.Section) (types.Page, []types.Section, error) {
	if taken, _ := r.SlugExists(ctx, page.Slug); taken {
		return types.Page{}, nil, store.ErrConflict
	}
	page.ID = uuid.New()
	if page.IsHomepage {
		for id, p := range r.pages {
			if p.UserID == page.UserID && p.IsHomepage {
				p.IsHomepage = false
				r.pages[id] = p
			}
		}
	}
	r.pages[page.ID] = page

	created := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		s.ID = uuid.New()
		s.PageID = page.ID
		r.sections.sections[s.ID] = s
		created = append(created, s)
	}
	return page, created, nil
}

func (r *memPageRepo) Update(ctx context.Context, page types.Page) (types.Page, error) {
	if _, ok := r.pages[page.ID]; !ok {
		return types.Page{}, store.ErrNotFound
	}
	r.pages[page.ID] = page
	return page, nil
}

func (r *memPageRepo) SetHomepage(ctx context.Context, userID, pageID uuid.UUID) error {
	target, ok := r.pages[pageID]
	if !ok || target.UserID != userID {
		return store.ErrNotFound
	}
	for id, p := range r.pages {
		if p.UserID == userID {
			p.IsHomepage = id == pageID
			r.pages[id] = p
		}
	}
	return nil
}

func (r *memPageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.pages[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.pages, id)
	return nil
}

func (r *memPageRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	p, ok := r.pages[id]
	if !ok {
		return store.ErrNotFound
	}
	p.ViewCount++
	r.pages[id] = p
	return nil
}

type memSectionRepo struct {
	sections map[uuid.UUID]types.Section
}

func (r *memSectionRepo) ListByPage(ctx context.Context, pageID uuid.UUID) ([]types.Section, error) {
	var out []types.Section
	for _, s := range r.sections {
		if s.PageID == pageID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *memSectionRepo) Get(ctx context.Context, id uuid.UUID) (types.Section, error) {
	s, ok := r.sections[id]
	if !ok {
		return types.Section{}, store.ErrNotFound
	}
	return s, nil
}

func (r *memSectionRepo) Create(ctx context.Context, section types.Section) (types.Section, error) {
	if section.Order == 0 {
		max := 0
		for _, s := range r.sections {
			if s.PageID == section.PageID && s.Order > max {
				max = s.Order
			}
		}
		section.Order = max + 1
	} else {
		for _, s := range r.sections {
			if s.PageID == section.PageID && s.Order == section.Order {
				return types.Section{}, store.ErrConflict
			}
		}
	}
	section.ID = uuid.New()
	r.sections[section.ID] = section
	return section, nil
}

func (r *memSectionRepo) Update(ctx context.Context, section types.Section) (types.Section, error) {
	if _, ok := r.sections[section.ID]; !ok {
		return types.Section{}, store.ErrNotFound
	}
	r.sections[section.ID] = section
	return section, nil
}

func (r *memSectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.sections[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.sections, id)
	return nil
}

type memElementRepo struct {
	elements map[uuid.UUID]types.Element
}

func (r *memElementRepo) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]types.Element, error) {
	var out []types.Element
	for _, e := range r.elements {
		if e.SectionID == sectionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memElementRepo) Get(ctx context.Context, id uuid.UUID) (types.Element, error) {
	e, ok := r.elements[id]
	if !ok {
		return types.Element{}, store.ErrNotFound
	}
	return e, nil
}

func (r *memElementRepo) Create(ctx context.Context, element types.Element) (types.Element, error) {
	element.ID = uuid.New()
	r.elements[element.ID] = element
	return element, nil
}

func (r *memElementRepo) Update(ctx context.Context, element types.Element) (types.Element, error) {
	if _, ok := r.elements[element.ID]; !ok {
		return types.Element{}, store.ErrNotFound
	}
	r.elements[element.ID] = element
	return element, nil
}

func (r *memElementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.elements[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.elements, id)
	return nil
}

type testEnv struct {
	router   *chi.Mux
	users    *memUserRepo
	pages    *memPageRepo
	sections *memSectionRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &memUserRepo{users: map[uuid.UUID]types.User{}}
	templates := &memTemplateRepo{templates: map[uuid.UUID]types.Template{}}
	sections := &memSectionRepo{sections: map[uuid.UUID]types.Section{}}
	pages := &memPageRepo{pages: map[uuid.UUID]types.Page{}, sections: sections}
	elements := &memElementRepo{elements: map[uuid.UUID]types.Element{}}

	userService := services.NewUserService(users)
	templateService := services.NewTemplateService(templates)
	pageService := services.NewPageService(pages, templates, nil)
	sectionService := services.NewSectionService(sections, nil, zerolog.Nop())
	elementService := services.NewElementService(elements, nil, zerolog.Nop())

	authMiddleware := RequireAuth(testSecret)
	optionalAuthMiddleware := OptionalAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/templates", func(r chi.Router) {
		TemplateRouter(r, templateService, userService, authMiddleware)
	})
	router.Route("/pages", func(r chi.Router) {
		PageRouter(r, pageService, sectionService, userService, authMiddleware, optionalAuthMiddleware)
	})
	router.Route("/sections", func(r chi.Router) {
		SectionRouter(r, sectionService, elementService, pageService, userService, nil, authMiddleware, optionalAuthMiddleware)
	})
	router.Route("/elements", func(r chi.Router) {
		ElementRouter(r, elementService, sectionService, pageService, userService, nil, authMiddleware, optionalAuthMiddleware)
	})

	return &testEnv{router: router, users: users, pages: pages, sections: sections}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, name, email string) (string, types.User) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "testpass123!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token, resp.User
}

func (e *testEnv) makeStaff(t *testing.T, id uuid.UUID) {
	t.Helper()
	u, ok := e.users.users[id]
	if !ok {
		t.Fatalf("user %s not found", id)
	}
	u.IsStaff = true
	e.users.users[id] = u
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return v
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	token, user := env.register(t, "Alice", "alice@example.com")
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	rec := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    "Alice@Example.com",
		Password: "testpass123!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	me := decodeJSON[types.User](t, rec)
	if me.ID != user.ID {
		t.Fatalf("me: expected user %s, got %s", user.ID, me.ID)
	}

	rec = env.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Name:     "Alice Again",
		Email:    "alice@example.com",
		Password: "otherpass",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Carol", "carol@example.com")

	rec := env.do(t, http.MethodDelete, "/auth/me", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate: expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    "carol@example.com",
		Password: "testpass123!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login after deactivate: expected 401, got %d", rec.Code)
	}
}

func TestDirectSectionCreateRejected(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Bob", "bob@example.com")

	rec := env.do(t, http.MethodPost, "/sections", token, SectionCreateRequest{Type: "heading"})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPageVisibility(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.register(t, "Owner", "owner@example.com")
	otherToken, _ := env.register(t, "Other", "other@example.com")
	staffToken, staff := env.register(t, "Staff", "staff@example.com")
	env.makeStaff(t, staff.ID)

	rec := env.do(t, http.MethodPost, "/pages", ownerToken, PageCreateRequest{Title: "Secret Draft"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[PageResponse](t, rec)
	pagePath := fmt.Sprintf("/pages/%s", created.Page.ID)

	// The owner sees the draft.
	if rec := env.do(t, http.MethodGet, pagePath, ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d", rec.Code)
	}

	// Anonymous callers must not learn the draft exists.
	if rec := env.do(t, http.MethodGet, pagePath, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("anonymous read: expected 404, got %d", rec.Code)
	}

	// An authenticated non-owner is told it is off limits.
	if rec := env.do(t, http.MethodGet, pagePath, otherToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner read: expected 403, got %d", rec.Code)
	}

	// Staff see everything.
	if rec := env.do(t, http.MethodGet, pagePath, staffToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("staff read: expected 200, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, pagePath+"/publish", ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d", rec.Code)
	}

	// Published pages are public and count anonymous views.
	rec = env.do(t, http.MethodGet, pagePath, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous read after publish: expected 200, got %d", rec.Code)
	}
	stored, err := env.pages.Get(context.Background(), created.Page.ID)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	if stored.ViewCount != 1 {
		t.Fatalf("expected view count 1, got %d", stored.ViewCount)
	}
}

func TestViewCountingSkipsOwner(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.register(t, "Owner", "owner@example.com")
	otherToken, _ := env.register(t, "Other", "other@example.com")

	rec := env.do(t, http.MethodPost, "/pages", ownerToken, PageCreateRequest{Title: "Portfolio"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[PageResponse](t, rec)
	pagePath := fmt.Sprintf("/pages/%s", created.Page.ID)

	if rec := env.do(t, http.MethodPost, pagePath+"/publish", ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d", rec.Code)
	}

	viewCount := func() int64 {
		t.Helper()
		stored, err := env.pages.Get(context.Background(), created.Page.ID)
		if err != nil {
			t.Fatalf("load page: %v", err)
		}
		return stored.ViewCount
	}

	// The owner previewing their own published page is not a visitor.
	if rec := env.do(t, http.MethodGet, pagePath, ownerToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d", rec.Code)
	}
	if got := viewCount(); got != 0 {
		t.Fatalf("owner read counted: expected 0 views, got %d", got)
	}

	// Any other reader is, signed in or not.
	if rec := env.do(t, http.MethodGet, pagePath, otherToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("non-owner read: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, pagePath, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("anonymous read: expected 200, got %d", rec.Code)
	}
	if got := viewCount(); got != 2 {
		t.Fatalf("expected 2 views, got %d", got)
	}
}

func TestPageFromTemplateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staffToken, staff := env.register(t, "Staff", "staff@example.com")
	env.makeStaff(t, staff.ID)
	userToken, _ := env.register(t, "Maker", "maker@example.com")

	rec := env.do(t, http.MethodPost, "/templates", staffToken, TemplateUpsertRequest{
		Name:  "Landing",
		Theme: "dark",
		Structure: []types.SectionSpec{
			{Type: "heading", Properties: map[string]any{"text": "Hi"}},
			{Type: "paragraph"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	tpl := decodeJSON[types.Template](t, rec)

	rec = env.do(t, http.MethodPost, "/pages", userToken, PageCreateRequest{
		Title:      "From Template",
		TemplateID: &tpl.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[PageResponse](t, rec)
	if len(created.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(created.Sections))
	}
	if created.Sections[0].Order != 1 || created.Sections[1].Order != 2 {
		t.Fatalf("expected orders 1 and 2, got %d and %d", created.Sections[0].Order, created.Sections[1].Order)
	}
}

func TestTemplateWritesAreStaffOnly(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.register(t, "User", "user@example.com")

	rec := env.do(t, http.MethodPost, "/templates", userToken, TemplateUpsertRequest{Name: "Nope"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodGet, "/templates", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("public template list: expected 200, got %d", rec.Code)
	}
}

func TestSectionMutationWalksUpToPage(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.register(t, "Owner", "owner@example.com")
	otherToken, _ := env.register(t, "Other", "other@example.com")

	rec := env.do(t, http.MethodPost, "/pages", ownerToken, PageCreateRequest{Title: "Sectioned"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page: expected 201, got %d", rec.Code)
	}
	created := decodeJSON[PageResponse](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/pages/%s/sections", created.Page.ID), ownerToken, SectionCreateRequest{
		Type:       "heading",
		Properties: map[string]any{"text": "Hello"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create section: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	section := decodeJSON[types.Section](t, rec)
	sectionPath := fmt.Sprintf("/sections/%s", section.ID)

	newType := "paragraph"
	rec = env.do(t, http.MethodPut, sectionPath, otherToken, SectionUpdateRequest{Type: &newType})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner section update: expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, sectionPath, ownerToken, SectionUpdateRequest{Type: &newType})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner section update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeJSON[types.Section](t, rec)
	if updated.Type != "paragraph" {
		t.Fatalf("expected updated type, got %q", updated.Type)
	}

	// Draft sections are masked from anonymous readers like their page.
	if rec := env.do(t, http.MethodGet, sectionPath, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("anonymous section read: expected 404, got %d", rec.Code)
	}
}

func TestElementLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.register(t, "Owner", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/pages", ownerToken, PageCreateRequest{Title: "Canvas"})
	created := decodeJSON[PageResponse](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/pages/%s/sections", created.Page.ID), ownerToken, SectionCreateRequest{Type: "canvas"})
	section := decodeJSON[types.Section](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/sections/%s/elements", section.ID), ownerToken, ElementCreateRequest{
		Type:    types.ElementTypeText,
		X:       5,
		Y:       10,
		Content: "hello",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create element: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	element := decodeJSON[types.Element](t, rec)
	if element.Width != 100 || element.Height != 100 {
		t.Fatalf("expected default size, got %gx%g", element.Width, element.Height)
	}

	z := 3
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/elements/%s", element.ID), ownerToken, ElementUpdateRequest{ZIndex: &z})
	if rec.Code != http.StatusOK {
		t.Fatalf("update element: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/elements/%s", element.ID), ownerToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete element: expected 204, got %d", rec.Code)
	}
}

func TestHomepageFlipOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Owner", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/pages", token, PageCreateRequest{Title: "Home", IsHomepage: true})
	first := decodeJSON[PageResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/pages", token, PageCreateRequest{Title: "New Home"})
	second := decodeJSON[PageResponse](t, rec)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/pages/%s/homepage", second.Page.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("set homepage: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	flipped := decodeJSON[types.Page](t, rec)
	if !flipped.IsHomepage {
		t.Fatalf("expected homepage flag on new page")
	}

	previous, err := env.pages.Get(context.Background(), first.Page.ID)
	if err != nil {
		t.Fatalf("load previous homepage: %v", err)
	}
	if previous.IsHomepage {
		t.Fatalf("expected previous homepage flag cleared")
	}
}
