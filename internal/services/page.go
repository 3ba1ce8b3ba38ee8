package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/internal/events"
	"github.com/slatecms/apiserver/internal/slugs"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// PageRepository defines persistence operations for pages.
type PageRepository interface {
	List(ctx context.Context, filter store.PageFilter, offset, limit int) ([]types.Page, int, error)
	Get(ctx context.Context, id uuid.UUID) (types.Page, error)
	GetBySlug(ctx context.Context, slug string) (types.Page, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, page types.Page, sections []types.Section) (types.Page, []types.Section, error)
	Update(ctx context.Context, page types.Page) (types.Page, error)
	SetHomepage(ctx context.Context, userID, pageID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

// CreatePageInput is the payload for creating a page.
type CreatePageInput struct {
	UserID     uuid.UUID
	Title      string
	Slug       string
	TemplateID *uuid.UUID
	Status     string
	SEOMeta    map[string]any
	IsHomepage bool
}

// UpdatePageInput is the payload for updating a page. Nil fields are
// left untouched.
type UpdatePageInput struct {
	Title   *string
	Slug    *string
	Status  *string
	SEOMeta map[string]any
}

// PageService encapsulates page use-cases, including template
// instantiation, slug derivation, and the single-homepage invariant.
type PageService struct {
	repo      PageRepository
	templates TemplateRepository
	events    *events.Events
}

func NewPageService(repo PageRepository, templates TemplateRepository, ev *events.Events) *PageService {
	return &PageService{repo: repo, templates: templates, events: ev}
}

func (s *PageService) List(ctx context.Context, filter store.PageFilter, offset, limit int) ([]types.Page, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *PageService) Get(ctx context.Context, id uuid.UUID) (types.Page, error) {
	return s.repo.Get(ctx, id)
}

func (s *PageService) GetBySlug(ctx context.Context, slug string) (types.Page, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Create makes a new page. When a template is bound, its structure is
// materialized into the page's initial section collection inside the
// same transaction as the page insert: either the page and all its
// sections commit, or nothing does.
func (s *PageService) Create(ctx context.Context, in CreatePageInput) (types.Page, []types.Section, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.Page{}, nil, validationErr("title", "title is required")
	}

	status := in.Status
	if status == "" {
		status = types.PageStatusDraft
	}
	if !validPageStatus(status) {
		return types.Page{}, nil, validationErr("status", "unknown status %q", status)
	}

	derived := false
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		var err error
		slug, err = slugs.Derive(ctx, in.Title, s.repo.SlugExists)
		if err != nil {
			return types.Page{}, nil, err
		}
		derived = true
	} else {
		if !slugs.Valid(slug) {
			return types.Page{}, nil, validationErr("slug", "invalid slug %q", slug)
		}
		taken, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return types.Page{}, nil, err
		}
		if taken {
			return types.Page{}, nil, validationErr("slug", "slug %q is already taken", slug)
		}
	}

	var sections []types.Section
	if in.TemplateID != nil {
		tpl, err := s.templates.Get(ctx, *in.TemplateID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Page{}, nil, validationErr("template_id", "unknown template")
			}
			return types.Page{}, nil, err
		}
		sections, err = Instantiate(tpl.Structure)
		if err != nil {
			return types.Page{}, nil, err
		}
	}

	page := types.Page{
		UserID:     in.UserID,
		TemplateID: in.TemplateID,
		Title:      in.Title,
		Slug:       slug,
		Status:     status,
		IsHomepage: in.IsHomepage,
		SEOMeta:    in.SEOMeta,
	}

	created, createdSections, err := s.repo.Create(ctx, page, sections)
	if errors.Is(err, store.ErrConflict) && derived {
		// Concurrent insert grabbed the derived slug; probe once more.
		page.Slug, err = slugs.Derive(ctx, in.Title, s.repo.SlugExists)
		if err != nil {
			return types.Page{}, nil, err
		}
		created, createdSections, err = s.repo.Create(ctx, page, sections)
	}
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Page{}, nil, validationErr("slug", "slug %q is already taken", page.Slug)
		}
		return types.Page{}, nil, err
	}

	s.events.PublishPage(ctx, events.PageCreated, created)
	return created, createdSections, nil
}

// Instantiate materializes a template structure into sections: entry i
// becomes a section with the entry's type and properties copied verbatim
// and order i+1. An entry without a type aborts the whole instantiation.
func Instantiate(structure []types.SectionSpec) ([]types.Section, error) {
	if len(structure) == 0 {
		return nil, nil
	}
	sections := make([]types.Section, 0, len(structure))
	for i, spec := range structure {
		if strings.TrimSpace(spec.Type) == "" {
			return nil, validationErr("structure", "entry %d is missing a type", i)
		}
		props := spec.Properties
		if props == nil {
			props = map[string]any{}
		}
		sections = append(sections, types.Section{
			Type:       spec.Type,
			Properties: props,
			Order:      i + 1,
		})
	}
	return sections, nil
}

func (s *PageService) Update(ctx context.Context, page types.Page, in UpdatePageInput) (types.Page, error) {
	wasPublished := page.IsPublished()

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return types.Page{}, validationErr("title", "title is required")
		}
		page.Title = title
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !slugs.Valid(slug) {
			return types.Page{}, validationErr("slug", "invalid slug %q", slug)
		}
		if slug != page.Slug {
			taken, err := s.repo.SlugExists(ctx, slug)
			if err != nil {
				return types.Page{}, err
			}
			if taken {
				return types.Page{}, validationErr("slug", "slug %q is already taken", slug)
			}
			page.Slug = slug
		}
	}
	if in.Status != nil {
		if !validPageStatus(*in.Status) {
			return types.Page{}, validationErr("status", "unknown status %q", *in.Status)
		}
		page.Status = *in.Status
	}
	if in.SEOMeta != nil {
		page.SEOMeta = in.SEOMeta
	}

	updated, err := s.repo.Update(ctx, page)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Page{}, validationErr("slug", "slug %q is already taken", page.Slug)
		}
		return types.Page{}, err
	}

	if !wasPublished && updated.IsPublished() {
		s.events.PublishPage(ctx, events.PagePublished, updated)
	} else if wasPublished && !updated.IsPublished() {
		s.events.PublishPage(ctx, events.PageUnpublished, updated)
	}
	return updated, nil
}

// SetHomepage flags the page as its owner's homepage, clearing the flag
// on every other page of the same owner.
func (s *PageService) SetHomepage(ctx context.Context, page types.Page) (types.Page, error) {
	if err := s.repo.SetHomepage(ctx, page.UserID, page.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Page{}, validationErr("is_homepage", "homepage changed concurrently, try again")
		}
		return types.Page{}, err
	}
	return s.repo.Get(ctx, page.ID)
}

func (s *PageService) Delete(ctx context.Context, page types.Page) error {
	if err := s.repo.Delete(ctx, page.ID); err != nil {
		return err
	}
	s.events.PublishPage(ctx, events.PageDeleted, page)
	return nil
}

// RecordView bumps the page's public render counter.
func (s *PageService) RecordView(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementViewCount(ctx, id)
}

func validPageStatus(status string) bool {
	switch status {
	case types.PageStatusDraft, types.PageStatusPublished, types.PageStatusArchived:
		return true
	}
	return false
}
