package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/internal/slugs"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id uuid.UUID) (types.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, cat types.Category) (types.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, validationErr("name", "name is required")
	}

	slug, err := slugs.Derive(ctx, name, s.repo.SlugExists)
	if err != nil {
		return types.Category{}, err
	}

	cat := types.Category{Name: name, Slug: slug, Description: description}
	created, err := s.repo.Create(ctx, cat)
	if errors.Is(err, store.ErrConflict) {
		cat.Slug, err = slugs.Derive(ctx, name, s.repo.SlugExists)
		if err != nil {
			return types.Category{}, err
		}
		created, err = s.repo.Create(ctx, cat)
	}
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Category{}, validationErr("slug", "slug %q is already taken", cat.Slug)
		}
		return types.Category{}, err
	}
	return created, nil
}

// Delete removes a category. Sections that reference it keep existing
// with the reference nulled.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
