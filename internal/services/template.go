package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/slatecms/apiserver/internal/themes"
	"github.com/slatecms/apiserver/types"
)

// TemplateRepository defines persistence operations for templates.
type TemplateRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Template, int, error)
	Get(ctx context.Context, id uuid.UUID) (types.Template, error)
	Create(ctx context.Context, tpl types.Template) (types.Template, error)
	Update(ctx context.Context, tpl types.Template) (types.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TemplateService encapsulates template use-cases.
type TemplateService struct {
	repo TemplateRepository
}

func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) List(ctx context.Context, offset, limit int) ([]types.Template, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (types.Template, error) {
	return s.repo.Get(ctx, id)
}

func (s *TemplateService) Create(ctx context.Context, tpl types.Template) (types.Template, error) {
	if err := validateTemplate(&tpl); err != nil {
		return types.Template{}, err
	}
	return s.repo.Create(ctx, tpl)
}

// Update edits a template. Pages already instantiated from it are not
// affected: sections are copied at instantiation time, never referenced.
func (s *TemplateService) Update(ctx context.Context, tpl types.Template) (types.Template, error) {
	if err := validateTemplate(&tpl); err != nil {
		return types.Template{}, err
	}
	return s.repo.Update(ctx, tpl)
}

func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func validateTemplate(tpl *types.Template) error {
	tpl.Name = strings.TrimSpace(tpl.Name)
	if tpl.Name == "" {
		return validationErr("name", "name is required")
	}
	if tpl.Theme == "" {
		tpl.Theme = types.ThemeDefault
	}
	if !themes.Known(tpl.Theme) {
		return validationErr("theme", "unknown theme %q", tpl.Theme)
	}
	for i, spec := range tpl.Structure {
		if strings.TrimSpace(spec.Type) == "" {
			return validationErr("structure", "entry %d is missing a type", i)
		}
	}
	return nil
}
