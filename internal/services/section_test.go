package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

type fakeSectionRepo struct {
	sections map[uuid.UUID]types.Section
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{sections: map[uuid.UUID]types.Section{}}
}

func (r *fakeSectionRepo) ListByPage(ctx context.Context, pageID uuid.UUID) ([]types.Section, error) {
	var out []types.Section
	for _, s := range r.sections {
		if s.PageID == pageID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSectionRepo) Get(ctx context.Context, id uuid.UUID) (types.Section, error) {
	s, ok := r.sections[id]
	if !ok {
		return types.Section{}, store.ErrNotFound
	}
	return s, nil
}

func (r *fakeSectionRepo) Create(ctx context.Context, section types.Section) (types.Section, error) {
	if section.Order == 0 {
		section.Order = r.maxOrder(section.PageID) + 1
	} else if r.orderTaken(section.PageID, section.Order, uuid.Nil) {
		return types.Section{}, store.ErrConflict
	}
	section.ID = uuid.New()
	r.sections[section.ID] = section
	return section, nil
}

func (r *fakeSectionRepo) Update(ctx context.Context, section types.Section) (types.Section, error) {
	if _, ok := r.sections[section.ID]; !ok {
		return types.Section{}, store.ErrNotFound
	}
	if r.orderTaken(section.PageID, section.Order, section.ID) {
		return types.Section{}, store.ErrConflict
	}
	r.sections[section.ID] = section
	return section, nil
}

func (r *fakeSectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.sections[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.sections, id)
	return nil
}

func (r *fakeSectionRepo) maxOrder(pageID uuid.UUID) int {
	max := 0
	for _, s := range r.sections {
		if s.PageID == pageID && s.Order > max {
			max = s.Order
		}
	}
	return max
}

func (r *fakeSectionRepo) orderTaken(pageID uuid.UUID, order int, exclude uuid.UUID) bool {
	for _, s := range r.sections {
		if s.PageID == pageID && s.Order == order && s.ID != exclude {
			return true
		}
	}
	return false
}

func newSectionService(repo *fakeSectionRepo) *SectionService {
	return NewSectionService(repo, nil, zerolog.Nop())
}

func TestCreateSectionAppends(t *testing.T) {
	repo := newFakeSectionRepo()
	svc := newSectionService(repo)
	ctx := context.Background()
	pageID := uuid.New()

	for i := 1; i <= 3; i++ {
		s, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "paragraph"})
		if err != nil {
			t.Fatalf("create section %d: %v", i, err)
		}
		if s.Order != i {
			t.Fatalf("section %d: expected order %d, got %d", i, i, s.Order)
		}
	}
}

func TestCreateSectionOrderConflict(t *testing.T) {
	repo := newFakeSectionRepo()
	svc := newSectionService(repo)
	ctx := context.Background()
	pageID := uuid.New()

	if _, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "heading", Order: 1}); err != nil {
		t.Fatalf("create section: %v", err)
	}

	_, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "paragraph", Order: 1})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "order" {
		t.Fatalf("expected order validation error, got %v", err)
	}

	// The same order on another page is fine.
	if _, err := svc.Create(ctx, CreateSectionInput{PageID: uuid.New(), Type: "paragraph", Order: 1}); err != nil {
		t.Fatalf("create section on another page: %v", err)
	}
}

func TestUpdateSectionOrderConflict(t *testing.T) {
	repo := newFakeSectionRepo()
	svc := newSectionService(repo)
	ctx := context.Background()
	pageID := uuid.New()

	first, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "heading"})
	if err != nil {
		t.Fatalf("create first section: %v", err)
	}
	second, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "paragraph"})
	if err != nil {
		t.Fatalf("create second section: %v", err)
	}

	conflicting := first.Order
	_, err = svc.Update(ctx, second, UpdateSectionInput{Order: &conflicting})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "order" {
		t.Fatalf("expected order validation error, got %v", err)
	}

	// Keeping its own order is not a conflict.
	same := second.Order
	if _, err := svc.Update(ctx, second, UpdateSectionInput{Order: &same}); err != nil {
		t.Fatalf("update with unchanged order: %v", err)
	}
}

func TestCreateSectionInvalidInput(t *testing.T) {
	svc := newSectionService(newFakeSectionRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSectionInput{PageID: uuid.New(), Type: "  "})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "type" {
		t.Fatalf("expected type validation error, got %v", err)
	}

	_, err = svc.Create(ctx, CreateSectionInput{PageID: uuid.New(), Type: "heading", Order: -1})
	if !errors.As(err, &verr) || verr.Field != "order" {
		t.Fatalf("expected order validation error, got %v", err)
	}
}

func TestListByPageOrdered(t *testing.T) {
	repo := newFakeSectionRepo()
	svc := newSectionService(repo)
	ctx := context.Background()
	pageID := uuid.New()

	for _, order := range []int{3, 1, 2} {
		if _, err := svc.Create(ctx, CreateSectionInput{PageID: pageID, Type: "paragraph", Order: order}); err != nil {
			t.Fatalf("create section at order %d: %v", order, err)
		}
	}

	sections, err := svc.ListByPage(ctx, pageID)
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	for i, s := range sections {
		if s.Order != i+1 {
			t.Fatalf("position %d: expected order %d, got %d", i, i+1, s.Order)
		}
	}
}
