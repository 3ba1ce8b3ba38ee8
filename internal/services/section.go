package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/internal/storage"
	"github.com/slatecms/apiserver/internal/store"
	"github.com/slatecms/apiserver/types"
)

// SectionRepository defines persistence operations for sections.
type SectionRepository interface {
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]types.Section, error)
	Get(ctx context.Context, id uuid.UUID) (types.Section, error)
	Create(ctx context.Context, section types.Section) (types.Section, error)
	Update(ctx context.Context, section types.Section) (types.Section, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateSectionInput is the payload for appending a section to a page.
// With Order zero the section is appended after the page's last section.
type CreateSectionInput struct {
	PageID     uuid.UUID
	Type       string
	Properties map[string]any
	ThemeKey   string
	CategoryID *uuid.UUID
	Order      int
}

// UpdateSectionInput is the payload for updating a section. Nil fields
// are left untouched.
type UpdateSectionInput struct {
	Type       *string
	Properties map[string]any
	ThemeKey   *string
	CategoryID *uuid.UUID
	Order      *int
}

// SectionService encapsulates section use-cases and the per-page order
// uniqueness invariant.
type SectionService struct {
	repo  SectionRepository
	media *storage.Media
	log   zerolog.Logger
}

func NewSectionService(repo SectionRepository, media *storage.Media, log zerolog.Logger) *SectionService {
	return &SectionService{repo: repo, media: media, log: log}
}

func (s *SectionService) ListByPage(ctx context.Context, pageID uuid.UUID) ([]types.Section, error) {
	return s.repo.ListByPage(ctx, pageID)
}

func (s *SectionService) Get(ctx context.Context, id uuid.UUID) (types.Section, error) {
	return s.repo.Get(ctx, id)
}

func (s *SectionService) Create(ctx context.Context, in CreateSectionInput) (types.Section, error) {
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return types.Section{}, validationErr("type", "type is required")
	}
	if in.Order < 0 {
		return types.Section{}, validationErr("order", "order must be positive")
	}

	section := types.Section{
		PageID:     in.PageID,
		Type:       in.Type,
		Properties: in.Properties,
		ThemeKey:   in.ThemeKey,
		CategoryID: in.CategoryID,
		Order:      in.Order,
	}
	created, err := s.repo.Create(ctx, section)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Section{}, validationErr("order", "order %d is already used in this page", in.Order)
		}
		return types.Section{}, err
	}
	return created, nil
}

func (s *SectionService) Update(ctx context.Context, section types.Section, in UpdateSectionInput) (types.Section, error) {
	if in.Type != nil {
		t := strings.TrimSpace(*in.Type)
		if t == "" {
			return types.Section{}, validationErr("type", "type is required")
		}
		section.Type = t
	}
	if in.Properties != nil {
		section.Properties = in.Properties
	}
	if in.ThemeKey != nil {
		section.ThemeKey = *in.ThemeKey
	}
	if in.CategoryID != nil {
		section.CategoryID = in.CategoryID
	}
	if in.Order != nil {
		if *in.Order < 1 {
			return types.Section{}, validationErr("order", "order must be positive")
		}
		section.Order = *in.Order
	}

	updated, err := s.repo.Update(ctx, section)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Section{}, validationErr("order", "order %d is already used in this page", section.Order)
		}
		return types.Section{}, err
	}
	return updated, nil
}

// SetImage stores the object key of an uploaded section image.
func (s *SectionService) SetImage(ctx context.Context, section types.Section, key string) (types.Section, error) {
	old := section.ImageKey
	section.ImageKey = key
	updated, err := s.repo.Update(ctx, section)
	if err != nil {
		return types.Section{}, err
	}
	if old != "" && old != key {
		s.removeMedia(ctx, old)
	}
	return updated, nil
}

// Delete removes the section and, best effort, its uploaded image.
func (s *SectionService) Delete(ctx context.Context, section types.Section) error {
	if err := s.repo.Delete(ctx, section.ID); err != nil {
		return err
	}
	if section.ImageKey != "" {
		s.removeMedia(ctx, section.ImageKey)
	}
	return nil
}

func (s *SectionService) removeMedia(ctx context.Context, key string) {
	if s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("delete section image")
	}
}
