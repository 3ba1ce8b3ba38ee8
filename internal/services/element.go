package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slatecms/apiserver/internal/storage"
	"github.com/slatecms/apiserver/types"
)

const (
	defaultElementWidth  = 100
	defaultElementHeight = 100
)

// ElementRepository defines persistence operations for canvas elements.
type ElementRepository interface {
	ListBySection(ctx context.Context, sectionID uuid.UUID) ([]types.Element, error)
	Get(ctx context.Context, id uuid.UUID) (types.Element, error)
	Create(ctx context.Context, element types.Element) (types.Element, error)
	Update(ctx context.Context, element types.Element) (types.Element, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateElementInput is the payload for placing an element on a
// section's canvas. Zero Width/Height fall back to the defaults.
type CreateElementInput struct {
	SectionID uuid.UUID
	Type      string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	ZIndex    int
	Content   string
	Style     map[string]any
}

// UpdateElementInput is the payload for updating an element. Nil fields
// are left untouched.
type UpdateElementInput struct {
	Type    *string
	X       *float64
	Y       *float64
	Width   *float64
	Height  *float64
	ZIndex  *int
	Content *string
	Style   map[string]any
}

// ElementService encapsulates element use-cases. Elements carry no
// cross-element invariants; paint order is resolved at read time.
type ElementService struct {
	repo  ElementRepository
	media *storage.Media
	log   zerolog.Logger
}

func NewElementService(repo ElementRepository, media *storage.Media, log zerolog.Logger) *ElementService {
	return &ElementService{repo: repo, media: media, log: log}
}

func (s *ElementService) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]types.Element, error) {
	return s.repo.ListBySection(ctx, sectionID)
}

func (s *ElementService) Get(ctx context.Context, id uuid.UUID) (types.Element, error) {
	return s.repo.Get(ctx, id)
}

func (s *ElementService) Create(ctx context.Context, in CreateElementInput) (types.Element, error) {
	if !types.ValidElementType(in.Type) {
		return types.Element{}, validationErr("type", "unknown element type %q", in.Type)
	}
	if in.Width < 0 || in.Height < 0 {
		return types.Element{}, validationErr("size", "width and height must not be negative")
	}
	if in.Width == 0 {
		in.Width = defaultElementWidth
	}
	if in.Height == 0 {
		in.Height = defaultElementHeight
	}

	element := types.Element{
		SectionID: in.SectionID,
		Type:      in.Type,
		X:         in.X,
		Y:         in.Y,
		Width:     in.Width,
		Height:    in.Height,
		ZIndex:    in.ZIndex,
		Content:   in.Content,
		Style:     in.Style,
	}
	return s.repo.Create(ctx, element)
}

func (s *ElementService) Update(ctx context.Context, element types.Element, in UpdateElementInput) (types.Element, error) {
	if in.Type != nil {
		if !types.ValidElementType(*in.Type) {
			return types.Element{}, validationErr("type", "unknown element type %q", *in.Type)
		}
		element.Type = *in.Type
	}
	if in.X != nil {
		element.X = *in.X
	}
	if in.Y != nil {
		element.Y = *in.Y
	}
	if in.Width != nil {
		if *in.Width <= 0 {
			return types.Element{}, validationErr("width", "width must be positive")
		}
		element.Width = *in.Width
	}
	if in.Height != nil {
		if *in.Height <= 0 {
			return types.Element{}, validationErr("height", "height must be positive")
		}
		element.Height = *in.Height
	}
	if in.ZIndex != nil {
		element.ZIndex = *in.ZIndex
	}
	if in.Content != nil {
		element.Content = *in.Content
	}
	if in.Style != nil {
		element.Style = in.Style
	}
	return s.repo.Update(ctx, element)
}

// SetImage stores the object key of an uploaded element image.
func (s *ElementService) SetImage(ctx context.Context, element types.Element, key string) (types.Element, error) {
	old := element.ImageKey
	element.ImageKey = key
	updated, err := s.repo.Update(ctx, element)
	if err != nil {
		return types.Element{}, err
	}
	if old != "" && old != key {
		s.removeMedia(ctx, old)
	}
	return updated, nil
}

// Delete removes the element and, best effort, its uploaded image.
func (s *ElementService) Delete(ctx context.Context, element types.Element) error {
	if err := s.repo.Delete(ctx, element.ID); err != nil {
		return err
	}
	if element.ImageKey != "" {
		s.removeMedia(ctx, element.ImageKey)
	}
	return nil
}

func (s *ElementService) removeMedia(ctx context.Context, key string) {
	if s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("delete element image")
	}
}
