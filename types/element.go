package types

import (
	"time"

	"github.com/google/uuid"
)

// Element types.
const (
	ElementTypeText  = "text"
	ElementTypeImage = "image"
	ElementTypeShape = "shape"
)

// Element is a freely positioned visual object on a section's canvas.
// Paint order is z_index ascending, ties broken by creation time.
type Element struct {
	// ID is the unique identifier of the element.
	ID uuid.UUID `json:"id" db:"id"`

	// SectionID is the owning section. Deleting the section deletes the
	// element.
	SectionID uuid.UUID `json:"section_id" db:"section_id"`

	// Type is one of the ElementType* constants.
	Type string `json:"type" db:"type"`

	// X and Y are the element's position on the canvas.
	X float64 `json:"x" db:"x"`
	Y float64 `json:"y" db:"y"`

	// Width and Height are the element's size.
	Width  float64 `json:"width" db:"width"`
	Height float64 `json:"height" db:"height"`

	// ZIndex is the paint order; higher values draw on top.
	ZIndex int `json:"z_index" db:"z_index"`

	// Content is the text body for text elements.
	Content string `json:"content,omitempty" db:"content"`

	// ImageKey is the object-storage key of an uploaded element image.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// Style holds free-form styling for the element.
	Style map[string]any `json:"style,omitempty" db:"style"`

	// CreatedAt is the timestamp at which the element was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the element.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidElementType reports whether t is a known element type.
func ValidElementType(t string) bool {
	switch t {
	case ElementTypeText, ElementTypeImage, ElementTypeShape:
		return true
	}
	return false
}
