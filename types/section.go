package types

import (
	"time"

	"github.com/google/uuid"
)

// Section is an ordered content block owned by a page. Order is unique
// within the page and defines render sequence.
type Section struct {
	// ID is the unique identifier of the section.
	ID uuid.UUID `json:"id" db:"id"`

	// PageID is the owning page. Deleting the page deletes the section.
	PageID uuid.UUID `json:"page_id" db:"page_id"`

	// Type is the section kind (heading, paragraph, table, ...).
	Type string `json:"type" db:"type"`

	// Properties holds the section content keyed by the section type.
	Properties map[string]any `json:"properties" db:"properties"`

	// ThemeKey optionally overrides the preset slot used when rendering
	// this section.
	ThemeKey string `json:"theme_key,omitempty" db:"theme_key"`

	// CategoryID optionally tags the section. Deleting the category nulls
	// this reference rather than cascading.
	CategoryID *uuid.UUID `json:"category_id,omitempty" db:"category_id"`

	// Order is the 1-based render position, unique within the page.
	Order int `json:"order" db:"order"`

	// ImageKey is the object-storage key of an uploaded section image.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// CreatedAt is the timestamp at which the section was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the section.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
