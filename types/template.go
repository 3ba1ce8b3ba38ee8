package types

import (
	"time"

	"github.com/google/uuid"
)

// Theme names accepted on templates and looked up in the preset table.
const (
	ThemeDefault = "default"
	ThemeLight   = "light"
	ThemeDark    = "dark"
	ThemePurple  = "purple"
)

// SectionSpec is one entry of a template's structure: the blueprint for a
// section that will be copied onto a page at instantiation time.
type SectionSpec struct {
	// Type is the section kind (heading, paragraph, table, ...). Required.
	Type string `json:"type"`

	// Properties holds the default content for the section. May be empty.
	Properties map[string]any `json:"properties,omitempty"`
}

// Template represents a reusable page layout: an ordered list of section
// blueprints plus a theme identifier.
//
// Templates are copied, never referenced: editing a template does not
// affect pages that were already instantiated from it.
type Template struct {
	// ID is the unique identifier of the template.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the human-readable name of the template.
	Name string `json:"name" db:"name"`

	// Description is an optional free-form description.
	Description string `json:"description" db:"description"`

	// Structure is the ordered sequence of section blueprints.
	Structure []SectionSpec `json:"structure" db:"structure"`

	// Theme is one of the Theme* constants.
	Theme string `json:"theme" db:"theme"`

	// CreatedAt is the timestamp at which the template was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the template.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
