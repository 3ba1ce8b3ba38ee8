package types

import (
	"time"

	"github.com/google/uuid"
)

// Page statuses.
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// Page represents a user-owned page with an optional template binding,
// a globally unique slug, and SEO metadata.
type Page struct {
	// ID is the unique identifier of the page.
	ID uuid.UUID `json:"id" db:"id"`

	// UserID is the owning user. Deleting the user deletes the page.
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// TemplateID references the template the page was instantiated from,
	// if any. Deleting the template nulls this reference; the page keeps
	// its already-materialized sections.
	TemplateID *uuid.UUID `json:"template_id,omitempty" db:"template_id"`

	// Title is the human-readable page title.
	Title string `json:"title" db:"title"`

	// Slug is the globally unique URL fragment for the page. Derived from
	// the title when not supplied, with a numeric suffix on collision.
	Slug string `json:"slug" db:"slug"`

	// Status is one of the PageStatus* constants.
	Status string `json:"status" db:"status"`

	// IsHomepage marks the owner's single landing page. At most one page
	// per owner carries this flag.
	IsHomepage bool `json:"is_homepage" db:"is_homepage"`

	// SEOMeta holds free-form SEO metadata (description, keywords, ...).
	SEOMeta map[string]any `json:"seo_meta,omitempty" db:"seo_meta"`

	// ViewCount counts public renders of the page.
	ViewCount int64 `json:"view_count" db:"view_count"`

	// CreatedAt is the timestamp at which the page was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the page.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsPublished reports whether the page is publicly readable.
func (p Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// OwnerID returns the owning user, satisfying the access policy contract.
func (p Page) OwnerID() uuid.UUID {
	return p.UserID
}
