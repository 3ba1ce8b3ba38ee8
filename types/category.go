package types

import (
	"time"

	"github.com/google/uuid"
)

// Category is a tag optionally attached to sections. Its lifecycle is
// independent of any page.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
