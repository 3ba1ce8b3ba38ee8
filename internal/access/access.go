// Package access decides, per request and per target aggregate, whether
// the acting identity may read or mutate it.
package access

import (
	"errors"

	"github.com/google/uuid"
)

// ErrForbidden is returned when the actor is known but lacks rights on
// the target. Handlers surface it as a permission error.
var ErrForbidden = errors.New("forbidden")

// ErrHidden is returned when an anonymous caller asks for an unpublished
// aggregate. Handlers must surface it as a not-found, never as a
// permission error, so existence is not revealed to anonymous probers.
var ErrHidden = errors.New("hidden")

// Identity is the acting principal resolved from the request token.
// A nil *Identity means the request is unauthenticated.
type Identity struct {
	UserID  uuid.UUID
	IsStaff bool
}

// Ownable is implemented by aggregates that can name their owning user.
// Child aggregates (sections, elements) resolve their owner by walking
// up to the nearest page before the check.
type Ownable interface {
	OwnerID() uuid.UUID
}

// CanMutate reports whether actor may mutate target. Staff may mutate
// anything; otherwise the actor must be the owner.
func CanMutate(actor *Identity, target Ownable) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.IsStaff {
		return nil
	}
	if actor.UserID == target.OwnerID() {
		return nil
	}
	return ErrForbidden
}

// CanRead reports whether actor may read target. Published aggregates
// are readable by anyone, including anonymous callers.
func CanRead(actor *Identity, target Ownable, published bool) error {
	if published {
		return nil
	}
	if actor == nil {
		return ErrHidden
	}
	return CanMutate(actor, target)
}
