// Package slugs derives URL slugs from titles and resolves collisions
// with an incrementing numeric suffix.
package slugs

import (
	"context"
	"fmt"

	gosimple "github.com/gosimple/slug"
)

const fallbackBase = "page"

// ExistsFunc reports whether a candidate slug is already taken in the
// relevant scope.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Make slugifies a title without any uniqueness probing.
func Make(title string) string {
	s := gosimple.Make(title)
	if s == "" {
		return fallbackBase
	}
	return s
}

// Valid reports whether s is acceptable as a caller-supplied slug.
func Valid(s string) bool {
	return gosimple.IsSlug(s)
}

// Derive slugifies title and probes exists until a free slug is found,
// trying base, base-1, base-2, and so on.
func Derive(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Make(title)
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
