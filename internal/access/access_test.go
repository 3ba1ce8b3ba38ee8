package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type owned struct {
	owner uuid.UUID
}

func (o owned) OwnerID() uuid.UUID { return o.owner }

func TestCanMutate(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	target := owned{owner: owner}

	tests := []struct {
		name  string
		actor *Identity
		want  error
	}{
		{"anonymous", nil, ErrForbidden},
		{"owner", &Identity{UserID: owner}, nil},
		{"non-owner", &Identity{UserID: stranger}, ErrForbidden},
		{"staff non-owner", &Identity{UserID: stranger, IsStaff: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CanMutate(tt.actor, target), tt.want)
		})
	}
}

func TestCanRead(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	target := owned{owner: owner}

	tests := []struct {
		name      string
		actor     *Identity
		published bool
		want      error
	}{
		{"anonymous published", nil, true, nil},
		{"anonymous draft", nil, false, ErrHidden},
		{"owner draft", &Identity{UserID: owner}, false, nil},
		{"non-owner draft", &Identity{UserID: stranger}, false, ErrForbidden},
		{"staff draft", &Identity{UserID: stranger, IsStaff: true}, false, nil},
		{"non-owner published", &Identity{UserID: stranger}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CanRead(tt.actor, target, tt.published), tt.want)
		})
	}
}
