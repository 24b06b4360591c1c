package group

import (
	"context"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Repository loads and stores group state as a whole document. Load
// creates an empty group on first contact, so callers never see a
// not-found error for a well-formed group ID.
type Repository interface {
	Load(ctx context.Context, groupID shared.GroupID) (*Group, error)
	Save(ctx context.Context, g *Group) error
}
