package family

import (
	"context"

	"github.com/google/uuid"
)

// ParentRepository persists guardian profiles.
type ParentRepository interface {
	Create(ctx context.Context, p *ParentProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*ParentProfile, error)
	Update(ctx context.Context, p *ParentProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChildRepository persists child profiles.
type ChildRepository interface {
	Create(ctx context.Context, c *ChildProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*ChildProfile, error)
	Update(ctx context.Context, c *ChildProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*ChildProfile, int, error)
}
