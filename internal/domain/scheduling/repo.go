package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists scheduling preferences, one per referral.
type Repository interface {
	Upsert(ctx context.Context, p *SchedulingPreference) error
	GetByReferral(ctx context.Context, referralID uuid.UUID) (*SchedulingPreference, error)
}
