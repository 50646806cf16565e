package screener

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists screener sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByReferral(ctx context.Context, referralID uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
}

// ReferralFlagger raises the risk flag on the owning referral when a
// screener message classifies high-risk or crisis.
type ReferralFlagger interface {
	SetRiskFlag(ctx context.Context, referralID uuid.UUID) error
}
