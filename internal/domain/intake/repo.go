package intake

import (
	"context"

	"github.com/google/uuid"
)

// ResponseRepository persists intake responses, one per referral.
type ResponseRepository interface {
	Upsert(ctx context.Context, r *IntakeResponse) error
	GetByReferral(ctx context.Context, referralID uuid.UUID) (*IntakeResponse, error)
}

// ConsentRepository persists consent acceptances. Accept must be
// idempotent per (referral, consent_type).
type ConsentRepository interface {
	Accept(ctx context.Context, rec *ConsentRecord) error
	ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*ConsentRecord, error)
}
