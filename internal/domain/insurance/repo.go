package insurance

import (
	"context"

	"github.com/google/uuid"
)

// DetailRepository persists insurance details, one per referral.
type DetailRepository interface {
	Upsert(ctx context.Context, d *InsuranceDetail) error
	GetByReferral(ctx context.Context, referralID uuid.UUID) (*InsuranceDetail, error)
}

// UploadRepository persists upload metadata rows.
type UploadRepository interface {
	Create(ctx context.Context, u *InsuranceUpload) error
	GetByID(ctx context.Context, id uuid.UUID) (*InsuranceUpload, error)
	UpdateScan(ctx context.Context, id uuid.UUID, status string, confidence *float64) error
	ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*InsuranceUpload, error)
}

// EstimateRepository persists the derived cost estimate, one per
// referral.
type EstimateRepository interface {
	Upsert(ctx context.Context, e *CostEstimate) error
	GetByReferral(ctx context.Context, referralID uuid.UUID) (*CostEstimate, error)
}
