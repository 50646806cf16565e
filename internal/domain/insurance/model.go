package insurance

import (
	"time"

	"github.com/google/uuid"
)

// Insurance coverage statuses a family can report.
var validStatuses = map[string]bool{
	"insured":   true,
	"uninsured": true,
	"medicaid":  true,
	"self_pay":  true,
	"unknown":   true,
}

// InsuranceDetail maps to the insurance_detail table, at most one per
// referral. Only the status is required for readiness; carrier fields
// fill in as the family provides them.
type InsuranceDetail struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ReferralID  uuid.UUID `db:"referral_id" json:"referral_id"`
	Status      string    `db:"status" json:"status"`
	Carrier     *string   `db:"carrier" json:"carrier,omitempty"`
	MemberID    *string   `db:"member_id" json:"member_id,omitempty"`
	GroupNumber *string   `db:"group_number" json:"group_number,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (d *InsuranceDetail) Validate() []string {
	var violations []string
	if d.Status == "" {
		violations = append(violations, "status is required")
	} else if !validStatuses[d.Status] {
		violations = append(violations, "status must be one of insured, uninsured, medicaid, self_pay, unknown")
	}
	return violations
}

// Upload scan statuses.
const (
	UploadPending = "pending"
	UploadScanned = "scanned"
	UploadFailed  = "failed"
)

// InsuranceUpload is the metadata row for an uploaded card image. The
// file bytes live in external storage; scanning runs as a background
// job that fills in status and confidence.
type InsuranceUpload struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReferralID uuid.UUID `db:"referral_id" json:"referral_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	Status     string    `db:"status" json:"status"`
	Confidence *float64  `db:"confidence" json:"confidence,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CostDisclaimer accompanies every estimate in the packet and API
// responses. The figure is informational until benefits are verified.
const CostDisclaimer = "This estimate is based on the insurance information provided and is not a guarantee of coverage or final cost."

// CostEstimate is derived from the insurance detail, at most one per
// referral, and recomputed by an explicit refresh.
type CostEstimate struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ReferralID     uuid.UUID `db:"referral_id" json:"referral_id"`
	EstimatedCents int       `db:"estimated_cents" json:"estimated_cents"`
	Currency       string    `db:"currency" json:"currency"`
	ComputedAt     time.Time `db:"computed_at" json:"computed_at"`
}
