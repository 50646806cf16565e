package referral

import (
	"context"

	"github.com/google/uuid"

	"github.com/carebridge/referral/internal/domain/comms"
	"github.com/carebridge/referral/internal/domain/family"
	"github.com/carebridge/referral/internal/domain/insurance"
	"github.com/carebridge/referral/internal/domain/intake"
	"github.com/carebridge/referral/internal/domain/scheduling"
	"github.com/carebridge/referral/internal/domain/screener"
)

// Section names reported by the readiness validator, in check order.
const (
	SectionParentProfile   = "Parent Profile"
	SectionChildProfile    = "Child Profile"
	SectionInsurance       = "Insurance"
	SectionScheduling      = "Scheduling"
	SectionConsents        = "Consents"
	SectionClinicalConcern = "Clinical Concern"
)

// Narrow read interfaces over sibling domains. The domain services
// satisfy these directly; the validator and packet builder never see
// a full service surface.
type (
	ChildSource interface {
		GetChild(ctx context.Context, id uuid.UUID) (*family.ChildProfile, error)
	}
	ParentSource interface {
		GetParent(ctx context.Context, id uuid.UUID) (*family.ParentProfile, error)
	}
	IntakeSource interface {
		GetResponse(ctx context.Context, referralID uuid.UUID) (*intake.IntakeResponse, error)
	}
	ConsentSource interface {
		ListConsents(ctx context.Context, referralID uuid.UUID) ([]*intake.ConsentRecord, error)
	}
	InsuranceSource interface {
		GetDetail(ctx context.Context, referralID uuid.UUID) (*insurance.InsuranceDetail, error)
		ListUploads(ctx context.Context, referralID uuid.UUID) ([]*insurance.InsuranceUpload, error)
		GetEstimate(ctx context.Context, referralID uuid.UUID) (*insurance.CostEstimate, error)
	}
	SchedulingSource interface {
		GetPreference(ctx context.Context, referralID uuid.UUID) (*scheduling.SchedulingPreference, error)
	}
	ScreenerSource interface {
		GetSession(ctx context.Context, referralID uuid.UUID) (*screener.Session, error)
	}
	CommsSource interface {
		ListThreads(ctx context.Context, referralID uuid.UUID) ([]*comms.ChatThread, error)
		ListMessages(ctx context.Context, threadID uuid.UUID) ([]*comms.ChatMessage, error)
		ListNotes(ctx context.Context, referralID uuid.UUID) ([]*comms.AdminNote, error)
	}
)

// Sources bundles the cross-domain readers shared by the readiness
// validator and the packet builder.
type Sources struct {
	Children   ChildSource
	Parents    ParentSource
	Intake     IntakeSource
	Consents   ConsentSource
	Insurance  InsuranceSource
	Scheduling SchedulingSource
	Screener   ScreenerSource
	Comms      CommsSource
}

// Readiness is the submission precondition report.
type Readiness struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing"`
}

// CheckReadiness runs the six independent completeness checks. Every
// check runs on every call so the family sees the full missing list at
// once; a missing or unreadable sub-entity counts as missing.
func CheckReadiness(ctx context.Context, src *Sources, ref *Referral) Readiness {
	var missing []string

	child, childErr := src.Children.GetChild(ctx, ref.ChildID)

	// Parent Profile
	parentOK := false
	if childErr == nil {
		if parent, err := src.Parents.GetParent(ctx, child.ParentID); err == nil {
			parentOK = parent.Complete()
		}
	}
	if !parentOK {
		missing = append(missing, SectionParentProfile)
	}

	// Child Profile
	if childErr != nil || !child.Complete() {
		missing = append(missing, SectionChildProfile)
	}

	// Insurance: a status value is enough, carrier detail is optional.
	if detail, err := src.Insurance.GetDetail(ctx, ref.ID); err != nil || detail.Status == "" {
		missing = append(missing, SectionInsurance)
	}

	// Scheduling
	if pref, err := src.Scheduling.GetPreference(ctx, ref.ID); err != nil || !pref.Complete() {
		missing = append(missing, SectionScheduling)
	}

	// Consents
	consents, err := src.Consents.ListConsents(ctx, ref.ID)
	if err != nil || len(intake.MissingConsents(consents)) > 0 {
		missing = append(missing, SectionConsents)
	}

	// Clinical Concern: intake answers or screener content, either
	// satisfies the check.
	concern := false
	if resp, err := src.Intake.GetResponse(ctx, ref.ID); err == nil && resp.HasPrimaryConcern() {
		concern = true
	}
	if !concern {
		if session, err := src.Screener.GetSession(ctx, ref.ID); err == nil && session.HasContent() {
			concern = true
		}
	}
	if !concern {
		missing = append(missing, SectionClinicalConcern)
	}

	return Readiness{OK: len(missing) == 0, Missing: missing}
}
