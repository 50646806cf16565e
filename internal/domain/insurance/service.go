package insurance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/jobs"
	"github.com/carebridge/referral/internal/platform/validation"
)

// Service owns insurance details, card uploads, and the derived cost
// estimate.
type Service struct {
	details   DetailRepository
	uploads   UploadRepository
	estimates EstimateRepository
	queue     jobs.Enqueuer
	log       zerolog.Logger
}

func NewService(details DetailRepository, uploads UploadRepository, estimates EstimateRepository, queue jobs.Enqueuer, log zerolog.Logger) *Service {
	return &Service{details: details, uploads: uploads, estimates: estimates, queue: queue, log: log}
}

// SaveDetail upserts the referral's insurance detail and then attempts
// a best-effort estimate refresh. A refresh failure is logged and never
// fails the save that triggered it.
func (s *Service) SaveDetail(ctx context.Context, d *InsuranceDetail) error {
	if d.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if err := validation.NewError(d.Validate()); err != nil {
		return err
	}
	if err := s.details.Upsert(ctx, d); err != nil {
		return fmt.Errorf("save insurance detail: %w", err)
	}
	if err := s.RefreshEstimate(ctx, d.ReferralID); err != nil {
		s.log.Warn().
			Err(err).
			Str("referral_id", d.ReferralID.String()).
			Msg("cost estimate refresh failed after insurance update")
	}
	return nil
}

func (s *Service) GetDetail(ctx context.Context, referralID uuid.UUID) (*InsuranceDetail, error) {
	return s.details.GetByReferral(ctx, referralID)
}

// RefreshEstimate recomputes the cost estimate from the current
// insurance detail. Callers that cannot tolerate failure handle the
// error; the detail-save path treats it as best effort.
func (s *Service) RefreshEstimate(ctx context.Context, referralID uuid.UUID) error {
	d, err := s.details.GetByReferral(ctx, referralID)
	if err != nil {
		return fmt.Errorf("load insurance detail: %w", err)
	}
	e := &CostEstimate{
		ReferralID:     referralID,
		EstimatedCents: estimateCents(d),
		Currency:       "USD",
		ComputedAt:     time.Now().UTC(),
	}
	if existing, err := s.estimates.GetByReferral(ctx, referralID); err == nil {
		e.ID = existing.ID
	}
	if err := s.estimates.Upsert(ctx, e); err != nil {
		return fmt.Errorf("save cost estimate: %w", err)
	}
	return nil
}

// estimateCents is a coarse per-session figure by coverage status.
// Benefits verification downstream produces the real number.
func estimateCents(d *InsuranceDetail) int {
	switch d.Status {
	case "insured":
		return 4000
	case "medicaid":
		return 0
	case "self_pay", "uninsured":
		return 15000
	default:
		return 15000
	}
}

func (s *Service) GetEstimate(ctx context.Context, referralID uuid.UUID) (*CostEstimate, error) {
	return s.estimates.GetByReferral(ctx, referralID)
}

// RegisterUpload records the upload metadata and enqueues the scan job.
func (s *Service) RegisterUpload(ctx context.Context, u *InsuranceUpload) error {
	if u.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if u.FileName == "" {
		return fmt.Errorf("file_name is required")
	}
	if err := s.uploads.Create(ctx, u); err != nil {
		return fmt.Errorf("register upload: %w", err)
	}
	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type:    jobs.TypeScanUpload,
		Payload: map[string]string{"upload_id": u.ID.String()},
	}); err != nil {
		s.log.Warn().
			Err(err).
			Str("upload_id", u.ID.String()).
			Msg("failed to enqueue upload scan")
	}
	return nil
}

func (s *Service) ListUploads(ctx context.Context, referralID uuid.UUID) ([]*InsuranceUpload, error) {
	return s.uploads.ListByReferral(ctx, referralID)
}

// ScanUpload is the upload.scan job handler. Card OCR itself is an
// external collaborator; here the row moves to scanned with the
// confidence the scanner reported.
func (s *Service) ScanUpload(ctx context.Context, uploadID uuid.UUID, confidence float64) error {
	if _, err := s.uploads.GetByID(ctx, uploadID); err != nil {
		return fmt.Errorf("load upload: %w", err)
	}
	status := UploadScanned
	if confidence <= 0 {
		status = UploadFailed
	}
	if err := s.uploads.UpdateScan(ctx, uploadID, status, &confidence); err != nil {
		return fmt.Errorf("update upload scan: %w", err)
	}
	return nil
}
