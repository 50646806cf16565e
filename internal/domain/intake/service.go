package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns intake answers and consent acceptance.
type Service struct {
	responses ResponseRepository
	consents  ConsentRepository
	log       zerolog.Logger
}

func NewService(responses ResponseRepository, consents ConsentRepository, log zerolog.Logger) *Service {
	return &Service{responses: responses, consents: consents, log: log}
}

// SaveResponse creates or replaces the referral's intake answers.
func (s *Service) SaveResponse(ctx context.Context, r *IntakeResponse) error {
	if r.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if r.Answers == nil {
		r.Answers = map[string]interface{}{}
	}
	if err := s.responses.Upsert(ctx, r); err != nil {
		return fmt.Errorf("save intake response: %w", err)
	}
	return nil
}

func (s *Service) GetResponse(ctx context.Context, referralID uuid.UUID) (*IntakeResponse, error) {
	return s.responses.GetByReferral(ctx, referralID)
}

// AcceptConsent records one consent acceptance. Repeated accepts for
// the same (referral, type) are idempotent.
func (s *Service) AcceptConsent(ctx context.Context, rec *ConsentRecord) error {
	if rec.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if !ValidConsentType(rec.ConsentType) {
		return fmt.Errorf("unknown consent type %q", rec.ConsentType)
	}
	if rec.AcceptedAt.IsZero() {
		rec.AcceptedAt = time.Now().UTC()
	}
	if err := s.consents.Accept(ctx, rec); err != nil {
		return fmt.Errorf("accept consent: %w", err)
	}
	s.log.Info().
		Str("referral_id", rec.ReferralID.String()).
		Str("consent_type", rec.ConsentType).
		Msg("consent accepted")
	return nil
}

func (s *Service) ListConsents(ctx context.Context, referralID uuid.UUID) ([]*ConsentRecord, error) {
	return s.consents.ListByReferral(ctx, referralID)
}

// MissingConsents returns the required types the referral has not yet
// accepted.
func (s *Service) MissingConsents(ctx context.Context, referralID uuid.UUID) ([]string, error) {
	records, err := s.consents.ListByReferral(ctx, referralID)
	if err != nil {
		return nil, err
	}
	return MissingConsents(records), nil
}
