package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/validation"
)

// Service owns the family's scheduling preference.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SavePreference upserts the preference. Malformed windows are
// rejected outright so they never linger as silently-invalid rows.
func (s *Service) SavePreference(ctx context.Context, p *SchedulingPreference) error {
	if p.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	var violations []string
	for i, w := range p.Windows {
		if !w.Valid() {
			violations = append(violations, fmt.Sprintf("window %d: start must be HH:MM and strictly before end", i+1))
		}
	}
	if err := validation.NewError(violations); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("save scheduling preference: %w", err)
	}
	return nil
}

func (s *Service) GetPreference(ctx context.Context, referralID uuid.UUID) (*SchedulingPreference, error) {
	return s.repo.GetByReferral(ctx, referralID)
}
