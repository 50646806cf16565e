package family

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/validation"
)

// Service owns guardian and child profile lifecycle.
type Service struct {
	parents  ParentRepository
	children ChildRepository
	log      zerolog.Logger
}

func NewService(parents ParentRepository, children ChildRepository, log zerolog.Logger) *Service {
	return &Service{parents: parents, children: children, log: log}
}

func (s *Service) CreateParent(ctx context.Context, p *ParentProfile) error {
	if err := validation.NewError(p.Validate()); err != nil {
		return err
	}
	if err := s.parents.Create(ctx, p); err != nil {
		return fmt.Errorf("create parent profile: %w", err)
	}
	s.log.Info().Str("parent_id", p.ID.String()).Msg("parent profile created")
	return nil
}

func (s *Service) GetParent(ctx context.Context, id uuid.UUID) (*ParentProfile, error) {
	return s.parents.GetByID(ctx, id)
}

// UpdateParent saves a partial profile. Fields left empty stay empty;
// completeness is checked at submission time, not here.
func (s *Service) UpdateParent(ctx context.Context, p *ParentProfile) error {
	if err := validation.NewError(p.Validate()); err != nil {
		return err
	}
	if err := s.parents.Update(ctx, p); err != nil {
		return fmt.Errorf("update parent profile: %w", err)
	}
	return nil
}

func (s *Service) CreateChild(ctx context.Context, c *ChildProfile) error {
	if c.ParentID == uuid.Nil {
		return fmt.Errorf("parent_id is required")
	}
	if _, err := s.parents.GetByID(ctx, c.ParentID); err != nil {
		return fmt.Errorf("parent profile not found: %w", err)
	}
	if err := validation.NewError(c.Validate()); err != nil {
		return err
	}
	if err := s.children.Create(ctx, c); err != nil {
		return fmt.Errorf("create child profile: %w", err)
	}
	s.log.Info().
		Str("child_id", c.ID.String()).
		Str("parent_id", c.ParentID.String()).
		Msg("child profile created")
	return nil
}

func (s *Service) GetChild(ctx context.Context, id uuid.UUID) (*ChildProfile, error) {
	return s.children.GetByID(ctx, id)
}

func (s *Service) UpdateChild(ctx context.Context, c *ChildProfile) error {
	if err := validation.NewError(c.Validate()); err != nil {
		return err
	}
	if err := s.children.Update(ctx, c); err != nil {
		return fmt.Errorf("update child profile: %w", err)
	}
	return nil
}

func (s *Service) ListChildren(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*ChildProfile, int, error) {
	return s.children.ListByParent(ctx, parentID, limit, offset)
}
