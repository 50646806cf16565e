package referral

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/jobs"
	"github.com/carebridge/referral/internal/platform/notify"
)

// Service owns the referral state machine and the invariants around
// it. Every status write that lands on an active status re-checks the
// one-active-referral-per-child rule inside the same transaction.
type Service struct {
	repo   Repository
	src    *Sources
	queue  jobs.Enqueuer
	events notify.Dispatcher
	inTx   TxRunner
	log    zerolog.Logger
}

func NewService(repo Repository, src *Sources, queue jobs.Enqueuer, events notify.Dispatcher, inTx TxRunner, log zerolog.Logger) *Service {
	return &Service{repo: repo, src: src, queue: queue, events: events, inTx: inTx, log: log}
}

// Create starts a draft referral for the child. Fails with
// *DuplicateActiveReferralError if the child already has an active
// one.
func (s *Service) Create(ctx context.Context, childID uuid.UUID) (*Referral, error) {
	if childID == uuid.Nil {
		return nil, fmt.Errorf("child_id is required")
	}
	ref := &Referral{ChildID: childID, Status: StatusDraft, PacketStatus: PacketNotGenerated}
	err := s.inTx(ctx, func(ctx context.Context) error {
		active, err := s.repo.ActiveForChild(ctx, childID)
		if err != nil {
			return fmt.Errorf("check active referrals: %w", err)
		}
		if len(active) > 0 {
			return &DuplicateActiveReferralError{ChildID: childID}
		}
		return s.repo.Create(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, notify.EventReferralCreated, map[string]string{
		"referral_id": ref.ID.String(),
	})
	s.log.Info().
		Str("referral_id", ref.ID.String()).
		Str("child_id", childID.String()).
		Msg("referral created")
	return ref, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByChild(ctx context.Context, childID uuid.UUID) ([]*Referral, error) {
	return s.repo.ListByChild(ctx, childID)
}

// CheckReadiness reports the submission precondition for the referral.
func (s *Service) CheckReadiness(ctx context.Context, id uuid.UUID) (Readiness, error) {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Readiness{}, err
	}
	return CheckReadiness(ctx, s.src, ref), nil
}

// transition is the single path for status changes. apply runs on the
// loaded referral after the table and invariant checks pass, inside
// the same transaction as the write. The referral row is locked for
// the whole unit so two concurrent transitions of the same referral
// serialize instead of both reading the stale status.
func (s *Service) transition(ctx context.Context, id uuid.UUID, target Status, apply func(*Referral) error) (*Referral, error) {
	var ref *Referral
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		ref, err = s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load referral: %w", err)
		}
		if !ref.Status.CanTransitionTo(target) {
			return &InvalidTransitionError{From: ref.Status, To: target}
		}
		if target.Active() {
			active, err := s.repo.ActiveForChild(ctx, ref.ChildID)
			if err != nil {
				return fmt.Errorf("check active referrals: %w", err)
			}
			for _, activeID := range active {
				if activeID != ref.ID {
					return &DuplicateActiveReferralError{ChildID: ref.ChildID}
				}
			}
		}
		if apply != nil {
			if err := apply(ref); err != nil {
				return err
			}
		}
		ref.Status = target
		return s.repo.Update(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// Transition moves the referral to target with no side effects beyond
// the status change. Submission, withdrawal, and scheduling have their
// own entry points because they stamp fields and fire events.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target Status) (*Referral, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown status %q", target)
	}
	switch target {
	case StatusSubmitted:
		return s.Submit(ctx, id)
	case StatusWithdrawn:
		return s.Withdraw(ctx, id)
	case StatusDeleted:
		return nil, fmt.Errorf("deleted is only reachable through the deletion approval flow")
	case StatusScheduled:
		return nil, fmt.Errorf("scheduling requires session details")
	}
	ref, err := s.transition(ctx, id, target, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("referral_id", id.String()).
		Str("status", string(target)).
		Msg("referral transitioned")
	return ref, nil
}

// Submit runs the readiness validator and, when it passes, moves the
// referral to submitted, stamps submitted_at, flips the packet to
// generating, and enqueues packet generation. A NotReady rejection
// mutates nothing.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*Referral, error) {
	ref, err := s.transition(ctx, id, StatusSubmitted, func(r *Referral) error {
		if r.Status == StatusDraft {
			readiness := CheckReadiness(ctx, s.src, r)
			if !readiness.OK {
				return &NotReadyError{Missing: readiness.Missing}
			}
		}
		now := time.Now().UTC()
		r.SubmittedAt = &now
		r.PacketStatus = PacketGenerating
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Type:    jobs.TypeGeneratePacket,
		Payload: map[string]string{"referral_id": id.String()},
	}); err != nil {
		s.log.Warn().Err(err).Str("referral_id", id.String()).Msg("failed to enqueue packet generation")
	}
	s.events.Dispatch(ctx, notify.EventReferralSubmitted, map[string]string{
		"referral_id":  id.String(),
		"submitted_at": ref.SubmittedAt.Format(time.RFC3339),
	})
	s.log.Info().Str("referral_id", id.String()).Msg("referral submitted")
	return ref, nil
}

// Withdraw closes the referral out at the family's or an admin's
// request. Who may call it is an authorization question, not a state
// machine one.
func (s *Service) Withdraw(ctx context.Context, id uuid.UUID) (*Referral, error) {
	ref, err := s.transition(ctx, id, StatusWithdrawn, func(r *Referral) error {
		now := time.Now().UTC()
		r.WithdrawnAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, notify.EventReferralWithdrawn, map[string]string{
		"referral_id": id.String(),
	})
	s.log.Info().Str("referral_id", id.String()).Msg("referral withdrawn")
	return ref, nil
}

// Schedule moves the referral to scheduled and captures the session
// booking details. Those fields are set nowhere else.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, session ScheduledSession) (*Referral, error) {
	if session.ClinicianName == "" || session.Time == "" || session.Date.IsZero() {
		return nil, fmt.Errorf("session date, time, and clinician are required")
	}
	return s.transition(ctx, id, StatusScheduled, func(r *Referral) error {
		r.SessionDate = &session.Date
		r.SessionTime = &session.Time
		r.ClinicianName = &session.ClinicianName
		if session.SessionType != "" {
			r.SessionType = &session.SessionType
		}
		return nil
	})
}

// RecordStep tracks the family's progress through onboarding.
func (s *Service) RecordStep(ctx context.Context, id uuid.UUID, step string) (*Referral, error) {
	if !ValidStep(step) {
		return nil, fmt.Errorf("unknown onboarding step %q", step)
	}
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ref.LastCompletedStep = &step
	ref.LastUpdatedStepAt = &now
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, fmt.Errorf("record step: %w", err)
	}
	return ref, nil
}

// SetRiskFlag raises the referral's risk flag. Satisfies the
// screener's flagger dependency.
func (s *Service) SetRiskFlag(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetRiskFlag(ctx, id)
}

// RequestDeletion stamps the two-phase deletion request.
func (s *Service) RequestDeletion(ctx context.Context, id uuid.UUID) (*Referral, error) {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.DeletionRequestedAt != nil {
		return ref, nil
	}
	now := time.Now().UTC()
	ref.DeletionRequestedAt = &now
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, fmt.Errorf("request deletion: %w", err)
	}
	s.events.Dispatch(ctx, notify.EventDeletionRequested, map[string]string{
		"referral_id":  id.String(),
		"requested_at": now.Format(time.RFC3339),
	})
	return ref, nil
}

// ApproveDeletion purges identifying fields and only then marks the
// referral deleted. Admin-gated at the handler. The purge and the
// status write share one transaction; a failed purge leaves the
// referral untouched.
func (s *Service) ApproveDeletion(ctx context.Context, id uuid.UUID) (*Referral, error) {
	var ref *Referral
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		ref, err = s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load referral: %w", err)
		}
		if ref.DeletionRequestedAt == nil {
			return fmt.Errorf("no deletion request on referral %s", id)
		}
		if err := s.repo.Purge(ctx, id); err != nil {
			return fmt.Errorf("purge referral: %w", err)
		}
		ref.Status = StatusDeleted
		return s.repo.Update(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, notify.EventDeletionApproved, map[string]string{
		"referral_id": id.String(),
	})
	s.log.Info().Str("referral_id", id.String()).Msg("referral purged and deleted")
	return ref, nil
}

// RejectDeletion clears the request stamp and notifies the requester.
func (s *Service) RejectDeletion(ctx context.Context, id uuid.UUID) (*Referral, error) {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.DeletionRequestedAt == nil {
		return nil, fmt.Errorf("no deletion request on referral %s", id)
	}
	ref.DeletionRequestedAt = nil
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, fmt.Errorf("reject deletion: %w", err)
	}
	s.events.Dispatch(ctx, notify.EventDeletionRejected, map[string]string{
		"referral_id": id.String(),
	})
	return ref, nil
}

// GeneratePacket is the packet.generate job handler. It builds the
// snapshot, persists it, and flips the packet status. A build or save
// failure marks the packet failed without touching referral status.
func (s *Service) GeneratePacket(ctx context.Context, id uuid.UUID) error {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load referral: %w", err)
	}

	doc, err := BuildPacket(ctx, s.src, ref)
	if err == nil {
		var data []byte
		data, err = json.Marshal(doc)
		if err == nil {
			err = s.repo.SavePacket(ctx, id, data, doc.Header.GeneratedAt)
		}
	}

	if err != nil {
		ref.PacketStatus = PacketFailed
		if updateErr := s.repo.Update(ctx, ref); updateErr != nil {
			s.log.Error().Err(updateErr).Str("referral_id", id.String()).Msg("failed to mark packet failed")
		}
		return fmt.Errorf("generate packet: %w", err)
	}

	ref.PacketStatus = PacketComplete
	if err := s.repo.Update(ctx, ref); err != nil {
		return fmt.Errorf("mark packet complete: %w", err)
	}
	s.log.Info().Str("referral_id", id.String()).Msg("packet generated")
	return nil
}

// GetPacket returns the latest stored packet document.
func (s *Service) GetPacket(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.repo.GetPacket(ctx, id)
}
