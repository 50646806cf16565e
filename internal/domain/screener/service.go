package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/ai"
	"github.com/carebridge/referral/internal/platform/notify"
)

// EmergencyMessage is appended verbatim when a message classifies as
// crisis. The provider is never consulted for that turn.
const EmergencyMessage = "It sounds like you or your child may be in immediate danger. " +
	"Please call or text 988 (Suicide & Crisis Lifeline) or call 911 right now. " +
	"This screener cannot provide emergency help."

const minUserMessages = 3

// Service owns the screener conversation for each referral. Appends
// for one referral are serialized so two assistant replies are never
// generated for overlapping context.
type Service struct {
	repo     Repository
	flagger  ReferralFlagger
	provider ai.Provider
	events   notify.Dispatcher
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, flagger ReferralFlagger, provider ai.Provider, events notify.Dispatcher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		flagger:  flagger,
		provider: provider,
		events:   events,
		log:      log,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the per-referral mutex, creating it on first use.
func (s *Service) lockFor(referralID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[referralID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[referralID] = l
	}
	return l
}

// Start returns the referral's session, creating an empty one if this
// is the first interaction. Idempotent.
func (s *Service) Start(ctx context.Context, referralID uuid.UUID) (*Session, error) {
	l := s.lockFor(referralID)
	l.Lock()
	defer l.Unlock()
	return s.startLocked(ctx, referralID)
}

func (s *Service) startLocked(ctx context.Context, referralID uuid.UUID) (*Session, error) {
	if session, err := s.repo.GetByReferral(ctx, referralID); err == nil {
		return session, nil
	}
	session := &Session{
		ReferralID: referralID,
		Transcript: []Message{},
		Summary:    map[string]string{},
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create screener session: %w", err)
	}
	return session, nil
}

// AppendUserMessage records one user turn and produces the assistant
// response. A crisis classification appends the fixed emergency
// message and never calls the provider. A high-risk classification
// flags the referral and continues. A provider failure leaves the
// user message in place and surfaces as a retryable *ai.ProviderError.
func (s *Service) AppendUserMessage(ctx context.Context, referralID uuid.UUID, text string) (*Session, error) {
	l := s.lockFor(referralID)
	l.Lock()
	defer l.Unlock()

	session, err := s.startLocked(ctx, referralID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, ErrAlreadyCompleted
	}

	result := Classify(text)
	now := time.Now().UTC()
	session.Transcript = append(session.Transcript, Message{
		Role:      RoleUser,
		Content:   text,
		Crisis:    result.Level == RiskCrisis,
		Timestamp: now,
	})

	if result.Level == RiskCrisis {
		session.Transcript = append(session.Transcript, Message{
			Role:      RoleAssistant,
			Content:   EmergencyMessage,
			Crisis:    true,
			Timestamp: now,
		})
		session.RiskFlag = true
		if err := s.repo.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("save screener session: %w", err)
		}
		s.raiseReferralFlag(ctx, referralID)
		s.events.Dispatch(ctx, notify.EventScreenerCrisis, map[string]string{
			"referral_id": referralID.String(),
			"reasons":     fmt.Sprintf("%v", result.Reasons),
		})
		s.log.Warn().
			Str("referral_id", referralID.String()).
			Strs("reasons", result.Reasons).
			Msg("crisis message detected, provider bypassed")
		return session, nil
	}

	if result.Level == RiskHigh {
		session.RiskFlag = true
		s.raiseReferralFlag(ctx, referralID)
	}

	// Commit the user turn before the provider call so a failure does
	// not lose conversation progress.
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("save screener session: %w", err)
	}

	history := make([]ai.Message, 0, len(session.Transcript)-1)
	for _, m := range session.Transcript[:len(session.Transcript)-1] {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}
	reply, err := s.provider.GenerateReply(ctx, history, text)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("referral_id", referralID.String()).
			Msg("provider reply failed, user message kept")
		return session, err
	}

	session.Transcript = append(session.Transcript, Message{
		Role:      RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("save screener session: %w", err)
	}
	return session, nil
}

// Complete closes the session out. The summary call is best effort:
// a provider failure stores an empty summary rather than blocking the
// family.
func (s *Service) Complete(ctx context.Context, referralID uuid.UUID) (*Session, error) {
	l := s.lockFor(referralID)
	l.Lock()
	defer l.Unlock()

	session, err := s.repo.GetByReferral(ctx, referralID)
	if err != nil {
		return nil, ErrNotStarted
	}
	if session.Completed() {
		return nil, ErrAlreadyCompleted
	}
	if session.UserMessageCount() < minUserMessages {
		return nil, ErrTooFewMessages
	}

	history := make([]ai.Message, 0, len(session.Transcript))
	for _, m := range session.Transcript {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}
	summary, err := s.provider.GenerateSummary(ctx, history)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("referral_id", referralID.String()).
			Msg("summary generation failed, completing with empty summary")
		summary = map[string]string{}
	}
	session.Summary = summary

	now := time.Now().UTC()
	session.CompletedAt = &now
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("save screener session: %w", err)
	}
	return session, nil
}

// GetSession returns the referral's session if one exists.
func (s *Service) GetSession(ctx context.Context, referralID uuid.UUID) (*Session, error) {
	return s.repo.GetByReferral(ctx, referralID)
}

func (s *Service) raiseReferralFlag(ctx context.Context, referralID uuid.UUID) {
	if err := s.flagger.SetRiskFlag(ctx, referralID); err != nil {
		s.log.Error().
			Err(err).
			Str("referral_id", referralID.String()).
			Msg("failed to raise referral risk flag")
	}
}
