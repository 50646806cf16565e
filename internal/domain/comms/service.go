package comms

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns chat threads and internal notes.
type Service struct {
	threads ThreadRepository
	notes   NoteRepository
	log     zerolog.Logger
}

func NewService(threads ThreadRepository, notes NoteRepository, log zerolog.Logger) *Service {
	return &Service{threads: threads, notes: notes, log: log}
}

func (s *Service) CreateThread(ctx context.Context, t *ChatThread) error {
	if t.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if err := s.threads.CreateThread(ctx, t); err != nil {
		return fmt.Errorf("create chat thread: %w", err)
	}
	return nil
}

func (s *Service) ListThreads(ctx context.Context, referralID uuid.UUID) ([]*ChatThread, error) {
	return s.threads.ListThreadsByReferral(ctx, referralID)
}

func (s *Service) PostMessage(ctx context.Context, m *ChatMessage) error {
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if _, err := s.threads.GetThread(ctx, m.ThreadID); err != nil {
		return fmt.Errorf("chat thread not found: %w", err)
	}
	if err := s.threads.AddMessage(ctx, m); err != nil {
		return fmt.Errorf("post chat message: %w", err)
	}
	return nil
}

func (s *Service) ListMessages(ctx context.Context, threadID uuid.UUID) ([]*ChatMessage, error) {
	return s.threads.ListMessages(ctx, threadID)
}

func (s *Service) AddNote(ctx context.Context, n *AdminNote) error {
	if n.ReferralID == uuid.Nil {
		return fmt.Errorf("referral_id is required")
	}
	if strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return fmt.Errorf("add admin note: %w", err)
	}
	return nil
}

func (s *Service) ListNotes(ctx context.Context, referralID uuid.UUID) ([]*AdminNote, error) {
	return s.notes.ListByReferral(ctx, referralID)
}
