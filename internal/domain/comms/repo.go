package comms

import (
	"context"

	"github.com/google/uuid"
)

// ThreadRepository persists chat threads and their messages.
type ThreadRepository interface {
	CreateThread(ctx context.Context, t *ChatThread) error
	GetThread(ctx context.Context, id uuid.UUID) (*ChatThread, error)
	ListThreadsByReferral(ctx context.Context, referralID uuid.UUID) ([]*ChatThread, error)
	AddMessage(ctx context.Context, m *ChatMessage) error
	ListMessages(ctx context.Context, threadID uuid.UUID) ([]*ChatMessage, error)
}

// NoteRepository persists internal admin notes.
type NoteRepository interface {
	Create(ctx context.Context, n *AdminNote) error
	ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*AdminNote, error)
}
