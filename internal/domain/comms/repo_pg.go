package comms

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/referral/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Thread Repository ===========

type threadRepoPG struct{ pool *pgxpool.Pool }

func NewThreadRepoPG(pool *pgxpool.Pool) ThreadRepository {
	return &threadRepoPG{pool: pool}
}

func (r *threadRepoPG) CreateThread(ctx context.Context, t *ChatThread) error {
	t.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO chat_thread (id, referral_id, subject) VALUES ($1,$2,$3)`,
		t.ID, t.ReferralID, t.Subject)
	return err
}

func (r *threadRepoPG) GetThread(ctx context.Context, id uuid.UUID) (*ChatThread, error) {
	var t ChatThread
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, referral_id, subject, created_at FROM chat_thread WHERE id = $1`, id).
		Scan(&t.ID, &t.ReferralID, &t.Subject, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *threadRepoPG) ListThreadsByReferral(ctx context.Context, referralID uuid.UUID) ([]*ChatThread, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, referral_id, subject, created_at
		FROM chat_thread WHERE referral_id = $1 ORDER BY created_at`, referralID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var threads []*ChatThread
	for rows.Next() {
		var t ChatThread
		if err := rows.Scan(&t.ID, &t.ReferralID, &t.Subject, &t.CreatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, &t)
	}
	return threads, nil
}

func (r *threadRepoPG) AddMessage(ctx context.Context, m *ChatMessage) error {
	m.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO chat_message (id, thread_id, author_id, body) VALUES ($1,$2,$3,$4)`,
		m.ID, m.ThreadID, m.AuthorID, m.Body)
	return err
}

func (r *threadRepoPG) ListMessages(ctx context.Context, threadID uuid.UUID) ([]*ChatMessage, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, thread_id, author_id, body, created_at
		FROM chat_message WHERE thread_id = $1 ORDER BY created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.AuthorID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, nil
}

// =========== Note Repository ===========

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewNoteRepoPG(pool *pgxpool.Pool) NoteRepository {
	return &noteRepoPG{pool: pool}
}

func (r *noteRepoPG) Create(ctx context.Context, n *AdminNote) error {
	n.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO admin_note (id, referral_id, author_id, body) VALUES ($1,$2,$3,$4)`,
		n.ID, n.ReferralID, n.AuthorID, n.Body)
	return err
}

func (r *noteRepoPG) ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*AdminNote, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, referral_id, author_id, body, created_at
		FROM admin_note WHERE referral_id = $1 ORDER BY created_at`, referralID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []*AdminNote
	for rows.Next() {
		var n AdminNote
		if err := rows.Scan(&n.ID, &n.ReferralID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, nil
}
