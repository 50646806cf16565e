package screener

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sessionCols = `id, referral_id, transcript, summary, risk_flag, completed_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ReferralID, &s.Transcript, &s.Summary,
		&s.RiskFlag, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	if s.Transcript == nil {
		s.Transcript = []Message{}
	}
	if s.Summary == nil {
		s.Summary = map[string]string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO screener_session (id, referral_id, transcript, summary, risk_flag)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.ReferralID, s.Transcript, s.Summary, s.RiskFlag)
	return err
}

func (r *repoPG) GetByReferral(ctx context.Context, referralID uuid.UUID) (*Session, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM screener_session WHERE referral_id = $1`, referralID))
}

func (r *repoPG) Update(ctx context.Context, s *Session) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE screener_session
		SET transcript = $2, summary = $3, risk_flag = $4, completed_at = $5, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Transcript, s.Summary, s.RiskFlag, s.CompletedAt)
	return err
}
