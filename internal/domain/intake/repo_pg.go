package intake

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

// =========== Intake Response Repository ===========

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepoPG{pool: pool}
}

func (r *responseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Upsert keeps the one-response-per-referral shape: a second save for
// the same referral replaces the answers in place.
func (r *responseRepoPG) Upsert(ctx context.Context, resp *IntakeResponse) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO intake_response (id, referral_id, answers)
		VALUES ($1,$2,$3)
		ON CONFLICT (referral_id)
		DO UPDATE SET answers = EXCLUDED.answers, updated_at = NOW()`,
		resp.ID, resp.ReferralID, resp.Answers)
	return err
}

func (r *responseRepoPG) GetByReferral(ctx context.Context, referralID uuid.UUID) (*IntakeResponse, error) {
	var resp IntakeResponse
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, referral_id, answers, created_at, updated_at
		FROM intake_response WHERE referral_id = $1`, referralID).
		Scan(&resp.ID, &resp.ReferralID, &resp.Answers, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// =========== Consent Repository ===========

type consentRepoPG struct{ pool *pgxpool.Pool }

func NewConsentRepoPG(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

func (r *consentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Accept relies on the unique index on (referral_id, consent_type);
// a concurrent or repeated accept keeps the first acceptance.
func (r *consentRepoPG) Accept(ctx context.Context, rec *ConsentRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent_record (id, referral_id, consent_type, accepted_at, ip_address, user_agent)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (referral_id, consent_type) DO NOTHING`,
		rec.ID, rec.ReferralID, rec.ConsentType, rec.AcceptedAt, rec.IPAddress, rec.UserAgent)
	return err
}

func (r *consentRepoPG) ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*ConsentRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, referral_id, consent_type, accepted_at, ip_address, user_agent
		FROM consent_record WHERE referral_id = $1 ORDER BY consent_type`, referralID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*ConsentRecord
	for rows.Next() {
		var rec ConsentRecord
		if err := rows.Scan(&rec.ID, &rec.ReferralID, &rec.ConsentType, &rec.AcceptedAt, &rec.IPAddress, &rec.UserAgent); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, nil
}
