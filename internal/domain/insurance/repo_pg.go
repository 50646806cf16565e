package insurance

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

// =========== Detail Repository ===========

type detailRepoPG struct{ pool *pgxpool.Pool }

func NewDetailRepoPG(pool *pgxpool.Pool) DetailRepository {
	return &detailRepoPG{pool: pool}
}

func (r *detailRepoPG) Upsert(ctx context.Context, d *InsuranceDetail) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurance_detail (id, referral_id, status, carrier, member_id, group_number)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (referral_id)
		DO UPDATE SET status = EXCLUDED.status, carrier = EXCLUDED.carrier,
			member_id = EXCLUDED.member_id, group_number = EXCLUDED.group_number,
			updated_at = NOW()`,
		d.ID, d.ReferralID, d.Status, d.Carrier, d.MemberID, d.GroupNumber)
	return err
}

func (r *detailRepoPG) GetByReferral(ctx context.Context, referralID uuid.UUID) (*InsuranceDetail, error) {
	var d InsuranceDetail
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, referral_id, status, carrier, member_id, group_number, created_at, updated_at
		FROM insurance_detail WHERE referral_id = $1`, referralID).
		Scan(&d.ID, &d.ReferralID, &d.Status, &d.Carrier, &d.MemberID, &d.GroupNumber, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =========== Upload Repository ===========

type uploadRepoPG struct{ pool *pgxpool.Pool }

func NewUploadRepoPG(pool *pgxpool.Pool) UploadRepository {
	return &uploadRepoPG{pool: pool}
}

func (r *uploadRepoPG) Create(ctx context.Context, u *InsuranceUpload) error {
	u.ID = uuid.New()
	if u.Status == "" {
		u.Status = UploadPending
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurance_upload (id, referral_id, file_name, status)
		VALUES ($1,$2,$3,$4)`,
		u.ID, u.ReferralID, u.FileName, u.Status)
	return err
}

func (r *uploadRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InsuranceUpload, error) {
	var u InsuranceUpload
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, referral_id, file_name, status, confidence, created_at, updated_at
		FROM insurance_upload WHERE id = $1`, id).
		Scan(&u.ID, &u.ReferralID, &u.FileName, &u.Status, &u.Confidence, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *uploadRepoPG) UpdateScan(ctx context.Context, id uuid.UUID, status string, confidence *float64) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE insurance_upload SET status = $2, confidence = $3, updated_at = NOW()
		WHERE id = $1`, id, status, confidence)
	return err
}

func (r *uploadRepoPG) ListByReferral(ctx context.Context, referralID uuid.UUID) ([]*InsuranceUpload, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, referral_id, file_name, status, confidence, created_at, updated_at
		FROM insurance_upload WHERE referral_id = $1 ORDER BY created_at`, referralID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var uploads []*InsuranceUpload
	for rows.Next() {
		var u InsuranceUpload
		if err := rows.Scan(&u.ID, &u.ReferralID, &u.FileName, &u.Status, &u.Confidence, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, &u)
	}
	return uploads, nil
}

// =========== Estimate Repository ===========

type estimateRepoPG struct{ pool *pgxpool.Pool }

func NewEstimateRepoPG(pool *pgxpool.Pool) EstimateRepository {
	return &estimateRepoPG{pool: pool}
}

func (r *estimateRepoPG) Upsert(ctx context.Context, e *CostEstimate) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO cost_estimate (id, referral_id, estimated_cents, currency, computed_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (referral_id)
		DO UPDATE SET estimated_cents = EXCLUDED.estimated_cents,
			currency = EXCLUDED.currency, computed_at = EXCLUDED.computed_at`,
		e.ID, e.ReferralID, e.EstimatedCents, e.Currency, e.ComputedAt)
	return err
}

func (r *estimateRepoPG) GetByReferral(ctx context.Context, referralID uuid.UUID) (*CostEstimate, error) {
	var e CostEstimate
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, referral_id, estimated_cents, currency, computed_at
		FROM cost_estimate WHERE referral_id = $1`, referralID).
		Scan(&e.ID, &e.ReferralID, &e.EstimatedCents, &e.Currency, &e.ComputedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
