package scheduling

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

// Windows are stored as a JSONB array on the preference row.
func (r *repoPG) Upsert(ctx context.Context, p *SchedulingPreference) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO scheduling_preference (id, referral_id, timezone, location_preference, windows)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (referral_id)
		DO UPDATE SET timezone = EXCLUDED.timezone,
			location_preference = EXCLUDED.location_preference,
			windows = EXCLUDED.windows, updated_at = NOW()`,
		p.ID, p.ReferralID, p.Timezone, p.LocationPreference, p.Windows)
	return err
}

func (r *repoPG) GetByReferral(ctx context.Context, referralID uuid.UUID) (*SchedulingPreference, error) {
	var p SchedulingPreference
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, referral_id, timezone, location_preference, windows, created_at, updated_at
		FROM scheduling_preference WHERE referral_id = $1`, referralID).
		Scan(&p.ID, &p.ReferralID, &p.Timezone, &p.LocationPreference, &p.Windows, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
