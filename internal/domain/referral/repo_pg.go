package referral

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/referral/internal/platform/db"
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// failure. The partial unique index on active referrals per child
// surfaces this when two inserts race past the row-lock check.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

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

const referralCols = `id, child_id, status, risk_flag, last_completed_step, last_updated_step_at,
	packet_status, deletion_requested_at, submitted_at, withdrawn_at,
	session_date, session_time, clinician_name, session_type, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Referral, error) {
	var ref Referral
	err := row.Scan(&ref.ID, &ref.ChildID, &ref.Status, &ref.RiskFlag,
		&ref.LastCompletedStep, &ref.LastUpdatedStepAt,
		&ref.PacketStatus, &ref.DeletionRequestedAt, &ref.SubmittedAt, &ref.WithdrawnAt,
		&ref.SessionDate, &ref.SessionTime, &ref.ClinicianName, &ref.SessionType,
		&ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *repoPG) Create(ctx context.Context, ref *Referral) error {
	ref.ID = uuid.New()
	if ref.PacketStatus == "" {
		ref.PacketStatus = PacketNotGenerated
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO referral (id, child_id, status, packet_status)
		VALUES ($1,$2,$3,$4)`,
		ref.ID, ref.ChildID, ref.Status, ref.PacketStatus)
	if isUniqueViolation(err) {
		return &DuplicateActiveReferralError{ChildID: ref.ChildID}
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx, `SELECT `+referralCols+` FROM referral WHERE id = $1`, id))
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+referralCols+` FROM referral WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, ref *Referral) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE referral SET
			status = $2, risk_flag = $3, last_completed_step = $4, last_updated_step_at = $5,
			packet_status = $6, deletion_requested_at = $7, submitted_at = $8, withdrawn_at = $9,
			session_date = $10, session_time = $11, clinician_name = $12, session_type = $13,
			updated_at = NOW()
		WHERE id = $1`,
		ref.ID, ref.Status, ref.RiskFlag, ref.LastCompletedStep, ref.LastUpdatedStepAt,
		ref.PacketStatus, ref.DeletionRequestedAt, ref.SubmittedAt, ref.WithdrawnAt,
		ref.SessionDate, ref.SessionTime, ref.ClinicianName, ref.SessionType)
	if isUniqueViolation(err) {
		return &DuplicateActiveReferralError{ChildID: ref.ChildID}
	}
	return err
}

func (r *repoPG) ListByChild(ctx context.Context, childID uuid.UUID) ([]*Referral, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+referralCols+` FROM referral WHERE child_id = $1 ORDER BY created_at`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Referral
	for rows.Next() {
		ref, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// ActiveForChild locks the matching rows so a concurrent writer in
// another transaction blocks until this one commits.
func (r *repoPG) ActiveForChild(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	statuses := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		statuses[i] = string(s)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id FROM referral
		WHERE child_id = $1 AND status = ANY($2)
		FOR UPDATE`, childID, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repoPG) SetRiskFlag(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE referral SET risk_flag = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) SavePacket(ctx context.Context, referralID uuid.UUID, document []byte, generatedAt time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO referral_packet (id, referral_id, document, generated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (referral_id)
		DO UPDATE SET document = EXCLUDED.document, generated_at = EXCLUDED.generated_at`,
		uuid.New(), referralID, document, generatedAt)
	return err
}

func (r *repoPG) GetPacket(ctx context.Context, referralID uuid.UUID) ([]byte, error) {
	var document []byte
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT document FROM referral_packet WHERE referral_id = $1`, referralID).Scan(&document)
	if err != nil {
		return nil, err
	}
	return document, nil
}

// Purge blanks identifying and clinical fields across the referral's
// sub-entities. Rows and foreign keys survive for audit; content does
// not.
func (r *repoPG) Purge(ctx context.Context, id uuid.UUID) error {
	conn := r.conn(ctx)
	statements := []struct {
		sql  string
		args []interface{}
	}{
		{`UPDATE child_profile SET name = '', date_of_birth = NULL, age_band = NULL,
			grade = '', school = '', district = '', updated_at = NOW()
			WHERE id = (SELECT child_id FROM referral WHERE id = $1)`, []interface{}{id}},
		{`UPDATE intake_response SET answers = '{}'::jsonb, updated_at = NOW()
			WHERE referral_id = $1`, []interface{}{id}},
		{`UPDATE screener_session SET transcript = '[]'::jsonb, summary = '{}'::jsonb, updated_at = NOW()
			WHERE referral_id = $1`, []interface{}{id}},
		{`UPDATE insurance_detail SET carrier = NULL, member_id = NULL, group_number = NULL, updated_at = NOW()
			WHERE referral_id = $1`, []interface{}{id}},
		{`UPDATE chat_message SET body = ''
			WHERE thread_id IN (SELECT id FROM chat_thread WHERE referral_id = $1)`, []interface{}{id}},
		{`UPDATE admin_note SET body = '' WHERE referral_id = $1`, []interface{}{id}},
		{`DELETE FROM referral_packet WHERE referral_id = $1`, []interface{}{id}},
		{`UPDATE referral SET clinician_name = NULL, updated_at = NOW() WHERE id = $1`, []interface{}{id}},
	}
	for _, st := range statements {
		if _, err := conn.Exec(ctx, st.sql, st.args...); err != nil {
			return err
		}
	}
	return nil
}
