package family

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

// =========== Parent Profile Repository ===========

type parentRepoPG struct{ pool *pgxpool.Pool }

func NewParentRepoPG(pool *pgxpool.Pool) ParentRepository {
	return &parentRepoPG{pool: pool}
}

func (r *parentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const parentCols = `id, name, email, phone, relationship, created_at, updated_at`

func (r *parentRepoPG) scanParent(row pgx.Row) (*ParentProfile, error) {
	var p ParentProfile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Relationship, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *parentRepoPG) Create(ctx context.Context, p *ParentProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO parent_profile (id, name, email, phone, relationship)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.Email, p.Phone, p.Relationship)
	return err
}

func (r *parentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ParentProfile, error) {
	return r.scanParent(r.conn(ctx).QueryRow(ctx, `SELECT `+parentCols+` FROM parent_profile WHERE id = $1`, id))
}

func (r *parentRepoPG) Update(ctx context.Context, p *ParentProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE parent_profile SET name=$2, email=$3, phone=$4, relationship=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.Relationship)
	return err
}

func (r *parentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM parent_profile WHERE id = $1`, id)
	return err
}

// =========== Child Profile Repository ===========

type childRepoPG struct{ pool *pgxpool.Pool }

func NewChildRepoPG(pool *pgxpool.Pool) ChildRepository {
	return &childRepoPG{pool: pool}
}

func (r *childRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const childCols = `id, parent_id, name, date_of_birth, age_band, grade, school, district, created_at, updated_at`

func (r *childRepoPG) scanChild(row pgx.Row) (*ChildProfile, error) {
	var c ChildProfile
	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.DateOfBirth, &c.AgeBand,
		&c.Grade, &c.School, &c.District, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *childRepoPG) Create(ctx context.Context, c *ChildProfile) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO child_profile (id, parent_id, name, date_of_birth, age_band, grade, school, district)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.ParentID, c.Name, c.DateOfBirth, c.AgeBand, c.Grade, c.School, c.District)
	return err
}

func (r *childRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ChildProfile, error) {
	return r.scanChild(r.conn(ctx).QueryRow(ctx, `SELECT `+childCols+` FROM child_profile WHERE id = $1`, id))
}

func (r *childRepoPG) Update(ctx context.Context, c *ChildProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE child_profile SET name=$2, date_of_birth=$3, age_band=$4, grade=$5,
			school=$6, district=$7, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.DateOfBirth, c.AgeBand, c.Grade, c.School, c.District)
	return err
}

func (r *childRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM child_profile WHERE id = $1`, id)
	return err
}

func (r *childRepoPG) ListByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*ChildProfile, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM child_profile WHERE parent_id = $1`, parentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+childCols+` FROM child_profile WHERE parent_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`, parentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ChildProfile
	for rows.Next() {
		c, err := r.scanChild(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}
