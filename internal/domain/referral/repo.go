package referral

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists referrals and their generated packets.
type Repository interface {
	Create(ctx context.Context, r *Referral) error
	GetByID(ctx context.Context, id uuid.UUID) (*Referral, error)

	// GetByIDForUpdate loads the referral and, inside a transaction,
	// locks its row so a concurrent status writer blocks until this
	// unit commits. Status decisions must read through this path.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Referral, error)

	Update(ctx context.Context, r *Referral) error
	ListByChild(ctx context.Context, childID uuid.UUID) ([]*Referral, error)

	// ActiveForChild returns the ids of the child's active referrals.
	// Inside a transaction the rows are locked so two concurrent
	// writers cannot both observe zero.
	ActiveForChild(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error)

	// SetRiskFlag raises the referral's risk flag. Never lowers it.
	SetRiskFlag(ctx context.Context, id uuid.UUID) error

	// SavePacket stores the latest generated packet document.
	SavePacket(ctx context.Context, referralID uuid.UUID, document []byte, generatedAt time.Time) error
	GetPacket(ctx context.Context, referralID uuid.UUID) ([]byte, error)

	// Purge erases personally identifying and clinical fields across
	// the referral's sub-entities. Rows and keys persist for audit.
	Purge(ctx context.Context, id uuid.UUID) error
}

// TxRunner executes fn inside one atomic unit. The context passed to
// fn carries the transaction, so repository calls made with it join
// the same unit.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error
