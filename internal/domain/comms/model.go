package comms

import (
	"time"

	"github.com/google/uuid"
)

// ChatThread groups messages between the family and the care team for
// one referral.
type ChatThread struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReferralID uuid.UUID `db:"referral_id" json:"referral_id"`
	Subject    string    `db:"subject" json:"subject"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage is one message in a thread.
type ChatMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ThreadID  uuid.UUID `db:"thread_id" json:"thread_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdminNote is an internal note on a referral. Never shown to the
// family, but included in the submission packet.
type AdminNote struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReferralID uuid.UUID `db:"referral_id" json:"referral_id"`
	AuthorID   uuid.UUID `db:"author_id" json:"author_id"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
