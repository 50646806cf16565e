package screener

import (
	"time"

	"github.com/google/uuid"
)

// Message roles in a screener transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry. The shape is fixed at ingress;
// nothing downstream deals in loosely-keyed maps.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Crisis    bool      `json:"crisis"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the single conversational thread tying a referral to its
// screener interaction. One per referral, created lazily on Start.
// Transcript and summary are stored as JSONB.
type Session struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	ReferralID  uuid.UUID         `db:"referral_id" json:"referral_id"`
	Transcript  []Message         `db:"transcript" json:"transcript"`
	Summary     map[string]string `db:"summary" json:"summary"`
	RiskFlag    bool              `db:"risk_flag" json:"risk_flag"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the session has been closed out.
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}

// UserMessageCount counts user-authored transcript entries.
func (s *Session) UserMessageCount() int {
	n := 0
	for _, m := range s.Transcript {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// HasContent reports whether the session carries any transcript or
// summary, which satisfies the clinical-concern readiness check.
func (s *Session) HasContent() bool {
	return s != nil && (len(s.Transcript) > 0 || len(s.Summary) > 0)
}
