package referral

import (
	"time"

	"github.com/google/uuid"
)

// Status is the referral lifecycle state.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusSubmitted       Status = "submitted"
	StatusInReview        Status = "in_review"
	StatusReadyToSchedule Status = "ready_to_schedule"
	StatusScheduled       Status = "scheduled"
	StatusClosed          Status = "closed"
	StatusWithdrawn       Status = "withdrawn"
	StatusDeleted         Status = "deleted"
)

// transitions is the exhaustive allowed-next table. Terminal states
// map to an empty set. Deleted is reachable only through the
// admin-approved purge flow, never through Transition.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusSubmitted},
	StatusSubmitted:       {StatusInReview, StatusWithdrawn},
	StatusInReview:        {StatusReadyToSchedule, StatusSubmitted, StatusWithdrawn},
	StatusReadyToSchedule: {StatusScheduled, StatusInReview, StatusWithdrawn},
	StatusScheduled:       {StatusClosed, StatusWithdrawn},
	StatusClosed:          {StatusWithdrawn},
	StatusWithdrawn:       {},
	StatusDeleted:         {},
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether target is in s's allowed-next set.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Active reports whether the status counts against the
// one-active-referral-per-child invariant.
func (s Status) Active() bool {
	return s == StatusDraft || s == StatusSubmitted || s == StatusInReview
}

// ActiveStatuses is the set checked by the duplicate-active query.
var ActiveStatuses = []Status{StatusDraft, StatusSubmitted, StatusInReview}

// Packet generation states.
const (
	PacketNotGenerated = "not_generated"
	PacketGenerating   = "generating"
	PacketComplete     = "complete"
	PacketFailed       = "failed"
)

// Onboarding steps a family works through. RecordStep tracks the most
// recently finished one so the client can resume where the family
// left off.
var validSteps = map[string]bool{
	"parent_profile": true,
	"child_profile":  true,
	"intake":         true,
	"insurance":      true,
	"scheduling":     true,
	"consents":       true,
	"screener":       true,
}

// ValidStep reports whether step is a recognized onboarding step.
func ValidStep(step string) bool {
	return validSteps[step]
}

// ScheduledSession carries the booking details captured when a
// referral moves to scheduled.
type ScheduledSession struct {
	Date          time.Time `json:"date"`
	Time          string    `json:"time"`
	ClinicianName string    `json:"clinician_name"`
	SessionType   string    `json:"session_type"`
}

// Referral is the central aggregate.
type Referral struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	ChildID             uuid.UUID  `db:"child_id" json:"child_id"`
	Status              Status     `db:"status" json:"status"`
	RiskFlag            bool       `db:"risk_flag" json:"risk_flag"`
	LastCompletedStep   *string    `db:"last_completed_step" json:"last_completed_step,omitempty"`
	LastUpdatedStepAt   *time.Time `db:"last_updated_step_at" json:"last_updated_step_at,omitempty"`
	PacketStatus        string     `db:"packet_status" json:"packet_status"`
	DeletionRequestedAt *time.Time `db:"deletion_requested_at" json:"deletion_requested_at,omitempty"`
	SubmittedAt         *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	WithdrawnAt         *time.Time `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	SessionDate         *time.Time `db:"session_date" json:"session_date,omitempty"`
	SessionTime         *string    `db:"session_time" json:"session_time,omitempty"`
	ClinicianName       *string    `db:"clinician_name" json:"clinician_name,omitempty"`
	SessionType         *string    `db:"session_type" json:"session_type,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
