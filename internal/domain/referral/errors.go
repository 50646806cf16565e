package referral

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InvalidTransitionError rejects a target status outside the current
// status's allowed-next set.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition referral from %s to %s", e.From, e.To)
}

// DuplicateActiveReferralError rejects a write that would give a child
// a second active referral.
type DuplicateActiveReferralError struct {
	ChildID uuid.UUID
}

func (e *DuplicateActiveReferralError) Error() string {
	return fmt.Sprintf("child %s already has an active referral", e.ChildID)
}

// NotReadyError blocks draft-to-submitted while sections are missing.
// Missing always carries the full list so the family sees everything
// left to do in one pass.
type NotReadyError struct {
	Missing []string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("referral is not ready to submit, missing: %s", strings.Join(e.Missing, ", "))
}
