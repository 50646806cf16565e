package intake

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IntakeResponse holds the family's structured intake answers. At most
// one per referral; answers are free-form key/value stored as JSONB.
type IntakeResponse struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	ReferralID uuid.UUID              `db:"referral_id" json:"referral_id"`
	Answers    map[string]interface{} `db:"answers" json:"answers"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `db:"updated_at" json:"updated_at"`
}

// HasPrimaryConcern reports whether the answers name a clinical
// concern under either the plural or singular key. Values may be a
// string or a list; whitespace-only entries do not count.
func (r *IntakeResponse) HasPrimaryConcern() bool {
	if r == nil || r.Answers == nil {
		return false
	}
	for _, key := range []string{"primary_concerns", "primary_concern"} {
		switch v := r.Answers[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return true
				}
			}
		case []string:
			for _, s := range v {
				if strings.TrimSpace(s) != "" {
					return true
				}
			}
		}
	}
	return false
}

// Consent types every referral must have accepted before submission.
const (
	ConsentTermsOfUse            = "terms_of_use"
	ConsentPrivacyPolicy         = "privacy_policy"
	ConsentNonEmergencyAck       = "non_emergency_acknowledgment"
	ConsentTelehealth            = "telehealth_consent"
	ConsentGuardianAuthorization = "guardian_authorization"
)

// RequiredConsentTypes in canonical order. Packet output and readiness
// reporting both follow this order.
var RequiredConsentTypes = []string{
	ConsentTermsOfUse,
	ConsentPrivacyPolicy,
	ConsentNonEmergencyAck,
	ConsentTelehealth,
	ConsentGuardianAuthorization,
}

var validConsentTypes = map[string]bool{
	ConsentTermsOfUse:            true,
	ConsentPrivacyPolicy:         true,
	ConsentNonEmergencyAck:       true,
	ConsentTelehealth:            true,
	ConsentGuardianAuthorization: true,
}

// ValidConsentType reports whether t is one of the recognized types.
func ValidConsentType(t string) bool {
	return validConsentTypes[t]
}

// ConsentRecord is one accepted consent. Uniqueness per
// (referral, consent_type) is enforced by the database, so a repeated
// accept is idempotent rather than an error.
type ConsentRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ReferralID  uuid.UUID `db:"referral_id" json:"referral_id"`
	ConsentType string    `db:"consent_type" json:"consent_type"`
	AcceptedAt  time.Time `db:"accepted_at" json:"accepted_at"`
	IPAddress   string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent   string    `db:"user_agent" json:"user_agent,omitempty"`
}

// MissingConsents returns the required types with no recorded
// acceptance, in canonical order.
func MissingConsents(records []*ConsentRecord) []string {
	accepted := make(map[string]bool, len(records))
	for _, rec := range records {
		accepted[rec.ConsentType] = true
	}
	var missing []string
	for _, t := range RequiredConsentTypes {
		if !accepted[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
