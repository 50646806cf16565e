package family

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParentProfile maps to the parent_profile table. One per guardian
// account; children reference their guardian.
type ParentProfile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Relationship *string   `db:"relationship" json:"relationship,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether the profile satisfies the submission
// readiness requirement: name, email, and phone all present.
func (p *ParentProfile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Email) != "" &&
		strings.TrimSpace(p.Phone) != ""
}

// Validate returns every format violation in the provided fields.
// Profiles are saved incrementally, so empty fields are not violations
// here; completeness is the readiness validator's concern.
func (p *ParentProfile) Validate() []string {
	var violations []string
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		violations = append(violations, "email must be a valid address")
	}
	if p.Phone != "" && len(strings.TrimSpace(p.Phone)) < 7 {
		violations = append(violations, "phone must have at least 7 digits")
	}
	return violations
}

// Age bands accepted in place of an exact date of birth.
var validAgeBands = map[string]bool{
	"under_5": true, "5_9": true, "10_12": true, "13_15": true, "16_18": true,
}

// ChildProfile maps to the child_profile table.
type ChildProfile struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ParentID    uuid.UUID  `db:"parent_id" json:"parent_id"`
	Name        string     `db:"name" json:"name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	AgeBand     *string    `db:"age_band" json:"age_band,omitempty"`
	Grade       string     `db:"grade" json:"grade"`
	School      string     `db:"school" json:"school"`
	District    string     `db:"district" json:"district"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Complete reports whether the profile satisfies the submission
// readiness requirement: name, grade, school, district, and either a
// date of birth or an age band.
func (c *ChildProfile) Complete() bool {
	hasAge := c.DateOfBirth != nil || (c.AgeBand != nil && strings.TrimSpace(*c.AgeBand) != "")
	return strings.TrimSpace(c.Name) != "" &&
		hasAge &&
		strings.TrimSpace(c.Grade) != "" &&
		strings.TrimSpace(c.School) != "" &&
		strings.TrimSpace(c.District) != ""
}

// Validate returns every format violation in the provided fields.
func (c *ChildProfile) Validate() []string {
	var violations []string
	if c.DateOfBirth != nil && c.DateOfBirth.After(time.Now()) {
		violations = append(violations, "date_of_birth must be in the past")
	}
	if c.AgeBand != nil && *c.AgeBand != "" && !validAgeBands[*c.AgeBand] {
		violations = append(violations, "age_band must be one of under_5, 5_9, 10_12, 13_15, 16_18")
	}
	return violations
}
