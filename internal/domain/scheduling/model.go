package scheduling

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Window is one day/time availability slot. Start and End are wall
// clock strings in HH:MM.
type Window struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

var hhmmRe = regexp.MustCompile(`^([0-9]{1,2}):([0-9]{2})$`)

// parseMinutes converts an HH:MM string to minutes since midnight.
// Returns -1 for anything out of range or not matching the format, so
// a malformed window never compares as valid.
func parseMinutes(s string) int {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return -1
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil || hours > 23 {
		return -1
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil || minutes > 59 {
		return -1
	}
	return hours*60 + minutes
}

// Valid reports whether the window parses and starts strictly before
// it ends.
func (w Window) Valid() bool {
	start := parseMinutes(w.Start)
	end := parseMinutes(w.End)
	return start >= 0 && end >= 0 && start < end
}

// SchedulingPreference maps to the scheduling_preference table, at
// most one per referral.
type SchedulingPreference struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	ReferralID         uuid.UUID `db:"referral_id" json:"referral_id"`
	Timezone           string    `db:"timezone" json:"timezone"`
	LocationPreference string    `db:"location_preference" json:"location_preference"`
	Windows            []Window  `db:"windows" json:"windows"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether the preference satisfies the submission
// readiness requirement: timezone, location preference, and at least
// one valid window.
func (p *SchedulingPreference) Complete() bool {
	if p == nil || p.Timezone == "" || p.LocationPreference == "" {
		return false
	}
	for _, w := range p.Windows {
		if w.Valid() {
			return true
		}
	}
	return false
}

// Weekday ordering for suggestion ranking.
var dayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// SuggestedWindows returns up to three valid windows ranked earliest
// day then earliest start. Invalid windows never surface as
// suggestions.
func (p *SchedulingPreference) SuggestedWindows() []Window {
	var valid []Window
	for _, w := range p.Windows {
		if w.Valid() {
			valid = append(valid, w)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		di, dj := dayOrder[valid[i].Day], dayOrder[valid[j].Day]
		if di != dj {
			return di < dj
		}
		return parseMinutes(valid[i].Start) < parseMinutes(valid[j].Start)
	})
	if len(valid) > 3 {
		valid = valid[:3]
	}
	return valid
}
