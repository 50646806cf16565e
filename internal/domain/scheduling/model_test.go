package scheduling

import "testing"

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"08:00", 480},
		{"09:30", 570},
		{"23:59", 1439},
		{"24:00", -1},
		{"12:60", -1},
		{"9am", -1},
		{"", -1},
		{"12:3", -1},
	}
	for _, tc := range cases {
		if got := parseMinutes(tc.in); got != tc.want {
			t.Errorf("parseMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestWindowValid(t *testing.T) {
	cases := []struct {
		name   string
		window Window
		want   bool
	}{
		{"normal", Window{Day: "monday", Start: "08:00", End: "09:00"}, true},
		{"reversed", Window{Day: "monday", Start: "09:00", End: "08:00"}, false},
		{"equal", Window{Day: "monday", Start: "09:00", End: "09:00"}, false},
		{"out of range hours", Window{Day: "monday", Start: "24:00", End: "25:00"}, false},
		{"malformed start", Window{Day: "monday", Start: "morning", End: "12:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPreferenceComplete(t *testing.T) {
	p := &SchedulingPreference{
		Timezone:           "America/New_York",
		LocationPreference: "telehealth",
		Windows:            []Window{{Day: "tuesday", Start: "15:00", End: "17:00"}},
	}
	if !p.Complete() {
		t.Error("expected complete preference")
	}

	p.Windows = []Window{{Day: "tuesday", Start: "17:00", End: "15:00"}}
	if p.Complete() {
		t.Error("preference with only an invalid window must not be complete")
	}

	p.Windows = nil
	if p.Complete() {
		t.Error("preference with no windows must not be complete")
	}

	p.Windows = []Window{{Day: "tuesday", Start: "15:00", End: "17:00"}}
	p.Timezone = ""
	if p.Complete() {
		t.Error("preference without timezone must not be complete")
	}
}

func TestSuggestedWindows_RanksAndCaps(t *testing.T) {
	p := &SchedulingPreference{
		Windows: []Window{
			{Day: "friday", Start: "10:00", End: "11:00"},
			{Day: "monday", Start: "15:00", End: "16:00"},
			{Day: "monday", Start: "08:00", End: "09:00"},
			{Day: "wednesday", Start: "12:00", End: "13:00"},
			{Day: "tuesday", Start: "bad", End: "10:00"},
		},
	}
	got := p.SuggestedWindows()
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	if got[0].Day != "monday" || got[0].Start != "08:00" {
		t.Errorf("expected monday 08:00 first, got %+v", got[0])
	}
	if got[1].Day != "monday" || got[1].Start != "15:00" {
		t.Errorf("expected monday 15:00 second, got %+v", got[1])
	}
	if got[2].Day != "wednesday" {
		t.Errorf("expected wednesday third, got %+v", got[2])
	}
}
