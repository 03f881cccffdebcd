package event

import "testing"

func clockPtr(h, m int) *Clock {
	return &Clock{Hour: h, Minute: m}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		input     string
		wantStart *Clock
		wantEnd   *Clock
		wantOK    bool
	}{
		{"Uhrzeit: 19:00 bis 22:00 Uhr", clockPtr(19, 0), clockPtr(22, 0), true},
		{"12:00 Uhr", clockPtr(12, 0), nil, true},
		{"Uhrzeit: 9 Uhr", clockPtr(9, 0), nil, true},
		{"14 bis 16 Uhr", clockPtr(14, 0), clockPtr(16, 0), true},
		{"Uhrzeit:19:30bis21:15Uhr", clockPtr(19, 30), clockPtr(21, 15), true},
		{"bis 22:00 Uhr", nil, clockPtr(22, 0), true},
		{"ganztags", nil, nil, false},
		{"", nil, nil, false},
		{"Uhrzeit: 25:00 Uhr", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTimeRange(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimeRange(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !sameClock(got.Start, tt.wantStart) {
				t.Errorf("Start = %v, want %v", got.Start, tt.wantStart)
			}
			if !sameClock(got.End, tt.wantEnd) {
				t.Errorf("End = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func sameClock(a, b *Clock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestClockString(t *testing.T) {
	if got := (Clock{Hour: 9, Minute: 5}).String(); got != "09:05" {
		t.Errorf("String() = %q, want 09:05", got)
	}
}
