package event

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMomentString(t *testing.T) {
	tests := []struct {
		name   string
		moment Moment
		want   string
	}{
		{"whole day", Date(2025, time.June, 17), "2025-06-17"},
		{"with time", DateTime(2025, time.June, 17, 19, 0), "2025-06-17T19:00:00"},
		{"zero", Moment{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.moment.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMoment(t *testing.T) {
	tests := []struct {
		input    string
		want     Moment
		wantErr  bool
		wantTime bool
	}{
		{input: "2025-06-17", want: Date(2025, time.June, 17)},
		{input: "2025-06-17T19:00:00", want: DateTime(2025, time.June, 17, 19, 0), wantTime: true},
		{input: "2025-06-17T19:30", want: DateTime(2025, time.June, 17, 19, 30), wantTime: true},
		{input: "2025-06-17T19:30:00+02:00", want: DateTime(2025, time.June, 17, 19, 30), wantTime: true},
		{input: "17.06.2025", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoment(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoment(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseMoment(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.HasTime() != tt.wantTime {
				t.Errorf("HasTime() = %v, want %v", got.HasTime(), tt.wantTime)
			}
		})
	}
}

func TestEventJSONRoundTripPreservesKey(t *testing.T) {
	events := []Event{
		{
			Title:       "Sommerkonzert",
			Start:       DateTime(2025, time.June, 17, 19, 0),
			End:         DateTime(2025, time.June, 17, 22, 0),
			Location:    "Stadtpark",
			Description: "Open Air",
			URL:         "https://www.buchloe.de/veranstaltung/1",
		},
		{
			Title: "Flohmarkt",
			Start: Date(2025, time.September, 14),
			End:   Date(2025, time.September, 14),
		},
	}

	for _, evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}

		var decoded Event
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}

		if decoded.Key() != evt.Key() {
			t.Errorf("key changed after round trip: %+v vs %+v", decoded.Key(), evt.Key())
		}
		if !decoded.Equal(evt) {
			t.Errorf("event changed after round trip: %+v vs %+v", decoded, evt)
		}
	}
}

func TestEventJSONFormat(t *testing.T) {
	evt := Event{
		Title: "Flohmarkt",
		Start: Date(2025, time.September, 14),
		End:   DateTime(2025, time.September, 14, 18, 30),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"title":"Flohmarkt","start":"2025-09-14","end":"2025-09-14T18:30:00","location":"","description":"","url":""}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestKeyIgnoresDescriptionAndURL(t *testing.T) {
	a := Event{Title: "Lesung", Start: Date(2025, time.May, 2), End: Date(2025, time.May, 2), Location: "Bücherei", Description: "alt"}
	b := a
	b.Description = "neu"
	b.URL = "https://www.buchloe.de/x"

	if a.Key() != b.Key() {
		t.Error("keys should match when only description and url differ")
	}
	if a.Equal(b) {
		t.Error("Equal() should see the description change")
	}
}

func TestKeyID(t *testing.T) {
	k := Key{Title: "Lesung", Start: "2025-05-02", End: "2025-05-02", Location: "Bücherei"}

	id1 := k.ID()
	id2 := k.ID()
	if id1 != id2 {
		t.Errorf("ID should be deterministic, got %s vs %s", id1, id2)
	}
	if len(id1) != 40 { // SHA1 produces 40 hex characters
		t.Errorf("expected ID length of 40, got %d", len(id1))
	}

	other := k
	other.Location = "Rathaus"
	if other.ID() == id1 {
		t.Error("different keys should produce different IDs")
	}
}
