package event

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	date := Date(2025, time.June, 17)

	tests := []struct {
		name      string
		input     Input
		wantStart Moment
		wantEnd   Moment
	}{
		{
			name:      "no time block",
			input:     Input{Title: "Flohmarkt", Date: date},
			wantStart: date,
			wantEnd:   date,
		},
		{
			name:      "start only",
			input:     Input{Title: "Mittagstisch", Date: date, Times: TimeRange{Start: clockPtr(12, 0)}},
			wantStart: DateTime(2025, time.June, 17, 12, 0),
			wantEnd:   DateTime(2025, time.June, 17, 12, 0),
		},
		{
			name:      "start and end",
			input:     Input{Title: "Konzert", Date: date, Times: TimeRange{Start: clockPtr(19, 0), End: clockPtr(22, 0)}},
			wantStart: DateTime(2025, time.June, 17, 19, 0),
			wantEnd:   DateTime(2025, time.June, 17, 22, 0),
		},
		{
			name:      "end only",
			input:     Input{Title: "Sprechstunde", Date: date, Times: TimeRange{End: clockPtr(16, 0)}},
			wantStart: date,
			wantEnd:   DateTime(2025, time.June, 17, 16, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if !evt.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", evt.Start, tt.wantStart)
			}
			if !evt.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", evt.End, tt.wantEnd)
			}
		})
	}
}

func TestNormalize_NoTimeIsMidnight(t *testing.T) {
	evt, err := Normalize(Input{Title: "Flohmarkt", Date: Date(2025, time.June, 17)})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if evt.Start != evt.End {
		t.Errorf("Start %v and End %v should be equal", evt.Start, evt.End)
	}
	midnight := time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC)
	if !evt.Start.Time(time.UTC).Equal(midnight) {
		t.Errorf("Start = %v, want midnight", evt.Start.Time(time.UTC))
	}
	if evt.Start.HasTime() {
		t.Error("whole-day event should not carry a time of day")
	}
}

func TestNormalize_EssentialDataMissing(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"missing title", Input{Date: Date(2025, time.June, 17)}},
		{"blank title", Input{Title: "   ", Date: Date(2025, time.June, 17)}},
		{"missing date", Input{Title: "Flohmarkt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			if !errors.Is(err, ErrEssentialDataMissing) {
				t.Errorf("Normalize() error = %v, want ErrEssentialDataMissing", err)
			}
		})
	}
}

func TestNormalize_TextFields(t *testing.T) {
	evt, err := Normalize(Input{
		Title:       "  Sommer\n  Konzert ",
		Date:        Date(2025, time.June, 17),
		Location:    "Veranstaltungsort:  Stadtpark  Buchloe",
		Description: "Beschreibung:   Im Jahr 2015   gründeten...",
		URL:         " https://www.buchloe.de/e/1 ",
	})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	if evt.Title != "Sommer Konzert" {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Location != "Stadtpark Buchloe" {
		t.Errorf("Location = %q", evt.Location)
	}
	if evt.Description != "Im Jahr 2015 gründeten..." {
		t.Errorf("Description = %q", evt.Description)
	}
	if evt.URL != "https://www.buchloe.de/e/1" {
		t.Errorf("URL = %q", evt.URL)
	}
}

func TestNormalize_OptionalFieldsDefaultEmpty(t *testing.T) {
	evt, err := Normalize(Input{Title: "Flohmarkt", Date: Date(2025, time.June, 17)})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if evt.Location != "" || evt.Description != "" || evt.URL != "" {
		t.Errorf("optional fields should be empty, got %+v", evt)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "label and inner whitespace",
			input: "Beschreibung:   Im Jahr 2015   gründeten...",
			want:  "Im Jahr 2015 gründeten...",
		},
		{
			name:  "label without space",
			input: "Beschreibung:Eintritt frei",
			want:  "Eintritt frei",
		},
		{
			name:  "label only stripped when leading",
			input: "Mehr dazu in der Beschreibung: unten",
			want:  "Mehr dazu in der Beschreibung: unten",
		},
		{
			name:  "blank line runs",
			input: "Erster Absatz\n\n\n\nZweiter Absatz",
			want:  "Erster Absatz\n\nZweiter Absatz",
		},
		{
			name:  "blank lines with spaces",
			input: "Erster Absatz\n   \n \nZweiter Absatz",
			want:  "Erster Absatz\n\nZweiter Absatz",
		},
		{
			name:  "space before punctuation",
			input: "Kaffee , Kuchen ; und mehr !",
			want:  "Kaffee, Kuchen; und mehr!",
		},
		{
			name:  "spaces after punctuation",
			input: "Hinweis:   Anmeldung erbeten.   Danke",
			want:  "Hinweis: Anmeldung erbeten. Danke",
		},
		{
			name:  "no space inserted",
			input: "Eintritt 2,50 Euro",
			want:  "Eintritt 2,50 Euro",
		},
		{
			name:  "windows line endings",
			input: "Zeile eins\r\n\r\n\r\nZeile zwei",
			want:  "Zeile eins\n\nZeile zwei",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanDescription(tt.input); got != tt.want {
				t.Errorf("CleanDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanLocation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Veranstaltungsort: Stadtpark", "Stadtpark"},
		{"Veranstaltungsort:Rathaus, Marktplatz 1", "Rathaus, Marktplatz 1"},
		{"  Kolpinghaus  ", "Kolpinghaus"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanLocation(tt.input); got != tt.want {
				t.Errorf("CleanLocation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
