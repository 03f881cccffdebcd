package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/calendar"
	"github.com/pfrederiksen/buchloe-events/internal/event"
)

func main() {
	// Sample events covering a timed event and an all-day event
	events := []event.Event{
		{
			Title:       "Sommerkonzert im Stadtpark",
			Start:       event.DateTime(2026, time.June, 16, 19, 0),
			End:         event.DateTime(2026, time.June, 16, 22, 0),
			Location:    "Stadtpark Buchloe",
			Description: "Open-Air-Konzert der Stadtkapelle.",
			URL:         "https://www.buchloe.de/freizeit-tourismus/veranstaltungen",
		},
		{
			Title:    "Flohmarkt",
			Start:    event.Date(2026, time.September, 13),
			End:      event.Date(2026, time.September, 13),
			Location: "Rathausplatz",
		},
	}

	icsContent, err := calendar.GenerateICS(events, calendar.DefaultOptions(), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating calendar: %v\n", err)
		os.Exit(1)
	}

	filename := "test-buchloe-events.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
