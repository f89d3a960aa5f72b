package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCalendar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCalendarFileSkipsMalformedRows(t *testing.T) {
	csv := "Country,Date,Title,Impact\n" +
		"USD,03-14-2025,CPI Release,High\n" +
		"USD,03-15-2025,Retail Sales,Medium\n" +
		"EUR,03-16-2025,ECB Minutes,Low\n" +
		"USD,2025/03/17,Bad Date Row,High\n" +
		"GBP,03-18-2025,BoE Speech,Low\n" +
		"USD,03-19-2025,PPI,Medium\n" +
		"JPY,garbage,Another Bad Row,High\n" +
		"USD,03-20-2025,Jobless Claims,Low\n" +
		"EUR,03-21-2025,PMI Flash,Medium\n" +
		"USD,03-22-2025,Consumer Sentiment,Low\n" +
		"CHF,03-23-2025,SNB Statement,High\n"

	f := NewCalendarFile(writeCalendar(t, csv))
	events, malformed := f.FetchMacroEvents(context.Background())

	if malformed != 2 {
		t.Errorf("malformed = %d, want 2", malformed)
	}
	if len(events) != 9 {
		t.Fatalf("events = %d, want 9", len(events))
	}

	if events[0].Currency != "USD" {
		t.Errorf("currency = %s, want USD", events[0].Currency)
	}
	if events[0].Date != "2025-03-14" {
		t.Errorf("date = %s, want 2025-03-14", events[0].Date)
	}
	if events[0].Name != "CPI Release" {
		t.Errorf("name = %s, want CPI Release", events[0].Name)
	}
	if events[0].Impact != "High" {
		t.Errorf("impact = %s, want High", events[0].Impact)
	}
}

func TestCalendarFileSkipsBlankRows(t *testing.T) {
	csv := "Country,Date,Title,Impact\n" +
		"USD,03-14-2025,CPI Release,High\n" +
		",,,\n" +
		"EUR,03-16-2025,ECB Minutes,Low\n"

	f := NewCalendarFile(writeCalendar(t, csv))
	events, malformed := f.FetchMacroEvents(context.Background())

	if malformed != 0 {
		t.Errorf("malformed = %d, want 0 (blank rows are not malformed)", malformed)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
}

func TestCalendarFileMissing(t *testing.T) {
	f := NewCalendarFile(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	events, malformed := f.FetchMacroEvents(context.Background())

	if len(events) != 0 || malformed != 0 {
		t.Errorf("expected empty result for missing file, got %d events, %d malformed",
			len(events), malformed)
	}
}
