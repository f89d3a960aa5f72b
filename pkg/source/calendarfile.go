package source

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
)

// csvDateLayout is the fixed MM-DD-YYYY format of the calendar extract.
const csvDateLayout = "01-02-2006"

// CalendarFile reads a locally cached economic-calendar extract with the
// columns Country, Date, Title, Impact. It is the fallback macro source when
// the live API is unavailable or not configured.
type CalendarFile struct {
	path string
}

func NewCalendarFile(path string) *CalendarFile {
	return &CalendarFile{path: path}
}

// FetchMacroEvents streams the CSV file. Fully blank rows are skipped
// silently; rows whose date does not parse as MM-DD-YYYY are counted as
// malformed and skipped. Only an unreadable file yields an empty result.
func (f *CalendarFile) FetchMacroEvents(_ context.Context) ([]model.RawMacroEvent, int) {
	file, err := os.Open(f.path)
	if err != nil {
		log.Error("source: failed to open calendar file: ", err)
		return nil, 0
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	events := make([]model.RawMacroEvent, 0)
	malformed := 0
	first := true

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue
		}

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "country") {
				continue
			}
		}

		if blankRow(rec) {
			continue
		}
		if len(rec) < 3 {
			malformed++
			continue
		}

		country := strings.TrimSpace(rec[0])
		date := strings.TrimSpace(rec[1])
		title := strings.TrimSpace(rec[2])
		impact := ""
		if len(rec) > 3 {
			impact = strings.TrimSpace(rec[3])
		}

		t, err := time.Parse(csvDateLayout, date)
		if err != nil {
			malformed++
			continue
		}

		events = append(events, model.RawMacroEvent{
			Currency: strings.ToUpper(country),
			Date:     t.Format("2006-01-02"),
			Name:     title,
			Impact:   impact,
		})
	}

	if malformed > 0 {
		log.WithFields(log.Fields{
			"source":    "calendar_file",
			"path":      f.path,
			"malformed": malformed,
		}).Warn("source: skipped malformed calendar rows")
	}

	return events, malformed
}

func blankRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
