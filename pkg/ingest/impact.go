package ingest

import (
	"strconv"
	"strings"

	"github.com/finsight/marketcal/pkg/model"
)

// Classify maps a numeric signal to a coarse impact bucket.
func Classify(value float64) model.Impact {
	switch {
	case value > 1:
		return model.ImpactHigh
	case value > 0.5:
		return model.ImpactMedium
	default:
		return model.ImpactLow
	}
}

// ClassifyLabel maps a source-provided signal label. Anything other than the
// literal "High" comes back Medium, including "Low". Both upstream feeds
// rely on that mapping, so it is kept as-is.
func ClassifyLabel(label string) model.Impact {
	if label == "High" {
		return model.ImpactHigh
	}
	return model.ImpactMedium
}

// classifySignal handles the mixed numeric-or-label importance field of the
// macro feed.
func classifySignal(s string) model.Impact {
	if f, ok := parseFloat(s); ok {
		return Classify(f)
	}
	return ClassifyLabel(s)
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
