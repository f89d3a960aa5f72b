package model

// Raw source records, one shape per upstream feed. They are consumed by the
// normalizer and never persisted as-is. The JSON tags follow the upstream
// field names so the structs double as decode targets and details payloads.

// RawMacroEvent is one row of the macro-economic calendar, from either the
// live API or the local CSV extract. Date is the source date string; the
// adapter validates it against the source's own format, the normalizer parses
// it. Importance is kept as a string because the live feed sends it either as
// a number or as a label.
type RawMacroEvent struct {
	Currency   string `json:"currency"`
	Date       string `json:"date"`
	Name       string `json:"event"`
	Impact     string `json:"impact,omitempty"`
	Importance string `json:"importance,omitempty"`
}

// RawDividend is one historical dividend record for a symbol.
type RawDividend struct {
	Symbol   string  `json:"symbol"`
	Date     string  `json:"date"`
	Dividend float64 `json:"dividend"`
}

// RawEarnings is one earnings-calendar record for a symbol.
type RawEarnings struct {
	Symbol           string  `json:"symbol"`
	Date             string  `json:"date"`
	EPS              float64 `json:"eps"`
	EPSEstimated     float64 `json:"epsEstimated"`
	Revenue          float64 `json:"revenue"`
	RevenueEstimated float64 `json:"revenueEstimated"`
}

// RawSplit is one stock-split-calendar record for a symbol.
type RawSplit struct {
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

// RawMerger is one record of the global merger/acquisition feed. Unlike the
// other corporate feeds it is not per-symbol; callers filter by Symbol.
type RawMerger struct {
	Symbol          string `json:"symbol"`
	Date            string `json:"transactionDate"`
	Title           string `json:"title"`
	CompanyName     string `json:"companyName,omitempty"`
	TargetedCompany string `json:"targetedCompanyName,omitempty"`
	TargetedSymbol  string `json:"targetedSymbol,omitempty"`
}

// ActionSet bundles the four corporate-action feeds for one instrument.
type ActionSet struct {
	Dividends []RawDividend
	Earnings  []RawEarnings
	Splits    []RawSplit
	Mergers   []RawMerger
}
