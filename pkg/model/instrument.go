package model

// Instrument is a tradable symbol together with its quote currency. The
// currency links a symbol to the macro calendar, which is keyed by currency.
type Instrument struct {
	Symbol   string
	Currency string
}
