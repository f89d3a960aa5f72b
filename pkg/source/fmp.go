package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/model"
)

// liveMacroDateLayout is the date format the live calendar feed uses.
const liveMacroDateLayout = "2006-01-02 15:04:05"

// FMPClient talks to the Financial Modeling Prep style REST API. It
// implements Directory, MacroCalendar and CorporateActions.
type FMPClient struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	concurrency int
}

// NewFMPClient creates a client for the live market-data API. concurrency
// bounds the per-instrument fan-out of FetchAllActions.
func NewFMPClient(baseURL, apiKey string, timeout time.Duration, concurrency int) *FMPClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &FMPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		client:      &http.Client{Timeout: timeout},
		concurrency: concurrency,
	}
}

func (c *FMPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	u := fmt.Sprintf("%s%s?apikey=%s", c.baseURL, path, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("fmp %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type fmpStock struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// FetchInstruments queries the stock list and keeps only entries that carry
// both a symbol and a currency.
func (c *FMPClient) FetchInstruments(ctx context.Context) []model.Instrument {
	var rows []fmpStock
	if err := c.getJSON(ctx, "/stock/list", &rows); err != nil {
		log.Error("source: failed to fetch instruments: ", err)
		return nil
	}

	instruments := make([]model.Instrument, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" || strings.TrimSpace(r.Currency) == "" {
			continue
		}
		instruments = append(instruments, model.Instrument{
			Symbol:   r.Symbol,
			Currency: strings.ToUpper(strings.TrimSpace(r.Currency)),
		})
	}

	return instruments
}

type fmpEconomicEvent struct {
	Date     string `json:"date"`
	Event    string `json:"event"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
	Impact   string `json:"impact"`

	// Importance arrives either as a number or as a label.
	Importance interface{} `json:"importance"`
}

func importanceString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// FetchMacroEvents queries the live economic calendar. Rows whose date does
// not match the feed's format are counted and skipped, never fatal.
func (c *FMPClient) FetchMacroEvents(ctx context.Context) ([]model.RawMacroEvent, int) {
	var rows []fmpEconomicEvent
	if err := c.getJSON(ctx, "/economic_calendar", &rows); err != nil {
		log.Error("source: failed to fetch economic calendar: ", err)
		return nil, 0
	}

	events := make([]model.RawMacroEvent, 0, len(rows))
	malformed := 0
	for _, r := range rows {
		if _, err := time.Parse(liveMacroDateLayout, r.Date); err != nil {
			malformed++
			continue
		}
		currency := r.Currency
		if currency == "" {
			currency = r.Country
		}
		events = append(events, model.RawMacroEvent{
			Currency:   strings.ToUpper(strings.TrimSpace(currency)),
			Date:       r.Date,
			Name:       r.Event,
			Impact:     r.Impact,
			Importance: importanceString(r.Importance),
		})
	}

	if malformed > 0 {
		log.WithFields(log.Fields{
			"source":    "economic_calendar",
			"malformed": malformed,
		}).Warn("source: skipped rows with unparseable dates")
	}

	return events, malformed
}

// FetchActions issues the four corporate-action sub-fetches for one
// instrument concurrently. The merger feed is global; the result is filtered
// to the instrument's symbol.
func (c *FMPClient) FetchActions(ctx context.Context, inst model.Instrument) model.ActionSet {
	var (
		set     model.ActionSet
		mergers []model.RawMerger
		wg      sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		set.Dividends = c.fetchDividends(ctx, inst.Symbol)
	}()
	go func() {
		defer wg.Done()
		set.Earnings = c.fetchEarnings(ctx, inst.Symbol)
	}()
	go func() {
		defer wg.Done()
		set.Splits = c.fetchSplits(ctx, inst.Symbol)
	}()
	go func() {
		defer wg.Done()
		mergers = c.fetchMergers(ctx)
	}()
	wg.Wait()

	set.Mergers = filterMergers(mergers, inst.Symbol)

	return set
}

// FetchAllActions fans out across instruments under the concurrency cap. The
// global merger feed is fetched once up front and shared across the batch.
func (c *FMPClient) FetchAllActions(ctx context.Context, instruments []model.Instrument) map[string]model.ActionSet {
	mergers := c.fetchMergers(ctx)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, c.concurrency)
		out = make(map[string]model.ActionSet, len(instruments))
	)

	for _, inst := range instruments {
		wg.Add(1)
		go func(inst model.Instrument) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var set model.ActionSet
			var sub sync.WaitGroup
			sub.Add(3)
			go func() {
				defer sub.Done()
				set.Dividends = c.fetchDividends(ctx, inst.Symbol)
			}()
			go func() {
				defer sub.Done()
				set.Earnings = c.fetchEarnings(ctx, inst.Symbol)
			}()
			go func() {
				defer sub.Done()
				set.Splits = c.fetchSplits(ctx, inst.Symbol)
			}()
			sub.Wait()
			set.Mergers = filterMergers(mergers, inst.Symbol)

			mu.Lock()
			out[inst.Symbol] = set
			mu.Unlock()
		}(inst)
	}
	wg.Wait()

	return out
}

func (c *FMPClient) fetchDividends(ctx context.Context, symbol string) []model.RawDividend {
	var payload struct {
		Symbol     string              `json:"symbol"`
		Historical []model.RawDividend `json:"historical"`
	}
	if err := c.getJSON(ctx, "/historical/stock_dividend/"+url.PathEscape(symbol), &payload); err != nil {
		log.Debugf("source: dividends for %s unavailable: %v", symbol, err)
		return nil
	}
	for i := range payload.Historical {
		if payload.Historical[i].Symbol == "" {
			payload.Historical[i].Symbol = symbol
		}
	}
	return payload.Historical
}

func (c *FMPClient) fetchEarnings(ctx context.Context, symbol string) []model.RawEarnings {
	var rows []model.RawEarnings
	if err := c.getJSON(ctx, "/historical/earnings_calendar/"+url.PathEscape(symbol), &rows); err != nil {
		log.Debugf("source: earnings for %s unavailable: %v", symbol, err)
		return nil
	}
	return rows
}

func (c *FMPClient) fetchSplits(ctx context.Context, symbol string) []model.RawSplit {
	var rows []model.RawSplit
	if err := c.getJSON(ctx, "/stock_split_calendar/"+url.PathEscape(symbol), &rows); err != nil {
		log.Debugf("source: splits for %s unavailable: %v", symbol, err)
		return nil
	}
	return rows
}

func (c *FMPClient) fetchMergers(ctx context.Context) []model.RawMerger {
	var rows []model.RawMerger
	if err := c.getJSON(ctx, "/merger_acquisition", &rows); err != nil {
		log.Debug("source: merger feed unavailable: ", err)
		return nil
	}
	return rows
}

func filterMergers(mergers []model.RawMerger, symbol string) []model.RawMerger {
	out := make([]model.RawMerger, 0)
	for _, m := range mergers {
		if m.Symbol == symbol {
			out = append(out, m)
		}
	}
	return out
}
