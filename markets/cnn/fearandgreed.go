package cnn

import (
	"context"
	"encoding/json"
	"time"

	ng "github.com/ckir/go-lib-ng"
	"github.com/ckir/go-lib-ng/markets"
)

const graphDataURL = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"

// Reading is one measurement of the index or of a sub-indicator.
type Reading struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Rating string    `json:"rating"`
}

// Status is the full index state: the primary reading, the historical
// window the graph endpoint carries, and the four sub-indicators.
type Status struct {
	Current            Reading   `json:"current"`
	History            []Reading `json:"history"`
	MarketMomentum     Reading   `json:"market_momentum"`
	StockPriceStrength Reading   `json:"stock_price_strength"`
	StockPriceBreadth  Reading   `json:"stock_price_breadth"`
	PutCallOptions     Reading   `json:"put_call_options"`
	PreviousClose      float64   `json:"previous_close"`
	PreviousOneWeek    float64   `json:"previous_1_week"`
}

// FearAndGreed retrieves and maps the CNN Fear & Greed index.
type FearAndGreed struct {
	api    *API
	logger ng.Logger
}

// NewFearAndGreed creates the service on a fresh API adapter.
func NewFearAndGreed(logger ng.Logger, options ...ng.Option) *FearAndGreed {
	return &FearAndGreed{
		api:    NewAPI(logger, options...),
		logger: logger,
	}
}

// FetchLatest returns the current index state. The graphdata endpoint
// bundles the live reading with a 125-day historical window.
func (f *FearAndGreed) FetchLatest(ctx context.Context, options ...ng.Option) (*Status, error) {
	return f.fetch(ctx, graphDataURL, options...)
}

// FetchAtDate returns the index state as of the given date, formatted
// YYYY-MM-DD.
func (f *FearAndGreed) FetchAtDate(ctx context.Context, date string, options ...ng.Option) (*Status, error) {
	return f.fetch(ctx, graphDataURL+"/"+date, options...)
}

func (f *FearAndGreed) fetch(ctx context.Context, url string, options ...ng.Option) (*Status, error) {
	raw, err := f.api.Call(ctx, url, options...)
	if err != nil {
		return nil, err
	}
	return mapGraphData(raw, url)
}

// Wire shapes of the graphdata document. The primary block carries an
// RFC 3339 timestamp; indicator blocks and historical points carry epoch
// milliseconds.
type graphData struct {
	FearAndGreed *struct {
		Timestamp     string  `json:"timestamp"`
		Score         float64 `json:"score"`
		Rating        string  `json:"rating"`
		PreviousClose float64 `json:"previous_close"`
		Previous1Week float64 `json:"previous_1_week"`
	} `json:"fear_and_greed"`
	Historical struct {
		Data []historicalPoint `json:"data"`
	} `json:"fear_and_greed_historical"`
	MarketMomentum     indicatorBlock `json:"market_momentum_sp500"`
	StockPriceStrength indicatorBlock `json:"stock_price_strength"`
	StockPriceBreadth  indicatorBlock `json:"stock_price_breadth"`
	PutCallOptions     indicatorBlock `json:"put_call_options"`
}

type indicatorBlock struct {
	Timestamp float64 `json:"timestamp"`
	Score     float64 `json:"score"`
	Rating    string  `json:"rating"`
}

type historicalPoint struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Rating string   `json:"rating"`
}

func mapGraphData(raw json.RawMessage, url string) (*Status, error) {
	var doc graphData
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &markets.MalformedResponseError{
			Endpoint: url,
			Details:  "graphdata document is not decodable: " + err.Error(),
		}
	}
	if doc.FearAndGreed == nil {
		return nil, &markets.MalformedResponseError{
			Endpoint: url,
			Details:  "missing 'fear_and_greed' root key",
		}
	}

	primary := doc.FearAndGreed
	current := Reading{
		Date:   parseRFC3339OrNow(primary.Timestamp),
		Value:  primary.Score,
		Rating: ratingOrUnknown(primary.Rating),
	}

	history := make([]Reading, 0, len(doc.Historical.Data))
	for _, p := range doc.Historical.Data {
		if p.X == nil || p.Y == nil {
			continue
		}
		history = append(history, Reading{
			Date:   time.UnixMilli(int64(*p.X)).UTC(),
			Value:  *p.Y,
			Rating: p.Rating,
		})
	}

	return &Status{
		Current:            current,
		History:            history,
		MarketMomentum:     mapIndicator(doc.MarketMomentum),
		StockPriceStrength: mapIndicator(doc.StockPriceStrength),
		StockPriceBreadth:  mapIndicator(doc.StockPriceBreadth),
		PutCallOptions:     mapIndicator(doc.PutCallOptions),
		PreviousClose:      primary.PreviousClose,
		PreviousOneWeek:    primary.Previous1Week,
	}, nil
}

func mapIndicator(b indicatorBlock) Reading {
	date := time.Now().UTC()
	if b.Timestamp > 0 {
		date = time.UnixMilli(int64(b.Timestamp)).UTC()
	}
	return Reading{
		Date:   date,
		Value:  b.Score,
		Rating: ratingOrUnknown(b.Rating),
	}
}

func parseRFC3339OrNow(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}

func ratingOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
