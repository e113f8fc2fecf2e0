package nasdaq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ng "github.com/ckir/go-lib-ng"
	"github.com/ckir/go-lib-ng/markets"
)

const marketInfoEndpoint = "https://api.nasdaq.com/api/market-info/"

// nextTradeDateLayout matches the Nasdaq wire format, e.g. "Feb 24, 2026".
const nextTradeDateLayout = "Jan 2, 2006"

// StatusData is the typed market-info document.
type StatusData struct {
	Country                     string `json:"country"`
	MarketIndicator             string `json:"marketIndicator"`
	UIMarketIndicator           string `json:"uiMarketIndicator"`
	MarketCountDown             string `json:"marketCountDown"`
	PreMarketOpeningTime        string `json:"preMarketOpeningTime"`
	PreMarketClosingTime        string `json:"preMarketClosingTime"`
	MarketOpeningTime           string `json:"marketOpeningTime"`
	MarketClosingTime           string `json:"marketClosingTime"`
	AfterHoursMarketOpeningTime string `json:"afterHoursMarketOpeningTime"`
	AfterHoursMarketClosingTime string `json:"afterHoursMarketClosingTime"`
	PreviousTradeDate           string `json:"previousTradeDate"`
	NextTradeDate               string `json:"nextTradeDate"`
	IsBusinessDay               bool   `json:"isBusinessDay"`
	MrktStatus                  string `json:"mrktStatus"`
}

// MarketStatus fetches and analyzes the Nasdaq market-info feed, giving
// orchestrators the timing facts they need to schedule polling.
type MarketStatus struct {
	api     *API
	logger  ng.Logger
	eastern *time.Location
}

// NewMarketStatus creates the service. It fails only when the US Eastern
// timezone database entry cannot be loaded.
func NewMarketStatus(logger ng.Logger, options ...ng.Option) (*MarketStatus, error) {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("loading US Eastern timezone: %w", err)
	}
	return &MarketStatus{
		api:     NewAPI(logger, options...),
		logger:  logger,
		eastern: eastern,
	}, nil
}

// FetchRaw returns the raw market-info envelope.
func (m *MarketStatus) FetchRaw(ctx context.Context, options ...ng.Option) (json.RawMessage, error) {
	return m.api.Call(ctx, marketInfoEndpoint, options...)
}

// FetchStatus returns the typed market-info data block.
func (m *MarketStatus) FetchStatus(ctx context.Context, options ...ng.Option) (*StatusData, error) {
	raw, err := m.FetchRaw(ctx, options...)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data *StatusData `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if m.logger != nil {
			m.logger.Error("deserialization error in market status", "error", err.Error())
		}
		return nil, &markets.MalformedResponseError{
			Endpoint: marketInfoEndpoint,
			Details:  "JSON error: " + err.Error(),
		}
	}
	if envelope.Data == nil {
		return nil, &markets.MalformedResponseError{
			Endpoint: marketInfoEndpoint,
			Details:  "missing 'data' field",
		}
	}
	return envelope.Data, nil
}

// IsRegularSession reports whether the market is currently in the regular
// trading session: a business day between 09:30 and 16:00 US Eastern.
func (m *MarketStatus) IsRegularSession(status *StatusData) bool {
	return m.isRegularSessionAt(status, time.Now())
}

func (m *MarketStatus) isRegularSessionAt(status *StatusData, now time.Time) bool {
	if !status.IsBusinessDay {
		return false
	}
	et := now.In(m.eastern)
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// NextOpeningDelay returns the time until 09:30 US Eastern on the next
// trade date. A zero duration means the recorded date has already passed
// and the caller should refresh the status.
func (m *MarketStatus) NextOpeningDelay(status *StatusData) (time.Duration, error) {
	return m.nextOpeningDelayAt(status, time.Now())
}

func (m *MarketStatus) nextOpeningDelayAt(status *StatusData, now time.Time) (time.Duration, error) {
	d, err := time.ParseInLocation(nextTradeDateLayout, status.NextTradeDate, m.eastern)
	if err != nil {
		return 0, &markets.MalformedResponseError{
			Endpoint: marketInfoEndpoint,
			Details:  fmt.Sprintf("date parsing failed for %q: %v", status.NextTradeDate, err),
		}
	}

	target := time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, m.eastern)
	delay := target.Sub(now)
	if delay < 0 {
		return 0, nil
	}
	return delay, nil
}

// WaitUntilOpen blocks until the next market opening or until the context
// is canceled. It returns immediately when the market is already open or
// the delay cannot be calculated.
func (m *MarketStatus) WaitUntilOpen(ctx context.Context, status *StatusData) error {
	delay, err := m.NextOpeningDelay(status)
	if err != nil || delay <= 0 {
		return nil
	}

	if m.logger != nil {
		m.logger.Info("waiting for market opening", "wait_time", FormatDuration(delay))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if m.logger != nil {
			m.logger.Info("market opening time reached")
		}
		return nil
	}
}

// FormatDuration renders a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = -secs
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
