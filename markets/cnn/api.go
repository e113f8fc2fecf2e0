// Package cnn adapts CNN Business data endpoints, currently the Fear &
// Greed index. Requests carry a browser-mimicry header set so CDN filters
// treat them like ordinary site traffic.
package cnn

import (
	"context"
	"encoding/json"
	"net/http"

	ng "github.com/ckir/go-lib-ng"
	"github.com/ckir/go-lib-ng/markets"
)

func defaultHeaders() http.Header {
	h := http.Header{}
	for k, v := range map[string]string{
		"accept":             "application/json, text/plain, */*",
		"accept-language":    "en-US,en;q=0.9,el-GR;q=0.8,el;q=0.7,it;q=0.6",
		"cache-control":      "no-cache",
		"dnt":                "1",
		"origin":             "https://edition.cnn.com",
		"pragma":             "no-cache",
		"referer":            "https://edition.cnn.com/",
		"sec-ch-ua":          `"Google Chrome";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-site",
		"user-agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	} {
		h.Set(k, v)
	}
	return h
}

const snippetLimit = 250

// API wraps the resilient HTTP client with CNN-specific headers. One
// instance is safe for concurrent use as long as headers are not mutated
// mid-flight.
type API struct {
	client  *ng.Client
	logger  ng.Logger
	headers http.Header
}

// NewAPI creates an adapter with the default browser-mimicry header set.
func NewAPI(logger ng.Logger, options ...ng.Option) *API {
	return &API{
		client:  ng.New(logger, options...),
		logger:  logger,
		headers: defaultHeaders(),
	}
}

// SetHeader adds or replaces one request header.
func (a *API) SetHeader(key, value string) {
	a.headers.Set(key, value)
}

// Headers returns a copy of the current header set.
func (a *API) Headers() http.Header {
	return a.headers.Clone()
}

// Call executes a GET against the endpoint and returns the raw JSON
// document. Per-call options build a transient client so overrides never
// leak into the persistent one.
func (a *API) Call(ctx context.Context, endpoint string, options ...ng.Option) (json.RawMessage, error) {
	client := a.client
	if len(options) > 0 {
		client = ng.New(a.logger, options...)
	}

	resp, err := ng.Get[json.RawMessage](ctx, client, endpoint, a.Headers())
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		snippet := resp.ErrorBody
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		if a.logger != nil {
			a.logger.Warn("CNN API request failed",
				"url", endpoint,
				"status", resp.Status,
				"snippet", snippet)
		}
		return nil, &markets.NonJSONResponseError{
			URL:         endpoint,
			Status:      resp.Status,
			BodySnippet: snippet,
		}
	}
	if resp.Data == nil {
		return json.RawMessage("null"), nil
	}
	return *resp.Data, nil
}
