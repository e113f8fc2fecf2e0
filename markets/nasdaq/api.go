// Package nasdaq adapts the Nasdaq JSON API. Responses are validated on
// two levels: the HTTP/JSON layer, then the business envelope whose
// status.rCode must be 200.
package nasdaq

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	ng "github.com/ckir/go-lib-ng"
	"github.com/ckir/go-lib-ng/markets"
)

func nasdaqHeaders() http.Header {
	h := http.Header{}
	for k, v := range map[string]string{
		"authority":          "api.nasdaq.com",
		"accept":             "application/json, text/plain, */*",
		"accept-language":    "en-US,en;q=0.9,el-GR;q=0.8,el;q=0.7,it;q=0.6",
		"cache-control":      "no-cache",
		"dnt":                "1",
		"origin":             "https://www.nasdaq.com",
		"pragma":             "no-cache",
		"referer":            "https://www.nasdaq.com/",
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

const snippetLimit = 200

// API wraps the resilient HTTP client with the mandatory Nasdaq header
// set and envelope validation.
type API struct {
	client *ng.Client
	logger ng.Logger
}

// NewAPI creates a Nasdaq adapter.
func NewAPI(logger ng.Logger, options ...ng.Option) *API {
	return &API{
		client: ng.New(logger, options...),
		logger: logger,
	}
}

// Call executes a GET against the endpoint and returns the validated JSON
// envelope. Per-call options build a transient client so overrides never
// leak into the persistent one.
func (a *API) Call(ctx context.Context, endpoint string, options ...ng.Option) (json.RawMessage, error) {
	if !strings.HasPrefix(endpoint, "http") {
		return nil, &ng.Error{Kind: ng.KindHTTP, Message: "invalid URL: " + endpoint, URL: endpoint}
	}

	client := a.client
	if len(options) > 0 {
		client = ng.New(a.logger, options...)
	}

	resp, err := ng.Get[json.RawMessage](ctx, client, endpoint, nasdaqHeaders())
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		snippet := resp.ErrorBody
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		if a.logger != nil {
			a.logger.Warn("Nasdaq API returned non-JSON content or HTTP error",
				"url", endpoint,
				"status", resp.Status,
				"body_snippet", snippet)
		}
		return nil, &markets.NonJSONResponseError{
			URL:         endpoint,
			Status:      resp.Status,
			BodySnippet: snippet,
		}
	}

	var body json.RawMessage
	if resp.Data != nil {
		body = *resp.Data
	}
	return a.validateEnvelope(endpoint, body)
}

// validateEnvelope checks the business status block. An rCode of 200 means
// success; any other code is a business error, and a missing code means
// the document does not follow the Nasdaq envelope at all.
func (a *API) validateEnvelope(endpoint string, body json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Status struct {
			RCode *int `json:"rCode"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Status.RCode == nil {
		if a.logger != nil {
			a.logger.Warn("malformed Nasdaq response structure", "url", endpoint)
		}
		return nil, &markets.MalformedResponseError{
			Endpoint: endpoint,
			Details:  "missing 'rCode' in response status block",
		}
	}

	code := *envelope.Status.RCode
	if code == 200 {
		return body, nil
	}

	if a.logger != nil {
		a.logger.Warn("Nasdaq business level error detected",
			"rCode", code,
			"url", endpoint,
			"context", stripDataField(body))
	}
	return nil, &markets.BusinessError{
		RCode:    code,
		Endpoint: endpoint,
		Response: string(body),
	}
}

// stripDataField removes the bulky data field so log context carries
// metadata only.
func stripDataField(body json.RawMessage) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return string(body)
	}
	delete(doc, "data")
	meta, err := json.Marshal(doc)
	if err != nil {
		return string(body)
	}
	return string(meta)
}
