package ng

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Response is the wrapper returned for every call that completed at the
// HTTP level. Success reports whether the final status was 2xx; when it is
// false, Status and ErrorBody carry the application-level failure and the
// call is still considered completed (no error).
type Response[T any] struct {
	// Data holds the decoded body on success; nil for empty bodies (HEAD).
	Data *T

	// ErrorBody holds the raw body text of a non-2xx final response.
	ErrorBody string

	// Status is the final HTTP status code.
	Status int

	// Success reports whether the final status was 2xx.
	Success bool

	// Headers are the final response headers.
	Headers http.Header
}

// Do executes one logical request and decodes a 2xx body into T. A 2xx
// body that fails to decode is a terminal *Error (never retried); a non-2xx
// final status is returned as a Response with Success=false.
func Do[T any](ctx context.Context, c *Client, method, url string, headers http.Header, body any) (*Response[T], error) {
	raw, err := c.do(ctx, method, url, headers, body)
	if err != nil {
		return nil, err
	}

	resp := &Response[T]{
		Status:  raw.status,
		Success: raw.success,
		Headers: raw.headers,
	}

	if !raw.success {
		resp.ErrorBody = string(raw.body)
		return resp, nil
	}

	if len(bytes.TrimSpace(raw.body)) == 0 {
		return resp, nil
	}

	var data T
	if err := json.Unmarshal(raw.body, &data); err != nil {
		return nil, &Error{
			Kind:    KindHTTP,
			Message: "decoding response body",
			Cause:   err,
			Method:  method,
			URL:     url,
			Status:  raw.status,
		}
	}
	resp.Data = &data
	return resp, nil
}

// Get performs a GET and decodes the body into T.
func Get[T any](ctx context.Context, c *Client, url string, headers http.Header) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodGet, url, headers, nil)
}

// Post performs a POST with a JSON-serialized body.
func Post[T any](ctx context.Context, c *Client, url string, headers http.Header, body any) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodPost, url, headers, body)
}

// Put performs a PUT with a JSON-serialized body.
func Put[T any](ctx context.Context, c *Client, url string, headers http.Header, body any) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodPut, url, headers, body)
}

// Patch performs a PATCH with a JSON-serialized body.
func Patch[T any](ctx context.Context, c *Client, url string, headers http.Header, body any) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodPatch, url, headers, body)
}

// Delete performs a DELETE and decodes the body into T.
func Delete[T any](ctx context.Context, c *Client, url string, headers http.Header) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodDelete, url, headers, nil)
}

// Options performs an OPTIONS and decodes the body into T.
func Options[T any](ctx context.Context, c *Client, url string, headers http.Header) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodOptions, url, headers, nil)
}

// Trace performs a TRACE and decodes the body into T.
func Trace[T any](ctx context.Context, c *Client, url string, headers http.Header) (*Response[T], error) {
	return Do[T](ctx, c, http.MethodTrace, url, headers, nil)
}

// Head performs a HEAD. HEAD responses carry no body, so Data stays nil.
func Head(ctx context.Context, c *Client, url string, headers http.Header) (*Response[json.RawMessage], error) {
	return Do[json.RawMessage](ctx, c, http.MethodHead, url, headers, nil)
}
