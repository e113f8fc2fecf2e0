// Package datafeeds carries streaming market data connections. The Yahoo
// stream delivers base64-encoded binary price frames over a websocket.
package datafeeds

import (
	"context"
	"encoding/base64"

	"github.com/gorilla/websocket"

	ng "github.com/ckir/go-lib-ng"
)

// DefaultYahooStreamURL is the production streaming endpoint.
const DefaultYahooStreamURL = "wss://streamer.finance.yahoo.com/?version=2"

// Handler receives one decoded binary price frame. Frames are
// protobuf-encoded pricing data; decoding them is the caller's concern.
type Handler func(frame []byte)

// YahooStream subscribes to Yahoo Finance quote updates over a websocket.
type YahooStream struct {
	url    string
	logger ng.Logger
	dialer *websocket.Dialer
}

// NewYahooStream creates a stream against the production endpoint.
func NewYahooStream(logger ng.Logger) *YahooStream {
	return &YahooStream{
		url:    DefaultYahooStreamURL,
		logger: logger,
		dialer: websocket.DefaultDialer,
	}
}

// NewYahooStreamURL creates a stream against a custom endpoint, for tests
// and proxies.
func NewYahooStreamURL(logger ng.Logger, url string) *YahooStream {
	s := NewYahooStream(logger)
	s.url = url
	return s
}

// StreamQuotes connects, subscribes to the given symbols and hands every
// decoded frame to the handler. It returns nil when the server closes the
// connection cleanly, ctx.Err() on cancellation, and the transport error
// otherwise.
func (s *YahooStream) StreamQuotes(ctx context.Context, symbols []string, handle Handler) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return &ng.Error{Kind: ng.KindInternal, Message: "websocket connection failed", Cause: err, URL: s.url}
	}
	defer conn.Close()

	subscribe := struct {
		Subscribe []string `json:"subscribe"`
	}{Subscribe: symbols}
	if err := conn.WriteJSON(subscribe); err != nil {
		return &ng.Error{Kind: ng.KindInternal, Message: "failed to send subscription", Cause: err, URL: s.url}
	}
	if s.logger != nil {
		s.logger.Info("yahoo stream subscribed", "symbols", symbols)
	}

	// Unblock the read loop when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if s.logger != nil {
					s.logger.Info("yahoo stream closed by server")
				}
				return nil
			}
			if s.logger != nil {
				s.logger.Error("yahoo stream error", "error", err.Error())
			}
			return &ng.Error{Kind: ng.KindInternal, Message: "websocket stream error", Cause: err, URL: s.url}
		}
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("dropping undecodable stream frame", "error", err.Error())
			}
			continue
		}
		handle(frame)
	}
}
