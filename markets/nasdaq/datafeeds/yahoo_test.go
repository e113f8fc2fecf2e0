package datafeeds

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// wsURL rewrites an httptest server URL into a websocket URL.
func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStreamQuotesDeliversDecodedFrames(t *testing.T) {
	frames := [][]byte{[]byte("tick-1"), []byte("tick-2")}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var sub struct {
			Subscribe []string `json:"subscribe"`
		}
		assert.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, []string{"AAPL", "MSFT"}, sub.Subscribe)

		for _, frame := range frames {
			encoded := base64.StdEncoding.EncodeToString(frame)
			assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(encoded)))
		}
		// Undecodable frames are dropped, not fatal.
		assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("!!!not-base64!!!")))

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
		assert.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, deadline))

		// Wait for the client's close response so the TCP teardown does not
		// race the close frame.
		conn.ReadMessage()
	}))
	defer server.Close()

	stream := NewYahooStreamURL(nil, wsURL(server))

	var got [][]byte
	err := stream.StreamQuotes(context.Background(), []string{"AAPL", "MSFT"}, func(frame []byte) {
		got = append(got, append([]byte(nil), frame...))
	})
	require.NoError(t, err, "a clean close ends the stream without error")

	require.Len(t, got, 2)
	assert.Equal(t, "tick-1", string(got[0]))
	assert.Equal(t, "tick-2", string(got[1]))
}

func TestStreamQuotesContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		var sub json.RawMessage
		assert.NoError(t, conn.ReadJSON(&sub))

		// Hold the connection open; the client side cancels.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewYahooStreamURL(nil, wsURL(server))

	done := make(chan error, 1)
	go func() {
		done <- stream.StreamQuotes(ctx, []string{"AAPL"}, func([]byte) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestStreamQuotesDialFailure(t *testing.T) {
	stream := NewYahooStreamURL(nil, "ws://127.0.0.1:1/")
	err := stream.StreamQuotes(context.Background(), []string{"AAPL"}, func([]byte) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
}
