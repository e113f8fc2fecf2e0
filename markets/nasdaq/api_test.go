package nasdaq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckir/go-lib-ng/markets"
)

func TestCallRejectsNonHTTPEndpoint(t *testing.T) {
	api := NewAPI(nil)
	_, err := api.Call(context.Background(), "ftp://api.nasdaq.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestCallSendsMandatoryHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.nasdaq.com", r.Header.Get("Origin"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")
		w.Write([]byte(`{"data":{},"status":{"rCode":200}}`))
	}))
	defer server.Close()

	api := NewAPI(nil)
	body, err := api.Call(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"rCode":200`)
}

func TestCallNonJSONContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("<html>access denied</html>"))
	}))
	defer server.Close()

	api := NewAPI(nil)
	_, err := api.Call(context.Background(), server.URL)
	require.Error(t, err)

	var nonJSON *markets.NonJSONResponseError
	require.ErrorAs(t, err, &nonJSON)
	assert.Equal(t, http.StatusForbidden, nonJSON.Status)
	assert.Contains(t, nonJSON.BodySnippet, "access denied")
}

func TestCallBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"big":"payload"},"status":{"rCode":400,"bCodeMessage":"bad symbol"}}`))
	}))
	defer server.Close()

	api := NewAPI(nil)
	_, err := api.Call(context.Background(), server.URL)
	require.Error(t, err)

	var business *markets.BusinessError
	require.ErrorAs(t, err, &business)
	assert.Equal(t, 400, business.RCode)
	assert.Contains(t, business.Response, "bad symbol")
}

func TestCallMissingRCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{},"somethingElse":true}`))
	}))
	defer server.Close()

	api := NewAPI(nil)
	_, err := api.Call(context.Background(), server.URL)
	require.Error(t, err)

	var malformed *markets.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Details, "rCode")
}

func TestStripDataField(t *testing.T) {
	meta := stripDataField([]byte(`{"data":{"huge":"blob"},"status":{"rCode":400}}`))
	assert.NotContains(t, meta, "huge")
	assert.Contains(t, meta, "rCode")

	// Undecodable input passes through unchanged.
	assert.Equal(t, "not json", stripDataField([]byte("not json")))
}
