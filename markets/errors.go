// Package markets holds error types shared by the market data adapters.
package markets

import "fmt"

// NonJSONResponseError reports an endpoint that answered with something
// other than a decodable JSON document.
type NonJSONResponseError struct {
	URL         string
	Status      int
	BodySnippet string
}

func (e *NonJSONResponseError) Error() string {
	return fmt.Sprintf("non-JSON response from %s (status %d): %s", e.URL, e.Status, e.BodySnippet)
}

// BusinessError reports a well-formed envelope whose application-level
// result code signals failure.
type BusinessError struct {
	RCode    int
	Endpoint string
	Response string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("endpoint %s returned business code %d: %s", e.Endpoint, e.RCode, e.Response)
}

// MalformedResponseError reports a response that decoded but is missing
// fields the adapter requires.
type MalformedResponseError struct {
	Endpoint string
	Details  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Details)
}
