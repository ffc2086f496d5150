package domain

import (
	"net/http"
	"time"
)

// Credentials holds the Trello API key and token.
// Neither value is validated; an empty key or token surfaces as a 401 from
// Trello on first use.
type Credentials struct {
	APIKey string
	Token  string
}

// CredentialsFromConfig extracts the Trello credentials from a configuration.
func CredentialsFromConfig(config *Config) *Credentials {
	return &Credentials{
		APIKey: config.Trello.APIKey,
		Token:  config.Trello.Token,
	}
}

// NewAuthenticatedClient returns an HTTP client that attaches the key and
// token as query parameters to every request it sends.
func NewAuthenticatedClient(creds *Credentials, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &keyTokenTransport{
			base:        http.DefaultTransport,
			credentials: creds,
		},
	}
}

// keyTokenTransport is an http.RoundTripper that adds key/token query parameters.
type keyTokenTransport struct {
	base        http.RoundTripper
	credentials *Credentials
}

// RoundTrip implements http.RoundTripper. The original request is not modified.
func (t *keyTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())

	query := clonedReq.URL.Query()
	query.Set("key", t.credentials.APIKey)
	query.Set("token", t.credentials.Token)
	clonedReq.URL.RawQuery = query.Encode()

	return t.base.RoundTrip(clonedReq)
}
