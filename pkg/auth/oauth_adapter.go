package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// AdapterOption configures the built-in provider adapters.
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	httpClient *http.Client
	endpoint   *oauth2.Endpoint
	apiBaseURL string
}

// WithAdapterHTTPClient sets the HTTP client for token exchange and API calls.
func WithAdapterHTTPClient(c *http.Client) AdapterOption {
	return func(o *adapterOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithAdapterEndpoint overrides the provider's OAuth endpoint.
func WithAdapterEndpoint(e oauth2.Endpoint) AdapterOption {
	return func(o *adapterOptions) {
		o.endpoint = &e
	}
}

// WithAdapterAPIBaseURL overrides the base URL of the provider's profile API.
func WithAdapterAPIBaseURL(u string) AdapterOption {
	return func(o *adapterOptions) {
		o.apiBaseURL = u
	}
}

func newAdapterOptions(defaultAPI string, opts []AdapterOption) adapterOptions {
	o := adapterOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: defaultAPI,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// exchangeCode trades code for a token using the adapter's HTTP client.
func exchangeCode(ctx context.Context, conf *oauth2.Config, client *http.Client, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, url, accessToken string, v any, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(v)
}
