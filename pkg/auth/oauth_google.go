package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleAPIBaseURL = "https://www.googleapis.com"

type googleAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// NewGoogleAdapter creates the Google provider adapter.
func NewGoogleAdapter(cfg GoogleOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	o := newAdapterOptions(googleAPIBaseURL, opts)
	endpoint := google.Endpoint
	if o.endpoint != nil {
		endpoint = *o.endpoint
	}
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		httpClient: o.httpClient,
		apiBaseURL: strings.TrimRight(o.apiBaseURL, "/"),
	}
}

func (a *googleAdapter) Provider() Provider { return ProviderGoogle }

func (a *googleAdapter) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

func (a *googleAdapter) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := exchangeCode(ctx, a.conf, a.httpClient, code)
	if err != nil {
		return Identity{}, err
	}

	var u googleUser
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/oauth2/v2/userinfo", tok.AccessToken, &u, nil); err != nil {
		return Identity{}, fmt.Errorf("fetch google user: %w", err)
	}
	if u.ID == "" {
		return Identity{}, fmt.Errorf("fetch google user: missing id")
	}
	if u.Email == "" {
		return Identity{}, ErrNoProviderEmail
	}

	return Identity{
		Provider:       ProviderGoogle,
		ProviderUserID: u.ID,
		Email:          u.Email,
		EmailVerified:  u.VerifiedEmail,
		Name:           u.Name,
		AvatarURL:      u.Picture,
	}, nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

var _ ProviderAdapter = (*googleAdapter)(nil)
