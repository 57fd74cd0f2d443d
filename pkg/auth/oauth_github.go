package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBaseURL = "https://api.github.com"

var githubHeaders = map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
}

type githubAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// NewGitHubAdapter creates the GitHub provider adapter.
func NewGitHubAdapter(cfg GitHubOAuthConfig, opts ...AdapterOption) ProviderAdapter {
	o := newAdapterOptions(githubAPIBaseURL, opts)
	endpoint := github.Endpoint
	if o.endpoint != nil {
		endpoint = *o.endpoint
	}
	return &githubAdapter{
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

func (a *githubAdapter) Provider() Provider { return ProviderGitHub }

func (a *githubAdapter) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// Exchange resolves the GitHub user. The profile email is only public and
// carries no verification flag, so the address is taken from /user/emails:
// the primary verified one, else any verified one, else the public profile
// email marked unverified.
func (a *githubAdapter) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := exchangeCode(ctx, a.conf, a.httpClient, code)
	if err != nil {
		return Identity{}, err
	}

	var u githubUser
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/user", tok.AccessToken, &u, githubHeaders); err != nil {
		return Identity{}, fmt.Errorf("fetch github user: %w", err)
	}
	if u.ID == 0 {
		return Identity{}, fmt.Errorf("fetch github user: missing id")
	}

	var emails []githubEmail
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/user/emails", tok.AccessToken, &emails, githubHeaders); err != nil {
		return Identity{}, fmt.Errorf("fetch github emails: %w", err)
	}

	email, verified := pickGitHubEmail(emails)
	if email == "" {
		email = u.Email
	}
	if email == "" {
		return Identity{}, ErrNoProviderEmail
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return Identity{
		Provider:       ProviderGitHub,
		ProviderUserID: strconv.FormatInt(u.ID, 10),
		Email:          email,
		EmailVerified:  verified,
		Name:           name,
		AvatarURL:      u.AvatarURL,
	}, nil
}

func pickGitHubEmail(emails []githubEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

var _ ProviderAdapter = (*githubAdapter)(nil)
