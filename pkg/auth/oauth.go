package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mofumofu/authcore/pkg/logger"
)

// ProviderAdapter talks to one OAuth provider.
type ProviderAdapter interface {
	Provider() Provider
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the caller's identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// OAuthClient is the registry of configured providers.
type OAuthClient struct {
	adapters map[Provider]ProviderAdapter
}

// Adapter returns the adapter for p or ErrUnknownProvider.
func (c *OAuthClient) Adapter(p Provider) (ProviderAdapter, error) {
	a, ok := c.adapters[p]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return a, nil
}

// Providers lists the configured providers.
func (c *OAuthClient) Providers() []Provider {
	out := make([]Provider, 0, len(c.adapters))
	for _, p := range []Provider{ProviderGoogle, ProviderGitHub} {
		if _, ok := c.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Exchange trades code with provider p. Every provider failure is reported
// as ErrOAuthExchangeFailed.
func (c *OAuthClient) Exchange(ctx context.Context, p Provider, code string) (Identity, error) {
	a, err := c.Adapter(p)
	if err != nil {
		return Identity{}, err
	}
	if code == "" {
		return Identity{}, fmt.Errorf("%w: empty code", ErrOAuthExchangeFailed)
	}
	id, err := a.Exchange(ctx, code)
	if err != nil {
		return Identity{}, errors.Join(ErrOAuthExchangeFailed, err)
	}
	id.Provider = p
	return id, nil
}

// OAuthClientBuilder collects provider settings. Nothing is validated until
// Build, which reports every incomplete provider at once.
type OAuthClientBuilder struct {
	google     *GoogleOAuthConfig
	github     *GitHubOAuthConfig
	extra      []ProviderAdapter
	httpClient *http.Client
	adapterOps []AdapterOption
}

// NewOAuthClientBuilder starts an empty builder.
func NewOAuthClientBuilder() *OAuthClientBuilder {
	return &OAuthClientBuilder{}
}

// Google configures the Google provider when cfg is enabled.
func (b *OAuthClientBuilder) Google(cfg GoogleOAuthConfig) *OAuthClientBuilder {
	if cfg.Enabled() {
		b.google = &cfg
	}
	return b
}

// GitHub configures the GitHub provider when cfg is enabled.
func (b *OAuthClientBuilder) GitHub(cfg GitHubOAuthConfig) *OAuthClientBuilder {
	if cfg.Enabled() {
		b.github = &cfg
	}
	return b
}

// Adapter registers a prebuilt adapter, replacing any configured one for
// the same provider.
func (b *OAuthClientBuilder) Adapter(a ProviderAdapter) *OAuthClientBuilder {
	b.extra = append(b.extra, a)
	return b
}

// HTTPClient sets the client used for token exchange and profile calls.
func (b *OAuthClientBuilder) HTTPClient(c *http.Client) *OAuthClientBuilder {
	b.httpClient = c
	return b
}

// AdapterOptions are applied to the built-in adapters.
func (b *OAuthClientBuilder) AdapterOptions(opts ...AdapterOption) *OAuthClientBuilder {
	b.adapterOps = append(b.adapterOps, opts...)
	return b
}

// Build validates the collected settings and returns the client.
func (b *OAuthClientBuilder) Build() (*OAuthClient, error) {
	var errs []error
	client := &OAuthClient{adapters: make(map[Provider]ProviderAdapter)}

	opts := b.adapterOps
	if b.httpClient != nil {
		opts = append([]AdapterOption{WithAdapterHTTPClient(b.httpClient)}, opts...)
	}

	if b.google != nil {
		if err := requireOAuthFields(ProviderGoogle, b.google.ClientID, b.google.ClientSecret, b.google.RedirectURL); err != nil {
			errs = append(errs, err)
		} else {
			client.adapters[ProviderGoogle] = NewGoogleAdapter(*b.google, opts...)
		}
	}
	if b.github != nil {
		if err := requireOAuthFields(ProviderGitHub, b.github.ClientID, b.github.ClientSecret, b.github.RedirectURL); err != nil {
			errs = append(errs, err)
		} else {
			client.adapters[ProviderGitHub] = NewGitHubAdapter(*b.github, opts...)
		}
	}
	for _, a := range b.extra {
		if a == nil || !a.Provider().Valid() {
			errs = append(errs, fmt.Errorf("%w: adapter for unsupported provider", ErrIncompleteOAuthConfig))
			continue
		}
		client.adapters[a.Provider()] = a
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return client, nil
}

func requireOAuthFields(p Provider, clientID, secret, redirect string) error {
	var missing []string
	if clientID == "" {
		missing = append(missing, "client id")
	}
	if secret == "" {
		missing = append(missing, "client secret")
	}
	if redirect == "" {
		missing = append(missing, "redirect url")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: missing %v", ErrIncompleteOAuthConfig, p, missing)
}

// OAuthSignIn exchanges code with the provider, resolves the identity and
// signs the user in. handle is only consulted when a new account is created.
func (s *Service) OAuthSignIn(ctx context.Context, provider Provider, code string, handle *string, meta ClientMeta) (*AuthResult, error) {
	start := time.Now()
	id, err := s.oauth.Exchange(ctx, provider, code)
	if err != nil {
		s.logger.InfoContext(ctx, "oauth exchange failed",
			logger.Provider(string(provider)), logger.Duration(time.Since(start)), logger.Error(err))
		return nil, err
	}

	res, err := s.ResolveOrCreate(ctx, id, handle)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, s.storage, res.User.ID, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: res.User, Tokens: pair, IsNewUser: res.IsNewUser}, nil
}

// LinkProvider exchanges code and links the resulting identity to userID.
func (s *Service) LinkProvider(ctx context.Context, userID uuid.UUID, provider Provider, code string) error {
	id, err := s.oauth.Exchange(ctx, provider, code)
	if err != nil {
		return err
	}
	return s.Link(ctx, userID, provider, id.ProviderUserID)
}

// Providers lists the configured OAuth providers.
func (s *Service) Providers() []Provider {
	return s.oauth.Providers()
}
