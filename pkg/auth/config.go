package auth

import "time"

// Config holds the auth core behaviour switches.
type Config struct {
	// RequireVerifiedEmailForMerge refuses to attach an OAuth identity to an
	// existing account by email unless the provider asserts the address is verified.
	RequireVerifiedEmailForMerge bool `env:"AUTH_OAUTH_REQUIRE_VERIFIED_EMAIL" envDefault:"true"`
	// HashWorkers bounds concurrent bcrypt operations. Zero means GOMAXPROCS.
	HashWorkers int `env:"AUTH_HASH_WORKERS" envDefault:"0"`
	// BackgroundTimeout bounds avatar imports and outgoing mail.
	BackgroundTimeout time.Duration `env:"AUTH_BACKGROUND_TIMEOUT" envDefault:"30s"`
}

// GoogleOAuthConfig configures the Google provider. An empty ClientID
// disables it.
type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

// Enabled reports whether any Google setting was provided.
func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != "" || c.ClientSecret != "" || c.RedirectURL != ""
}

// GitHubOAuthConfig configures the GitHub provider. An empty ClientID
// disables it.
type GitHubOAuthConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"read:user,user:email"`
}

// Enabled reports whether any GitHub setting was provided.
func (c GitHubOAuthConfig) Enabled() bool {
	return c.ClientID != "" || c.ClientSecret != "" || c.RedirectURL != ""
}
