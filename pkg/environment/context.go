package environment

import (
	"context"
	"strings"
)

// Environment names the deployment the process runs in.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Staging     Environment = "staging"
)

// Normalize maps short aliases ("dev", "prod", "stage") to their canonical
// names. Unknown values are returned lowercased and trimmed.
func (e Environment) Normalize() Environment {
	switch v := strings.ToLower(strings.TrimSpace(string(e))); v {
	case "dev", string(Development), "":
		return Development
	case "prod", string(Production):
		return Production
	case "stage", string(Staging):
		return Staging
	default:
		return Environment(v)
	}
}

// IsDevelopment reports whether e is the development environment.
// An empty value counts as development.
func (e Environment) IsDevelopment() bool { return e.Normalize() == Development }

func (e Environment) IsProduction() bool { return e.Normalize() == Production }

type contextKey struct{}

// WithContext adds environment to context
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env.Normalize())
}

// FromContext retrieves environment from context.
// Returns an empty Environment when none was attached.
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(Environment)
	return env
}
