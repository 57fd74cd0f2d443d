package config

import (
	"errors"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type loader struct {
	envFiles     []string
	optionalEnv  bool
	environment  map[string]string
	prefix       string
	skipOSEnvVar bool
}

// Option configures a single Load call.
type Option func(*loader)

// WithEnvFiles reads the given dotenv files before parsing. Later files
// override earlier ones; process environment variables override both.
// Missing files cause Load to fail.
func WithEnvFiles(files ...string) Option {
	return func(l *loader) {
		l.envFiles = append(l.envFiles, files...)
	}
}

// WithOptionalEnvFiles is like WithEnvFiles but silently skips files that
// do not exist.
func WithOptionalEnvFiles(files ...string) Option {
	return func(l *loader) {
		l.envFiles = append(l.envFiles, files...)
		l.optionalEnv = true
	}
}

// WithEnvironment replaces the process environment with the given map.
// Useful in tests.
func WithEnvironment(vars map[string]string) Option {
	return func(l *loader) {
		l.environment = vars
		l.skipOSEnvVar = true
	}
}

// WithPrefix only considers variables starting with prefix.
func WithPrefix(prefix string) Option {
	return func(l *loader) {
		l.prefix = prefix
	}
}

// Load parses environment variables into a new value of T.
//
// Nothing is cached: every call reads the sources again, so the caller owns
// the resulting value and passes it explicitly to whatever needs it.
//
// Example:
//
//	type DatabaseConfig struct {
//		URL      string `env:"DB_URL,required"`
//		MaxConns int    `env:"DB_MAX_CONNS" envDefault:"10"`
//	}
//
//	cfg, err := config.Load[DatabaseConfig](config.WithOptionalEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var zero T

	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	vars, err := l.lookup()
	if err != nil {
		return zero, err
	}

	v, err := env.ParseAsWithOptions[T](env.Options{
		Environment: vars,
		Prefix:      l.prefix,
	})
	if err != nil {
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func (l *loader) lookup() (map[string]string, error) {
	vars := make(map[string]string)

	for _, file := range l.envFiles {
		fileVars, err := godotenv.Read(file)
		if err != nil {
			if l.optionalEnv && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Join(ErrReadingEnvFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	if l.skipOSEnvVar {
		for k, v := range l.environment {
			vars[k] = v
		}
		return vars, nil
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[k] = v
	}
	return vars, nil
}
