// Package config loads application configuration from environment variables
// into typed structs.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
// dotenv files are read into a lookup map, the process environment is layered
// on top, and the result is parsed into the requested struct using field tags.
//
// There is no package-level state. Each call to Load returns a fresh value,
// which the application builds once at startup and passes down explicitly.
//
// # Usage
//
//	type HTTPConfig struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[HTTPConfig](config.WithOptionalEnvFiles(".env"))
//	if err != nil {
//	    log.Fatalf("config: %v", err)
//	}
//
// # Error Handling
//
//   - `ErrParsingConfig`  – failed to parse env vars into struct.
//   - `ErrReadingEnvFile` – a requested dotenv file could not be read.
package config
