package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/config"
)

type appConfig struct {
	Name string   `env:"APP_NAME,required"`
	Port int      `env:"APP_PORT" envDefault:"8080"`
	Tags []string `env:"APP_TAGS" envSeparator:","`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("parses explicit environment", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load[appConfig](config.WithEnvironment(map[string]string{
			"APP_NAME": "svc",
		}))
		require.NoError(t, err)
		assert.Equal(t, "svc", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.Empty(t, cfg.Tags)
	})

	t.Run("missing required variable", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load[appConfig](config.WithEnvironment(map[string]string{}))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("later env files override earlier ones", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load[appConfig](
			config.WithEnvFiles("testdata/base.env", "testdata/override.env"),
			config.WithEnvironment(map[string]string{}),
		)
		require.NoError(t, err)
		assert.Equal(t, "authcore", cfg.Name)
		assert.Equal(t, 9100, cfg.Port)
		assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	})

	t.Run("environment wins over env files", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load[appConfig](
			config.WithEnvFiles("testdata/base.env"),
			config.WithEnvironment(map[string]string{"APP_PORT": "7000"}),
		)
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Port)
	})

	t.Run("missing env file", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load[appConfig](config.WithEnvFiles("testdata/nope.env"))
		assert.ErrorIs(t, err, config.ErrReadingEnvFile)
	})

	t.Run("optional env file is skipped", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.Load[appConfig](
			config.WithOptionalEnvFiles("testdata/nope.env"),
			config.WithEnvironment(map[string]string{"APP_NAME": "x"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "x", cfg.Name)
	})
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("APP_NAME", "from-os")

	cfg, err := config.Load[appConfig]()
	require.NoError(t, err)
	assert.Equal(t, "from-os", cfg.Name)
}

func TestMustLoad(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		config.MustLoad[appConfig](config.WithEnvironment(map[string]string{}))
	})
}
