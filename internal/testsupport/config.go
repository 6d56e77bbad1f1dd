package testsupport

import (
	"testing"

	"notifyplex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config with its own credential directory and every
// option the post-process run requires marked as provided.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Plex.Host = "127.0.0.1:32400"
	cfg.Plex.Username = "user@example.com"
	cfg.Plex.Password = "secret"
	cfg.Plex.AuthDir = t.TempDir()
	cfg.Refresh.Enabled = true
	cfg.Logging.Format = "nzbget"
	cfg.MarkProvided(
		config.KeyPlexHost, config.KeyPlexUsername, config.KeyPlexPassword,
		config.KeySilentFailure, config.KeyRefreshMode, config.KeyRefreshEnabled,
		config.KeyNotifyHeaders, config.KeyNotifyEnabled,
	)

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithServer points the config at a fake server's host:port.
func WithServer(fake *FakePlex) ConfigOption {
	return func(c *config.Config) {
		c.Plex.Host = fake.HostPort()
	}
}

// WithRefreshMode selects the refresh policy.
func WithRefreshMode(mode string) ConfigOption {
	return func(c *config.Config) {
		c.Refresh.Mode = mode
	}
}

// WithSilentFailure toggles silent-failure mode.
func WithSilentFailure(enabled bool) ConfigOption {
	return func(c *config.Config) {
		c.SilentFailure = enabled
	}
}

// WithDownload sets the NZBGet job as if NZBPP_STATUS and friends were exported.
func WithDownload(name, category, status string) ConfigOption {
	return func(c *config.Config) {
		c.Download.Name = name
		c.Download.Category = category
		c.Download.Status = status
		c.Download.StatusSet = true
	}
}

// WithCommand sets the NZBGet command being served.
func WithCommand(command string) ConfigOption {
	return func(c *config.Config) {
		c.Command = command
	}
}

// WithoutOptions forgets that the given keys were provided.
func WithoutOptions(keys ...string) ConfigOption {
	return func(c *config.Config) {
		c.ForgetProvided(keys...)
	}
}
