package config

const (
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
	defaultPlexTVTimeout   = 30
	defaultServerTimeout   = 10
	defaultFallbackAuthDir = "~/.local/share/notifyplex"
	defaultRefreshMode     = "Auto"
	defaultMovieCategories = "movies"
	defaultTVCategories    = "tv"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Refresh: Refresh{
			Mode:            defaultRefreshMode,
			MovieCategories: defaultMovieCategories,
			TVCategories:    defaultTVCategories,
		},
		Timeouts: Timeouts{
			PlexTV: defaultPlexTVTimeout,
			Server: defaultServerTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
