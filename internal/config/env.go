package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Configuration keys. Each one can be set in the TOML file (as a dotted path)
// or through the NZBGet environment variable bound to it below.
const (
	KeyPlexHost           = "plex.host"
	KeyPlexSecure         = "plex.secure"
	KeyPlexUsername       = "plex.username"
	KeyPlexPassword       = "plex.password"
	KeyPlexAuthDir        = "plex.auth_dir"
	KeyRefreshEnabled     = "refresh.enabled"
	KeyRefreshMode        = "refresh.mode"
	KeyMovieCategories    = "refresh.movie_categories"
	KeyTVCategories       = "refresh.tv_categories"
	KeyCustomSections     = "refresh.custom_sections"
	KeySectionMapping     = "refresh.section_mapping"
	KeyNotifyEnabled      = "notify.enabled"
	KeyNotifyHeaders      = "notify.direct_headers"
	KeyNotifyClients      = "notify.clients"
	KeyNotifySecure       = "notify.secure"
	KeySilentFailure      = "silent_failure"
	KeyLogLevel           = "logging.level"
	KeyLogFormat          = "logging.format"
	KeyDownloadName       = "download.name"
	KeyDownloadCategory   = "download.category"
	KeyDownloadStatus     = "download.status"
	KeyDownloadProperName = "download.proper_name"
	KeyDownloadEpisode    = "download.episode_name"
	KeyDownloadYear       = "download.movie_year"
	KeyCommand            = "command"
)

const scriptOptionPrefix = "NZBPO_"

type envBinding struct {
	key   string
	env   string
	apply func(c *Config, raw string) error
}

func stringField(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, raw string) error {
		*field(c) = raw
		return nil
	}
}

func boolField(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, raw string) error {
		value, err := parseBool(raw)
		if err != nil {
			return err
		}
		*field(c) = value
		return nil
	}
}

var envBindings = []envBinding{
	{KeyPlexHost, "NZBPO_PLEXIP", stringField(func(c *Config) *string { return &c.Plex.Host })},
	{KeyPlexSecure, "NZBPO_PLEXSECURE", boolField(func(c *Config) *bool { return &c.Plex.Secure })},
	{KeyPlexUsername, "NZBPO_PLEXUSER", stringField(func(c *Config) *string { return &c.Plex.Username })},
	{KeyPlexPassword, "NZBPO_PLEXPASS", stringField(func(c *Config) *string { return &c.Plex.Password })},
	{KeyPlexAuthDir, "NZBPO_PLEXAUTHDIR", stringField(func(c *Config) *string { return &c.Plex.AuthDir })},
	{KeyRefreshEnabled, "NZBPO_REFRESHLIBRARY", boolField(func(c *Config) *bool { return &c.Refresh.Enabled })},
	{KeyRefreshMode, "NZBPO_REFRESHMODE", stringField(func(c *Config) *string { return &c.Refresh.Mode })},
	{KeyMovieCategories, "NZBPO_MOVIESCAT", stringField(func(c *Config) *string { return &c.Refresh.MovieCategories })},
	{KeyTVCategories, "NZBPO_TVCAT", stringField(func(c *Config) *string { return &c.Refresh.TVCategories })},
	{KeyCustomSections, "NZBPO_CUSTOMPLEXSECTION", stringField(func(c *Config) *string { return &c.Refresh.CustomSections })},
	{KeySectionMapping, "NZBPO_SECTIONMAPPING", stringField(func(c *Config) *string { return &c.Refresh.SectionMapping })},
	{KeyNotifyEnabled, "NZBPO_GUISHOW", boolField(func(c *Config) *bool { return &c.Notify.Enabled })},
	{KeyNotifyHeaders, "NZBPO_DHEADERS", boolField(func(c *Config) *bool { return &c.Notify.DirectHeaders })},
	{KeyNotifyClients, "NZBPO_CLIENTSIP", stringField(func(c *Config) *string { return &c.Notify.Clients })},
	{KeyNotifySecure, "NZBPO_CLIENTSSECURE", boolField(func(c *Config) *bool { return &c.Notify.Secure })},
	{KeySilentFailure, "NZBPO_SILENTFAILURE", boolField(func(c *Config) *bool { return &c.SilentFailure })},
	{KeyLogLevel, "NZBPO_LOGLEVEL", stringField(func(c *Config) *string { return &c.Logging.Level })},
	{KeyLogFormat, "NZBPO_LOGFORMAT", stringField(func(c *Config) *string { return &c.Logging.Format })},
	{KeyDownloadName, "NZBPP_NZBNAME", stringField(func(c *Config) *string { return &c.Download.Name })},
	{KeyDownloadCategory, "NZBPP_CATEGORY", stringField(func(c *Config) *string { return &c.Download.Category })},
	{KeyDownloadStatus, "NZBPP_STATUS", func(c *Config, raw string) error {
		c.Download.Status = raw
		c.Download.StatusSet = true
		return nil
	}},
	{KeyDownloadProperName, "NZBPR__DNZB_PROPERNAME", stringField(func(c *Config) *string { return &c.Download.ProperName })},
	{KeyDownloadEpisode, "NZBPR__DNZB_EPISODENAME", stringField(func(c *Config) *string { return &c.Download.EpisodeName })},
	{KeyDownloadYear, "NZBPR__DNZB_MOVIEYEAR", stringField(func(c *Config) *string { return &c.Download.MovieYear })},
	{KeyCommand, "NZBCP_COMMAND", stringField(func(c *Config) *string { return &c.Command })},
}

// applyEnv overlays every bound NZBGet variable that is present, even when it
// is present but empty: NZBGet exports unset options as empty strings and the
// required-option checks rely on their presence.
func (c *Config) applyEnv() error {
	v := viper.New()
	v.AllowEmptyEnv(true)
	for _, binding := range envBindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return fmt.Errorf("bind %s: %w", binding.env, err)
		}
	}

	for _, binding := range envBindings {
		if !v.IsSet(binding.key) {
			continue
		}
		if err := binding.apply(c, v.GetString(binding.key)); err != nil {
			return fmt.Errorf("%s: %w", binding.env, err)
		}
		c.markProvided(binding.key)
	}
	return nil
}

// OptionName returns the name NZBGet shows for key on the script settings
// page, e.g. PLEXIP for plex.host. Keys without a script option are returned
// unchanged.
func OptionName(key string) string {
	for _, binding := range envBindings {
		if binding.key == key {
			return strings.TrimPrefix(binding.env, scriptOptionPrefix)
		}
	}
	return key
}

// EnvName returns the environment variable bound to key.
func EnvName(key string) string {
	for _, binding := range envBindings {
		if binding.key == key {
			return binding.env
		}
	}
	return ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "no", "off":
		return false, nil
	case "yes", "on":
		return true, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q (expected yes or no)", raw)
	}
	return value, nil
}
