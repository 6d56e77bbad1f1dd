package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizePlex()
	if err := c.normalizeAuthDir(); err != nil {
		return err
	}
	c.normalizeRefresh()
	c.normalizeLogging()
	if c.Timeouts.PlexTV == 0 {
		c.Timeouts.PlexTV = defaultPlexTVTimeout
	}
	if c.Timeouts.Server == 0 {
		c.Timeouts.Server = defaultServerTimeout
	}
	return nil
}

func (c *Config) normalizePlex() {
	host := strings.TrimSpace(c.Plex.Host)
	// Users regularly paste the full web address into the host field.
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	c.Plex.Host = strings.TrimRight(host, "/")
	c.Plex.Username = strings.TrimSpace(c.Plex.Username)
}

func (c *Config) normalizeAuthDir() error {
	dir := strings.TrimSpace(c.Plex.AuthDir)
	if dir == "" {
		dir = executableDir()
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("plex.auth_dir: %w", err)
	}
	c.Plex.AuthDir = expanded
	return nil
}

// executableDir mirrors NZBGet's convention of keeping script state next to
// the script itself.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return defaultFallbackAuthDir
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func (c *Config) normalizeRefresh() {
	c.Refresh.Mode = strings.TrimSpace(c.Refresh.Mode)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
