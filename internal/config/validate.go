package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Option presence checks depend
// on the command being run and live in MissingOptions instead.
func (c *Config) Validate() error {
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Timeouts.PlexTV < 0 {
		return errors.New("timeouts.plex_tv must be positive")
	}
	if c.Timeouts.Server < 0 {
		return errors.New("timeouts.server must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "nzbget", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected auto, nzbget, console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
