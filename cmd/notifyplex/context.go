package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
)

type commandContext struct {
	configFlag    string
	logLevelFlag  string
	logFormatFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	exitCode int
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = level
		}
		if format := strings.TrimSpace(c.logFormatFlag); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, cmd.OutOrStdout())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
