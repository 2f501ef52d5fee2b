package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// sourceDir resolves the directory to organize: the first argument when
// given, else paths.source_dir.
func (c *commandContext) sourceDir(cfg *config.Config, args []string) (string, error) {
	source := cfg.Paths.SourceDir
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, "cli", "source", args[0], err)
		}
		source = expanded
	}
	if source == "" {
		return "", services.Wrap(services.ErrConfiguration, "cli", "source",
			"no source directory (pass one or set paths.source_dir)", nil)
	}
	return source, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
