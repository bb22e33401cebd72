package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"enrollsync/internal/config"
	"enrollsync/internal/logging"
)

type commandContext struct {
	configFlag     *string
	logLevelFlag   *string
	stagingDirFlag *string
	jsonFlag       *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	logErr     error
}

func newCommandContext(configFlag, logLevelFlag, stagingDirFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:     configFlag,
		logLevelFlag:   logLevelFlag,
		stagingDirFlag: stagingDirFlag,
		jsonFlag:       jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if level := c.logLevel(); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if c.stagingDirFlag != nil {
			if cfg, err = cfg.WithStagingDir(*c.stagingDirFlag); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
}

// logger builds the process logger from the loaded configuration once.
func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logging.NewFromConfig(cfg)
	})
	return c.log, c.logErr
}

// JSONMode reports whether output for cmd should be JSON: either --json was
// given or stdout is not a terminal.
func (c *commandContext) JSONMode(cmd *cobra.Command) bool {
	if c.jsonFlag != nil && *c.jsonFlag {
		return true
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
