package main

import (
	"strings"
	"sync"

	"orrery/internal/config"
	"orrery/internal/control"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds a control client for the daemon. An explicit --api flag wins
// over the configured bind address and skips config loading entirely, so the
// CLI can target a remote daemon without a local config file.
func (c *commandContext) client() (*control.Client, error) {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return control.New(*c.apiFlag, "")
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return control.NewFromConfig(cfg)
}
