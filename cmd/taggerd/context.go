package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"taggerd/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string
	authFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag, authFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
		authFlag:    authFlag,
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// address resolves the API address: the --address flag wins, otherwise the
// configured bind address.
func (c *commandContext) address() string {
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		return strings.TrimSpace(*c.addressFlag)
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.APIBind
	}
	return "127.0.0.1:7870"
}

func (c *commandContext) client() *apiClient {
	auth := ""
	if c.authFlag != nil {
		auth = strings.TrimSpace(*c.authFlag)
	}
	return newAPIClient(c.address(), auth)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
