package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"editorial/internal/client"
	"editorial/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string
	logLevel   *string

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
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// apiAddress prefers --api over the configured bind address.
func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if bind := strings.TrimSpace(*c.apiFlag); bind != "" {
			return bind
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.APIBaseURL()
	}
	return ""
}

func (c *commandContext) apiClient() (*client.Client, error) {
	var token string
	if cfg := c.configValue(); cfg != nil {
		token = cfg.Paths.APIToken
	}
	cl, err := client.New(c.apiAddress(), token)
	if err != nil {
		return nil, fmt.Errorf("configure api client: %w", err)
	}
	return cl, nil
}

// withClient runs fn against the daemon and rewrites connection failures
// into a hint about starting the daemon.
func (c *commandContext) withClient(fn func(*client.Client) error) error {
	cl, err := c.apiClient()
	if err != nil {
		return err
	}
	if err := fn(cl); err != nil {
		if client.IsAPIUnavailable(err) {
			return fmt.Errorf("connect to daemon at %s: not reachable; start it with `editorial start`", c.apiAddress())
		}
		return err
	}
	return nil
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
