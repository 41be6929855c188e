package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"recipebox/internal/config"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	runtimeMu sync.Mutex
	runtime   *runtime
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// app opens the runtime on first use. One-shot commands log to the log file
// only so stdout stays clean for command output.
func (c *commandContext) app(ctx context.Context) (*runtime, error) {
	c.runtimeMu.Lock()
	defer c.runtimeMu.Unlock()
	if c.runtime != nil {
		return c.runtime, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	rt, err := openRuntime(ctx, cfg, runtimeOptions{logToFileOnly: true})
	if err != nil {
		return nil, err
	}
	c.runtime = rt
	return rt, nil
}

func (c *commandContext) close() {
	c.runtimeMu.Lock()
	defer c.runtimeMu.Unlock()
	if c.runtime != nil {
		c.runtime.Close()
		c.runtime = nil
	}
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
