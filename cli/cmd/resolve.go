package cmd

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	icupackconfig "github.com/justapithecus/icupack/cli/config"
)

// Precedence for every option: an explicitly set flag, then the config
// file, then the flag's default.

func resolveString(c *cli.Context, flag, configValue string) string {
	if c.IsSet(flag) || configValue == "" {
		return c.String(flag)
	}
	return configValue
}

func resolveBool(c *cli.Context, flag string, configValue bool) bool {
	if c.IsSet(flag) {
		return c.Bool(flag)
	}
	return configValue || c.Bool(flag)
}

func resolveDuration(c *cli.Context, flag string, configValue time.Duration) time.Duration {
	if c.IsSet(flag) || configValue == 0 {
		return c.Duration(flag)
	}
	return configValue
}

func resolveInt(c *cli.Context, flag string, configValue *int) int {
	if c.IsSet(flag) || configValue == nil {
		return c.Int(flag)
	}
	return *configValue
}

// resolveCommand splits a flag value on whitespace; the config form is
// already a list.
func resolveCommand(c *cli.Context, flag string, configValue []string) []string {
	if c.IsSet(flag) {
		return strings.Fields(c.String(flag))
	}
	if len(configValue) > 0 {
		return configValue
	}
	return strings.Fields(c.String(flag))
}

// configVal reads a field from cfg, returning the zero value when cfg is nil.
func configVal[T any](cfg *icupackconfig.Config, get func(*icupackconfig.Config) T) T {
	if cfg == nil {
		var zero T
		return zero
	}
	return get(cfg)
}
