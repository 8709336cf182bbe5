//go:build property
// +build property

package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/viper"
)

func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ports in range always load", prop.ForAll(
		func(port int, host string) bool {
			v := viper.New()
			v.Set("server.port", port)
			v.Set("server.host", host)
			cfg, err := LoadFrom(v)
			return err == nil && cfg.Server.Port == port && cfg.Server.Host == host
		},
		gen.IntRange(0, 65535),
		gen.RegexMatch(`^[a-zA-Z0-9.-]{1,30}$`),
	))

	properties.Property("ports out of range never load", prop.ForAll(
		func(port int) bool {
			v := viper.New()
			v.Set("server.port", port)
			_, err := LoadFrom(v)
			return err != nil
		},
		gen.OneGenOf(gen.IntRange(-100000, -1), gen.IntRange(65536, 1000000)),
	))

	properties.Property("max depth is accepted iff positive", prop.ForAll(
		func(depth int) bool {
			v := viper.New()
			v.Set("render.max_depth", depth)
			_, err := LoadFrom(v)
			return (err == nil) == (depth > 0)
		},
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
