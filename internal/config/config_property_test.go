//go:build property

package config

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Property: distinct in-range ports on loopback always validate
	properties.Property("distinct ports validate", prop.ForAll(
		func(port, wsPort int) bool {
			if port == wsPort {
				return true
			}
			cfg := Default()
			cfg.Server.Port = port
			cfg.Server.WSPort = wsPort
			return validateConfig(cfg) == nil
		},
		gen.IntRange(1, 65535),
		gen.IntRange(1, 65535),
	))

	// Property: the same non-zero port for both servers never validates
	properties.Property("equal ports rejected", prop.ForAll(
		func(port int) bool {
			cfg := Default()
			cfg.Server.Port = port
			cfg.Server.WSPort = port
			return validateConfig(cfg) != nil
		},
		gen.IntRange(1, 65535),
	))

	// Property: out of range ports never validate
	properties.Property("out of range ports rejected", prop.ForAll(
		func(port int) bool {
			cfg := Default()
			cfg.Server.Port = port
			return validateConfig(cfg) != nil
		},
		gen.OneGenOf(gen.IntRange(-100000, -1), gen.IntRange(65536, 200000)),
	))

	// Property: a route climbing out of the output directory never validates
	properties.Property("route traversal rejected", prop.ForAll(
		func(prefix, suffix string) bool {
			cfg := Default()
			cfg.Site.Routes = []RouteConfig{
				{Path: prefix + "/../" + suffix, PageConfig: PageConfig{Raw: "x"}},
			}
			return validateConfig(cfg) != nil
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: source paths with shell metacharacters never validate
	properties.Property("dangerous path characters rejected", prop.ForAll(
		func(name string, char string) bool {
			cfg := Default()
			cfg.Paths.Templates = name + char
			err := validateConfig(cfg)
			return err != nil && strings.Contains(err.Error(), "dangerous character")
		},
		gen.AlphaString(),
		gen.OneConstOf(";", "&", "|", "$", "`", "<", ">"),
	))

	properties.TestingRun(t)
}
