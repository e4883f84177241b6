// Package config provides configuration management for unreact using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration names the source directories (templates, styles, public),
// the output directories for production and development builds, the local
// ports of the dev server and its websocket hub, the debounce timings of the
// file watcher, and the routes of the site itself.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/unreact/internal/errors"
	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Build  BuildConfig  `yaml:"build" mapstructure:"build"`
	Site   SiteConfig   `yaml:"site" mapstructure:"site"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type PathsConfig struct {
	Templates string `yaml:"templates" mapstructure:"templates"`
	Styles    string `yaml:"styles" mapstructure:"styles"`
	Public    string `yaml:"public" mapstructure:"public"`
	Build     string `yaml:"build" mapstructure:"build"`
	DevBuild  string `yaml:"dev_build" mapstructure:"dev_build"`
}

type ServerConfig struct {
	Host   string `yaml:"host" mapstructure:"host"`
	Port   int    `yaml:"port" mapstructure:"port"`
	WSPort int    `yaml:"ws_port" mapstructure:"ws_port"`
}

type WatchConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	Ignore      []string      `yaml:"ignore" mapstructure:"ignore"`
}

type BuildConfig struct {
	Strict bool `yaml:"strict" mapstructure:"strict"`
	Minify bool `yaml:"minify" mapstructure:"minify"`
}

type SiteConfig struct {
	Name     string                 `yaml:"name" mapstructure:"name"`
	URL      string                 `yaml:"url" mapstructure:"url"`
	Globals  map[string]interface{} `yaml:"globals" mapstructure:"globals"`
	Routes   []RouteConfig          `yaml:"routes" mapstructure:"routes"`
	NotFound *PageConfig            `yaml:"not_found,omitempty" mapstructure:"not_found"`
}

// PageConfig describes one page: either a template name with data, or raw content.
type PageConfig struct {
	Template string                 `yaml:"template,omitempty" mapstructure:"template"`
	Raw      string                 `yaml:"raw,omitempty" mapstructure:"raw"`
	Data     map[string]interface{} `yaml:"data,omitempty" mapstructure:"data"`
}

// RouteConfig binds a page to a route path relative to the output root.
type RouteConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	PageConfig `yaml:",inline" mapstructure:",squash"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default values.
const (
	DefaultTemplatesDir = "templates"
	DefaultStylesDir    = "styles"
	DefaultPublicDir    = "public"
	DefaultBuildDir     = "build"
	DefaultDevBuildDir  = ".devbuild"
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 3000
	DefaultWSPort       = 3001
	DefaultMinInterval  = 500 * time.Millisecond
	DefaultSettleDelay  = 300 * time.Millisecond
	DefaultSiteURL      = "https://example.com/"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		// defaults always validate
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

// Load reads the configuration from the global viper instance, which the CLI
// has already pointed at the config file, environment and flags.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// Viper does not merge defaults into slices and maps
	if config.Site.Globals == nil {
		config.Site.Globals = make(map[string]interface{})
	}
	if !strings.HasSuffix(config.Site.URL, "/") {
		config.Site.URL += "/"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.templates", DefaultTemplatesDir)
	v.SetDefault("paths.styles", DefaultStylesDir)
	v.SetDefault("paths.public", DefaultPublicDir)
	v.SetDefault("paths.build", DefaultBuildDir)
	v.SetDefault("paths.dev_build", DefaultDevBuildDir)

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.ws_port", DefaultWSPort)

	v.SetDefault("watch.min_interval", DefaultMinInterval)
	v.SetDefault("watch.settle_delay", DefaultSettleDelay)

	v.SetDefault("build.strict", false)
	v.SetDefault("build.minify", true)

	v.SetDefault("site.url", DefaultSiteURL)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// WatchedDirs returns the source directories the dev server observes.
func (c *Config) WatchedDirs() []string {
	return []string{c.Paths.Templates, c.Paths.Styles, c.Paths.Public}
}

// OutputDir returns the build output directory for the given mode.
func (c *Config) OutputDir(dev bool) string {
	if dev {
		return c.Paths.DevBuild
	}
	return c.Paths.Build
}

// SiteURL returns the URL given to templates. In dev mode it points at the
// local file server.
func (c *Config) SiteURL(dev bool) string {
	if dev {
		return fmt.Sprintf("http://localhost:%d/", c.Server.Port)
	}
	return c.Site.URL
}

// HTTPAddr returns the listen address of the file server.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprint(c.Server.Port))
}

// WSAddr returns the listen address of the websocket hub.
func (c *Config) WSAddr() string {
	return net.JoinHostPort(c.Server.Host, fmt.Sprint(c.Server.WSPort))
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validatePathsConfig(&config.Paths); err != nil {
		return fmt.Errorf("paths config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if err := validateSiteConfig(&config.Site); err != nil {
		return fmt.Errorf("site config: %w", err)
	}

	return nil
}

func validatePathsConfig(config *PathsConfig) error {
	paths := map[string]string{
		"templates": config.Templates,
		"styles":    config.Styles,
		"public":    config.Public,
		"build":     config.Build,
		"dev_build": config.DevBuild,
	}
	for name, path := range paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if filepath.Clean(config.Build) == filepath.Clean(config.DevBuild) {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			"build and dev_build must be different directories")
	}

	// rebuild writes under a watched dir would retrigger rebuilds forever,
	// and resetting an output dir would wipe a source dir inside it
	outputs := map[string]string{"build": config.Build, "dev_build": config.DevBuild}
	sources := map[string]string{"templates": config.Templates, "styles": config.Styles, "public": config.Public}
	for outName, out := range outputs {
		for srcName, src := range sources {
			if overlaps(out, src) {
				return errors.NewConfigError(errors.CodeInvalidConfig,
					fmt.Sprintf("%s %q overlaps %s %q", outName, out, srcName, src))
			}
		}
	}

	return nil
}

// overlaps reports whether one of a and b is the other or lies inside it.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

func within(child, parent string) bool {
	c, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// validateServerConfig validates server configuration values. The dev server
// only ever binds to loopback.
func validateServerConfig(config *ServerConfig) error {
	// allow 0 for system-assigned ports in testing
	for name, port := range map[string]int{"port": config.Port, "ws_port": config.WSPort} {
		if port < 0 || port > 65535 {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("%s %d is not in valid range 0-65535", name, port))
		}
	}

	if config.Port != 0 && config.Port == config.WSPort {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("port and ws_port must differ (both %d)", config.Port))
	}

	if !isLoopback(config.Host) {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("host %q is not a loopback address", config.Host))
	}

	return nil
}

func validateWatchConfig(config *WatchConfig) error {
	if config.MinInterval < 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig, "min_interval must not be negative")
	}
	if config.SettleDelay < 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig, "settle_delay must not be negative")
	}
	return nil
}

func validateSiteConfig(config *SiteConfig) error {
	seen := make(map[string]bool, len(config.Routes))
	for i, route := range config.Routes {
		path := strings.Trim(route.Path, "/")
		if path == "404" {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("route %d: use not_found for the 404 page", i))
		}
		if strings.Contains(path, "..") {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("route %d: path contains traversal: %s", i, route.Path))
		}
		if seen[path] {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("route %d: duplicate path %q", i, route.Path))
		}
		seen[path] = true

		if err := validatePage(&route.PageConfig); err != nil {
			return fmt.Errorf("route %q: %w", route.Path, err)
		}
	}

	if config.NotFound != nil {
		if err := validatePage(config.NotFound); err != nil {
			return fmt.Errorf("not_found: %w", err)
		}
	}

	return nil
}

func validatePage(page *PageConfig) error {
	hasTemplate := page.Template != ""
	hasRaw := page.Raw != ""
	if hasTemplate == hasRaw {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			"exactly one of template or raw must be set")
	}
	return nil
}

// validatePath validates a directory path for security
func validatePath(path string) error {
	if path == "" {
		return errors.NewConfigError(errors.CodeInvalidConfig, "empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("path contains traversal: %s", path))
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				fmt.Sprintf("path contains dangerous character: %s", char))
		}
	}

	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
