package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const DefaultFile = "respec.yaml"

type Config struct {
	Spec                  string       `koanf:"spec"`
	BaseURL               string       `koanf:"base-url"`
	PathPrefix            string       `koanf:"path-prefix"`
	CommonPrefix          bool         `koanf:"common-prefix"`
	I18nParameterName     string       `koanf:"parameterized-i18n-name"`
	SkipValidationWarning bool         `koanf:"skip-validation-warning"`
	ValidationExemptURLs  []string     `koanf:"validation-exempt-urls"`
	Routes                []string     `koanf:"routes"`
	Remote                RemoteConfig `koanf:"remote"`
	// Format is empty unless set in the config file or on the command line.
	Format                string       `koanf:"format"`
	Verbose               bool         `koanf:"verbose"`
}

type RemoteConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Retries int           `koanf:"retries"`
}

// BindFlags binds the global flags to the root command
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: respec.yaml)")
	flags.StringP("spec", "s", "", "OpenAPI schema file path or URL")
	flags.String("base-url", "", "Base used to resolve relative $refs")
	flags.String("path-prefix", "", "Prefix stripped from request paths before lookup")
	flags.Bool("common-prefix", false, "Derive the path prefix from the registered routes")
	flags.String("i18n-param", "", "Name of the parameterized language path segment")
	flags.Bool("skip-validation-warning", false, "Explain how to exempt undocumented routes")
	flags.StringSlice("route", nil, "Route template used to resolve request paths (repeatable)")
	flags.Duration("timeout", 10*time.Second, "Timeout per remote fetch attempt")
	flags.Int("retries", 2, "Retries for failed remote fetches")
	flags.StringP("format", "f", "", "Output format: json, yaml")
	flags.BoolP("verbose", "v", false, "Log debug output")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"remote.timeout": "10s",
		"remote.retries": 2,
	}
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getStringSlice := func(name string) []string {
		if v, err := cmd.Flags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		if v, err := cmd.PersistentFlags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		return nil
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	getInt := func(name string) int {
		if v, err := cmd.Flags().GetInt(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetInt(name); err == nil {
			return v
		}
		return 0
	}

	getDuration := func(name string) time.Duration {
		if v, err := cmd.Flags().GetDuration(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetDuration(name); err == nil {
			return v
		}
		return 0
	}

	if v := getString("spec"); v != "" {
		m["spec"] = v
	}
	if v := getString("base-url"); v != "" {
		m["base-url"] = v
	}
	if v := getString("path-prefix"); v != "" {
		m["path-prefix"] = v
	}
	if v := getString("i18n-param"); v != "" {
		m["parameterized-i18n-name"] = v
	}
	if v := getString("format"); v != "" {
		m["format"] = v
	}
	if v := getStringSlice("route"); len(v) > 0 {
		m["routes"] = v
	}
	for _, name := range []string{"common-prefix", "skip-validation-warning", "verbose"} {
		if flagChanged(name) {
			m[name] = getBool(name)
		}
	}
	if flagChanged("timeout") {
		m["remote.timeout"] = getDuration("timeout").String()
	}
	if flagChanged("retries") {
		m["remote.retries"] = getInt("retries")
	}

	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}

	validFormats := map[string]bool{"": true, "json": true, "yaml": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (valid: json, yaml)", c.Format)
	}

	if c.PathPrefix != "" && c.CommonPrefix {
		return fmt.Errorf("path-prefix and common-prefix are mutually exclusive")
	}
	if c.CommonPrefix && len(c.Routes) == 0 {
		return fmt.Errorf("common-prefix requires at least one route")
	}

	if c.Remote.Timeout < 0 {
		return fmt.Errorf("invalid remote timeout: %s", c.Remote.Timeout)
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("invalid remote retries: %d", c.Remote.Retries)
	}

	for _, pattern := range c.ValidationExemptURLs {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid validation exempt URL %q: %w", pattern, err)
		}
	}

	return nil
}

// IsRemote reports whether Spec is an http(s) URL
func (c *Config) IsRemote() bool {
	return strings.HasPrefix(c.Spec, "http://") || strings.HasPrefix(c.Spec, "https://")
}
