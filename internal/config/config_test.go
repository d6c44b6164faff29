package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			config: Config{Spec: "openapi.yaml", Format: "json"},
		},
		{
			name:        "missing spec",
			config:      Config{},
			wantErr:     true,
			errContains: "spec file is required",
		},
		{
			name:        "invalid format",
			config:      Config{Spec: "openapi.yaml", Format: "toml"},
			wantErr:     true,
			errContains: "invalid format",
		},
		{
			name:   "yaml format",
			config: Config{Spec: "openapi.yaml", Format: "yaml"},
		},
		{
			name: "prefix strategies are exclusive",
			config: Config{
				Spec:         "openapi.yaml",
				PathPrefix:   "/api",
				CommonPrefix: true,
				Routes:       []string{"/api/items"},
			},
			wantErr:     true,
			errContains: "mutually exclusive",
		},
		{
			name:        "common prefix without routes",
			config:      Config{Spec: "openapi.yaml", CommonPrefix: true},
			wantErr:     true,
			errContains: "requires at least one route",
		},
		{
			name:        "negative retries",
			config:      Config{Spec: "https://example.com/openapi.json", Remote: RemoteConfig{Retries: -1}},
			wantErr:     true,
			errContains: "invalid remote retries",
		},
		{
			name:        "negative timeout",
			config:      Config{Spec: "https://example.com/openapi.json", Remote: RemoteConfig{Timeout: -time.Second}},
			wantErr:     true,
			errContains: "invalid remote timeout",
		},
		{
			name:        "invalid exempt pattern",
			config:      Config{Spec: "openapi.yaml", ValidationExemptURLs: []string{"^/api/("}},
			wantErr:     true,
			errContains: "invalid validation exempt URL",
		},
		{
			name:   "valid exempt pattern",
			config: Config{Spec: "openapi.yaml", ValidationExemptURLs: []string{`^/api/v1/health$`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: api.yaml
path-prefix: /api/v1
parameterized-i18n-name: language
skip-validation-warning: true
validation-exempt-urls:
  - ^/health$
routes:
  - /api/v1/items/{pk}
remote:
  timeout: 5s
  retries: 4
`
	configPath := filepath.Join(tmpDir, DefaultFile)
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Change to temp dir so respec.yaml is found
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cmd := &cobra.Command{}
	BindFlags(cmd)

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "api.yaml", cfg.Spec)
	require.Equal(t, "/api/v1", cfg.PathPrefix)
	require.Equal(t, "language", cfg.I18nParameterName)
	require.True(t, cfg.SkipValidationWarning)
	require.Equal(t, []string{"^/health$"}, cfg.ValidationExemptURLs)
	require.Equal(t, []string{"/api/v1/items/{pk}"}, cfg.Routes)
	require.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	require.Equal(t, 4, cfg.Remote.Retries)
	require.Empty(t, cfg.Format)
}

func TestLoadDefaults(t *testing.T) {
	oldWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(oldWd)

	cmd := &cobra.Command{}
	BindFlags(cmd)
	cmd.PersistentFlags().Set("spec", "openapi.json")

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "openapi.json", cfg.Spec)
	require.Empty(t, cfg.Format)
	require.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	require.Equal(t, 2, cfg.Remote.Retries)
	require.False(t, cfg.IsRemote())
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: api.yaml
format: json
remote:
  retries: 1
`
	configPath := filepath.Join(tmpDir, DefaultFile)
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cmd := &cobra.Command{}
	BindFlags(cmd)

	// Set flags that should override file config
	cmd.PersistentFlags().Set("format", "yaml")
	cmd.PersistentFlags().Set("retries", "5")
	cmd.PersistentFlags().Set("spec", "https://example.com/openapi.yaml")

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "yaml", cfg.Format)
	require.Equal(t, 5, cfg.Remote.Retries)
	require.True(t, cfg.IsRemote())
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: custom.yaml
base-url: https://specs.example.com/v2/
`
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cmd := &cobra.Command{}
	BindFlags(cmd)
	cmd.PersistentFlags().Set("config", configPath)

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "custom.yaml", cfg.Spec)
	require.Equal(t, "https://specs.example.com/v2/", cfg.BaseURL)
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := &cobra.Command{}
	BindFlags(cmd)

	cmd.PersistentFlags().Set("spec", "test.yaml")
	cmd.PersistentFlags().Set("i18n-param", "lang")
	cmd.PersistentFlags().Set("route", "/a/{id}")
	cmd.PersistentFlags().Set("route", "/b")
	cmd.PersistentFlags().Set("common-prefix", "true")
	cmd.PersistentFlags().Set("timeout", "3s")

	m := buildFlagsMap(cmd)

	require.Equal(t, "test.yaml", m["spec"])
	require.Equal(t, "lang", m["parameterized-i18n-name"])
	require.Equal(t, []string{"/a/{id}", "/b"}, m["routes"])
	require.Equal(t, true, m["common-prefix"])
	require.Equal(t, "3s", m["remote.timeout"])
	require.NotContains(t, m, "remote.retries")
	require.NotContains(t, m, "verbose")
}
