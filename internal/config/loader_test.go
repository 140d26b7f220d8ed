package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	fs.StringP("output", "o", "", "")
	fs.Int("workers", 0, "")
	fs.Bool("no-secure-storage", false, "")
	fs.Bool("no-history", false, "")
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(dir, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, 0, cfg.Workers)
	assert.True(t, cfg.SecureStorage)
	assert.True(t, cfg.History)
	assert.Equal(t, DefaultPreviewLimit, cfg.PreviewLimit)
	assert.Equal(t, filepath.Join(dir, "connections.json"), cfg.ConnectionsFile)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryFile)
	assert.Equal(t, filepath.Join(dir, LogFileName), cfg.LogFile())
	assert.Empty(t, cfg.FileUsed)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `
log_level: info
output: json
workers: 3
history: false
connections_file: /srv/conns.json
`)
	dotEnv := filepath.Join(t.TempDir(), ".env")
	writeFile(t, dotEnv, "SLICKDATA_OUTPUT=csv\nSLICKDATA_WORKERS=5\nUNRELATED=1\n")
	t.Setenv("SLICKDATA_WORKERS", "7")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "debug", "--no-secure-storage"}))

	cfg, err := load(dir, "", dotEnv, flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.FileUsed)
	assert.Equal(t, "debug", cfg.LogLevel, "flag beats file")
	assert.Equal(t, "csv", cfg.Output, ".env beats file")
	assert.Equal(t, 7, cfg.Workers, "env beats .env")
	assert.False(t, cfg.History, "file beats default")
	assert.False(t, cfg.SecureStorage, "--no-secure-storage")
	assert.Equal(t, "/srv/conns.json", cfg.ConnectionsFile)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryFile)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "output: yaml\n")

	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := load(dir, "", "", flags)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.True(t, cfg.SecureStorage)
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "log_format: json\n")

	cfg, err := load(t.TempDir(), path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, path, cfg.FileUsed)

	_, err = load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"), "", nil)
	assert.Error(t, err, "an explicit config file must exist")
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "output: [unterminated\n")

	_, err := load(dir, "", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{LogLevel: "warn", LogFormat: "text", Output: "table"}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "case insensitive", mutate: func(c *Config) { c.LogLevel = "DEBUG"; c.Output = "JSON" }},
		{name: "markdown alias", mutate: func(c *Config) { c.Output = "markdown" }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, errSubstr: "invalid log_level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "invalid log_format"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "html" }, errSubstr: "invalid output"},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, errSubstr: "workers"},
		{name: "negative preview", mutate: func(c *Config) { c.PreviewLimit = -5 }, errSubstr: "preview_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateNormalizes(t *testing.T) {
	cfg := Config{LogLevel: "INFO", LogFormat: "JSON", Output: "markdown"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "md", cfg.Output)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := GetLogger(context.Background())
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
