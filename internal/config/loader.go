package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable that maps to a key.
const EnvPrefix = "SLICKDATA_"

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// envKey maps SLICKDATA_LOG_LEVEL to log_level.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > .env > config file > defaults.
// cfgFile may be empty, in which case <config dir>/config.yaml is used if
// it exists. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	defaults, err := Default()
	if err != nil {
		return nil, err
	}
	return load(defaults.Dir, cfgFile, DotEnvFile, flags)
}

func load(dir, cfgFile, dotEnv string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"log_level":        DefaultLogLevel,
		"log_format":       DefaultLogFormat,
		"output":           DefaultOutput,
		"workers":          0,
		"secure_storage":   true,
		"history":          true,
		"connections_file": "",
		"history_file":     "",
		"preview_limit":    DefaultPreviewLimit,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = filepath.Join(dir, ConfigFileName)
	}
	fileUsed := ""
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		fileUsed = cfgFile
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
	}

	// 3. .env file, same naming as the environment
	if dotEnv != "" {
		vars, err := godotenv.Read(dotEnv)
		switch {
		case err == nil:
			m := make(map[string]any)
			for key, val := range vars {
				if strings.HasPrefix(key, EnvPrefix) {
					m[envKey(key)] = val
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", dotEnv, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading %s: %w", dotEnv, err)
		}
	}

	// 4. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "config":
				return "", nil
			case "no_secure_storage":
				on, _ := flags.GetBool(f.Name)
				return "secure_storage", !on
			case "no_history":
				on, _ := flags.GetBool(f.Name)
				return "history", !on
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Dir = dir
	cfg.FileUsed = fileUsed
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
