package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context. Shared with the
// cli package via LoggerKey.
type loggerKey struct{}

// Package-level config file tracking.
var (
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > leapdash.yaml > leapdash.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("leapdash.yaml"); err == nil {
		return "leapdash.yaml"
	}
	if _, err := os.Stat("leapdash.yml"); err == nil {
		return "leapdash.yml"
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config
// file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"warehouse.type":  DefaultWarehouseType,
		"llm.endpoint":    DefaultEndpoint,
		"llm.model":       DefaultModel,
		"llm.suggestions": true,
		"llm.insights":    true,
		"llm.follow_ups":  true,
		"server.port":     DefaultServerPort,
		"verbose":         false,
		"output":          DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LEAPDASH_ prefix)
	// Transform: LEAPDASH_LLM_API_KEY -> llm.api_key
	if err := k.Load(env.Provider("LEAPDASH_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "LEAPDASH_"))
		for _, section := range []string{"warehouse", "llm", "server"} {
			if strings.HasPrefix(key, section+"_") {
				return section + "." + strings.TrimPrefix(key, section+"_")
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case flag names to dotted config keys,
			// e.g. --warehouse-type -> warehouse.type.
			key := strings.ReplaceAll(f.Name, "-", "_")
			for _, section := range []string{"warehouse", "llm", "server"} {
				if strings.HasPrefix(key, section+"_") {
					key = section + "." + strings.TrimPrefix(key, section+"_")
					break
				}
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Expand ${VAR} references in sensitive fields
	cfg.Warehouse.Password = expandEnvVars(cfg.Warehouse.Password)
	cfg.Warehouse.Username = expandEnvVars(cfg.Warehouse.Username)
	cfg.Warehouse.Host = expandEnvVars(cfg.Warehouse.Host)
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if
// any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration. This is
// available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// ResetConfig clears loaded state. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// LoggerKey returns the context key used for storing the logger. This
// lets the commands package retrieve the logger from context without
// an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns with environment variable
// values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
