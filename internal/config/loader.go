package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Audit.LogFile = expandTilde(cfg.Audit.LogFile)
	cfg.Audit.DBPath = expandTilde(cfg.Audit.DBPath)
	for artifactType, routing := range cfg.FileRouting {
		routing.BasePath = expandTilde(routing.BasePath)
		cfg.FileRouting[artifactType] = routing
	}
	for name, channel := range cfg.Channels {
		if channel.FileRouting != nil {
			channel.FileRouting.BasePath = expandTilde(channel.FileRouting.BasePath)
		}
		cfg.Channels[name] = channel
	}
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("publish")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "distgate"))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "distgate"))
	}

	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DISTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all scalar default values in Viper. Map-valued sections
// (channels, visibility rules, approval matrix, file routing) come from the
// config file only.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	// Audit
	v.SetDefault("audit.enabled", cfg.Audit.Enabled)
	v.SetDefault("audit.backend", cfg.Audit.Backend)
	v.SetDefault("audit.log_file", cfg.Audit.LogFile)
	v.SetDefault("audit.db_path", cfg.Audit.DBPath)

	// Defaults
	v.SetDefault("defaults.human_approval_required", cfg.Defaults.HumanApprovalRequired)

	// Rollback
	v.SetDefault("rollback.enabled", cfg.Rollback.Enabled)

	// Scheduled publishing
	v.SetDefault("scheduled_publishing.enabled", cfg.ScheduledPublishing.Enabled)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}

// bindEnvVars binds environment variables for config keys.
// Viper's Unmarshal has issues with env vars on nested structs unless
// explicitly bound.
func bindEnvVars(v *viper.Viper) {
	envBindings := []string{
		// Logging
		"logging.level",
		"logging.format",
		// Audit
		"audit.enabled",
		"audit.backend",
		"audit.log_file",
		"audit.db_path",
		// Defaults
		"defaults.human_approval_required",
		// Rollback
		"rollback.enabled",
		// Scheduled publishing
		"scheduled_publishing.enabled",
	}

	for _, key := range envBindings {
		// Convert key to env var format: audit.log_file -> DISTGATE_AUDIT_LOG_FILE
		envVar := "DISTGATE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envVar)
	}
}
