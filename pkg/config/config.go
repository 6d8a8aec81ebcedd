/*
Package config manages the TOML config for typeahead.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/autocomplete"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Autocomplete AutocompleteConfig `toml:"autocomplete"`
	Dict         DictConfig         `toml:"dict"`
	Server       ServerConfig       `toml:"server"`
	CLI          CliConfig          `toml:"cli"`
}

// AutocompleteConfig mirrors autocomplete.Options in file friendly units.
type AutocompleteConfig struct {
	DebounceMs    int `toml:"debounce_ms"`
	MinChars      int `toml:"min_chars"`
	MaxCache      int `toml:"max_cache"`
	MaxAttempts   int `toml:"max_attempts"`
	BackoffBaseMs int `toml:"backoff_base_ms"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	MaxWords         int  `toml:"max_words"`
	MinFreqThreshold int  `toml:"min_frequency_threshold"`
	Fuzzy            bool `toml:"fuzzy"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// CliConfig holds front end options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit"`
	DefaultNoFilter bool `toml:"default_no_filter"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Autocomplete: AutocompleteConfig{
			DebounceMs:    int(autocomplete.DefaultDebounce / time.Millisecond),
			MinChars:      autocomplete.DefaultMinChars,
			MaxCache:      autocomplete.DefaultMaxCache,
			MaxAttempts:   autocomplete.DefaultMaxAttempts,
			BackoffBaseMs: int(autocomplete.DefaultBackoffBase / time.Millisecond),
		},
		Dict: DictConfig{
			MaxWords:         50000,
			MinFreqThreshold: 20,
			Fuzzy:            false,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
		},
		CLI: CliConfig{
			DefaultLimit:    10,
			DefaultNoFilter: false,
		},
	}
}

// Options converts the section into orchestrator options.
func (a AutocompleteConfig) Options() autocomplete.Options {
	opts := autocomplete.DefaultOptions()
	opts.Debounce = time.Duration(a.DebounceMs) * time.Millisecond
	opts.MinChars = a.MinChars
	opts.MaxCache = a.MaxCache
	opts.MaxAttempts = a.MaxAttempts
	opts.BackoffBase = time.Duration(a.BackoffBaseMs) * time.Millisecond
	return opts
}

// Validate replaces values that make no sense with their defaults and logs
// each replacement.
func (c *Config) Validate() {
	def := DefaultConfig()

	fix := func(name string, val *int, min int, fallback int) {
		if *val < min {
			log.Warnf("Invalid %s=%d, using %d", name, *val, fallback)
			*val = fallback
		}
	}

	fix("autocomplete.debounce_ms", &c.Autocomplete.DebounceMs, 0, def.Autocomplete.DebounceMs)
	fix("autocomplete.min_chars", &c.Autocomplete.MinChars, 0, def.Autocomplete.MinChars)
	fix("autocomplete.max_cache", &c.Autocomplete.MaxCache, 1, def.Autocomplete.MaxCache)
	fix("autocomplete.max_attempts", &c.Autocomplete.MaxAttempts, 1, def.Autocomplete.MaxAttempts)
	fix("autocomplete.backoff_base_ms", &c.Autocomplete.BackoffBaseMs, 0, def.Autocomplete.BackoffBaseMs)
	fix("dict.max_words", &c.Dict.MaxWords, 0, def.Dict.MaxWords)
	fix("dict.min_frequency_threshold", &c.Dict.MinFreqThreshold, 0, def.Dict.MinFreqThreshold)
	fix("server.max_limit", &c.Server.MaxLimit, 1, def.Server.MaxLimit)
	fix("server.min_prefix", &c.Server.MinPrefix, 0, def.Server.MinPrefix)
	fix("server.max_prefix", &c.Server.MaxPrefix, 1, def.Server.MaxPrefix)
	fix("cli.default_limit", &c.CLI.DefaultLimit, 1, def.CLI.DefaultLimit)

	if c.Server.MaxPrefix < c.Server.MinPrefix {
		log.Warnf("server.max_prefix=%d is below server.min_prefix=%d, using defaults", c.Server.MaxPrefix, c.Server.MinPrefix)
		c.Server.MinPrefix = def.Server.MinPrefix
		c.Server.MaxPrefix = def.Server.MaxPrefix
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "typeahead")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "typeahead")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/typeahead/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// defaults; a file that fails to decode is salvaged section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Validate()
	return config, nil
}

// tryPartialParse keeps every value that still has the right type.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "autocomplete"); ok {
		extractAutocompleteConfig(section, &config.Autocomplete)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.Validate()
	return config, nil
}

func extractAutocompleteConfig(data map[string]any, ac *AutocompleteConfig) {
	utils.ExtractIntInto(data, "debounce_ms", &ac.DebounceMs)
	utils.ExtractIntInto(data, "min_chars", &ac.MinChars)
	utils.ExtractIntInto(data, "max_cache", &ac.MaxCache)
	utils.ExtractIntInto(data, "max_attempts", &ac.MaxAttempts)
	utils.ExtractIntInto(data, "backoff_base_ms", &ac.BackoffBaseMs)
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	utils.ExtractIntInto(data, "max_words", &dict.MaxWords)
	utils.ExtractIntInto(data, "min_frequency_threshold", &dict.MinFreqThreshold)
	if val, ok := utils.ExtractBool(data, "fuzzy"); ok {
		dict.Fuzzy = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	utils.ExtractIntInto(data, "max_limit", &server.MaxLimit)
	utils.ExtractIntInto(data, "min_prefix", &server.MinPrefix)
	utils.ExtractIntInto(data, "max_prefix", &server.MaxPrefix)
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	utils.ExtractIntInto(data, "default_limit", &cli.DefaultLimit)
	if val, ok := utils.ExtractBool(data, "default_no_filter"); ok {
		cli.DefaultNoFilter = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
