// Package config loads htmlcleaner settings from defaults, an optional YAML
// file, HTMLCLEANER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tesarmarek/Legal-document-cleaner/logging"
)

// EnvPrefix is the prefix of environment variables read by the config.
const EnvPrefix = "HTMLCLEANER"

// Config is the full set of settings.
type Config struct {
	OutputDir        string       `mapstructure:"output_dir" yaml:"output_dir"`
	LogLevel         string       `mapstructure:"log_level" yaml:"log_level"`
	LogFormat        string       `mapstructure:"log_format" yaml:"log_format"`
	DefaultTitle     string       `mapstructure:"default_title" yaml:"default_title"`
	StructureVersion string       `mapstructure:"structure_version" yaml:"structure_version"`
	Fetch            FetchConfig  `mapstructure:"fetch" yaml:"fetch"`
	Server           ServerConfig `mapstructure:"server" yaml:"server"`
}

// FetchConfig configures loading documents over HTTP.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Attempts  uint          `mapstructure:"attempts" yaml:"attempts"`
	Delay     time.Duration `mapstructure:"delay" yaml:"delay"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "text",
		DefaultTitle:     "Untitled",
		StructureVersion: "1.0",
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "htmlcleaner/1.0",
			Attempts:  3,
			Delay:     500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
		},
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.StructureVersion == "" {
		errs = append(errs, errors.New("structure_version must not be empty"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.Attempts == 0 {
		errs = append(errs, errors.New("fetch.attempts must be at least 1"))
	}
	if c.Fetch.Delay < 0 {
		errs = append(errs, errors.New("fetch.delay must not be negative"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"output_dir": "output_dir",
	"log-level":  "log_level",
	"log-format": "log_format",
	"addr":       "server.addr",
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager loads the config. cfgFile may be empty, in which case
// htmlcleaner.yaml is looked up in the working directory and in
// $HOME/.htmlcleaner; a missing file is not an error. Flags found in
// flags are bound according to FlagKeys.
func NewManager(cfgFile string, flags *pflag.FlagSet) (*Manager, error) {
	cm := &Manager{v: viper.New()}
	if err := cm.initViper(cfgFile, flags); err != nil {
		return nil, err
	}
	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm, nil
}

func (cm *Manager) initViper(cfgFile string, flags *pflag.FlagSet) error {
	v := cm.v
	d := Default()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("default_title", d.DefaultTitle)
	v.SetDefault("structure_version", d.StructureVersion)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.attempts", d.Fetch.Attempts)
	v.SetDefault("fetch.delay", d.Fetch.Delay)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)

	// HTMLCLEANER_FETCH_TIMEOUT → fetch.timeout
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("htmlcleaner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.htmlcleaner")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig reloads the config whenever the config file changes and
// passes the new settings to the OnChange callbacks. Invalid edits are
// reported through onError and the previous settings stay in effect.
func (cm *Manager) WatchConfig(onError func(error)) {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading %s: %w", e.Name, err))
			}
			return
		}
		cm.apply(cfg)
	})
	cm.v.WatchConfig()
}

func (cm *Manager) apply(cfg *Config) {
	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}
