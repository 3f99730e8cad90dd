package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration,
// e.g. YUBIKEY_INDICATOR_POLL_INTERVAL=2s.
const EnvPrefix = "YUBIKEY_INDICATOR"

// Scan backends.
const (
	BackendUSB = "usb"
	BackendHID = "hid"
)

type Config struct {
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	IconsDir               string        `mapstructure:"icons_dir"`
	PersonalizationCommand string        `mapstructure:"personalization_command"`
	ScanBackend            string        `mapstructure:"scan_backend"`
	LogLevel               string        `mapstructure:"log_level"`
	LogOutput              string        `mapstructure:"log_output"`
	LogFormat              string        `mapstructure:"log_format"`
	Debug                  bool          `mapstructure:"debug"`
}

// Default returns configuration of the stock applet: one scan per second
// over libusb, icons next to the executable, the stock personalization tool
// and no log output unless something goes wrong.
func Default() *Config {
	return &Config{
		PollInterval:           time.Second,
		IconsDir:               defaultIconsDir(),
		PersonalizationCommand: "yubikey-personalization-gui",
		ScanBackend:            BackendUSB,
		LogLevel:               "warn",
		LogOutput:              "stderr",
		LogFormat:              "console",
	}
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"interval":                "poll_interval",
	"icons":                   "icons_dir",
	"personalization-command": "personalization_command",
	"scan-backend":            "scan_backend",
	"log-level":               "log_level",
	"log-output":              "log_output",
	"log-format":              "log_format",
	"debug":                   "debug",
}

// Load reads configuration from cfgFile (or the default location when
// empty), the environment and flags, in increasing order of precedence.
// A missing default config file is not an error. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	v := viper.New()

	v.SetDefault("poll_interval", cfg.PollInterval)
	v.SetDefault("icons_dir", cfg.IconsDir)
	v.SetDefault("personalization_command", cfg.PersonalizationCommand)
	v.SetDefault("scan_backend", cfg.ScanBackend)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_output", cfg.LogOutput)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("debug", cfg.Debug)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}

	if c.PersonalizationCommand == "" {
		return errors.New("personalization_command must not be empty")
	}

	switch c.ScanBackend {
	case BackendUSB, BackendHID:
	default:
		return fmt.Errorf("scan_backend must be %q or %q, got %q", BackendUSB, BackendHID, c.ScanBackend)
	}

	return nil
}

// defaultIconsDir returns the icons directory colocated with the executable.
func defaultIconsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "icons"
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Join(filepath.Dir(exe), "icons")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	return filepath.Join(dir, "yubikey-indicator")
}
